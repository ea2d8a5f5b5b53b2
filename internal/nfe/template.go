package nfe

import (
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// Template holds the raw bytes of an NF-e template. Every call to Document
// parses a fresh tree, so callers never share mutable state.
type Template struct {
	name string
	raw  []byte
}

// LoadTemplate reads a template from disk and checks that it parses.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return NewTemplate(path, raw)
}

// NewTemplate wraps template bytes already in memory.
func NewTemplate(name string, raw []byte) (*Template, error) {
	t := &Template{name: name, raw: raw}
	if _, err := t.Document(); err != nil {
		return nil, err
	}
	return t, nil
}

// Name is the file the template was loaded from.
func (t *Template) Name() string {
	return t.name
}

// Document parses a new copy of the template with namespaces stripped.
func (t *Template) Document() (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(t.raw); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", t.name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("template %s has no root element", t.name)
	}
	StripNamespaces(doc)
	return doc, nil
}

// StripNamespaces removes namespace prefixes from every element and
// attribute and drops the xmlns declarations, so lookups can use plain tag
// names like ".//emit/CNPJ". The xmldsig namespace on Signature goes too, so
// generated documents are namespace-free on purpose.
func StripNamespaces(doc *etree.Document) {
	for _, el := range doc.FindElements(".//*") {
		el.Space = ""

		attrs := el.Attr[:0]
		for _, a := range el.Attr {
			if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
				continue
			}
			a.Space = ""
			attrs = append(attrs, a)
		}
		el.Attr = attrs
	}
}
