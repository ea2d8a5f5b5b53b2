// =============================================================================
// Nota Fiscal Generator - Document Mutator
// =============================================================================
//
// This module applies an order onto a parsed NF-e template. The steps run in
// a fixed order because later steps rely on earlier structural edits:
//
//   1. Clean the CNPJs (drop ".", "/" and "-")
//   2. Inject fields from the declarative FieldRules table
//   3. Rebuild the <dup> installments under <cobr> and sum the amounts
//   4. Assign a fresh infNFe Id
//   5. Anonymize the known names and e-mails
//   6. Refresh the three timestamps
//   7. Write the installment sum into the six total fields
//
// Apply mutates the document in place. Callers parse a fresh copy per
// invocation (Template.Document) and discard it when Apply fails, so a failed
// run never reaches the emitter.
//
// =============================================================================

package nfe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrPathNotFound means the template lacks an element the document
	// format requires. The template is trusted, so this is fatal.
	ErrPathNotFound = errors.New("path not found in template")

	// ErrAmbiguousPath means a path expected to be unique matched more than
	// one element.
	ErrAmbiguousPath = errors.New("path matches more than one element")
)

// =============================================================================
// DOCUMENT PATHS
// =============================================================================

const (
	cobrPath    = ".//cobr"
	infNFePath  = ".//infNFe"
	idAttribute = "Id"
	dupTag      = "dup"

	timestampLayout = "2006-01-02T15:04:05"
)

// FieldRule maps one order value to the unique element at Path.
type FieldRule struct {
	Name  string
	Path  string
	Value func(o *types.Order) string
}

// FieldRules is the field injection table, applied in order.
var FieldRules = []FieldRule{
	{"seller_cnpj", ".//emit/CNPJ", func(o *types.Order) string { return CleanCNPJ(o.SellerCNPJ) }},
	{"buyer_cnpj", ".//dest/CNPJ", func(o *types.Order) string { return CleanCNPJ(o.BuyerCNPJ) }},
	{"street", ".//enderDest/xLgr", func(o *types.Order) string { return o.BuyerAddress.Street }},
	{"number", ".//enderDest/nro", func(o *types.Order) string { return o.BuyerAddress.Number }},
	{"neighborhood", ".//enderDest/xBairro", func(o *types.Order) string { return o.BuyerAddress.Neighborhood }},
	{"municipality_code", ".//enderDest/cMun", func(o *types.Order) string { return o.BuyerAddress.MunicipalityCode }},
	{"city", ".//enderDest/xMun", func(o *types.Order) string { return o.BuyerAddress.City }},
	{"state", ".//enderDest/UF", func(o *types.Order) string { return o.BuyerAddress.State }},
	{"postal_code", ".//enderDest/CEP", func(o *types.Order) string { return o.BuyerAddress.PostalCode }},
	{"country_code", ".//enderDest/cPais", func(o *types.Order) string { return o.BuyerAddress.CountryCode }},
	{"country", ".//enderDest/xPais", func(o *types.Order) string { return o.BuyerAddress.Country }},
}

// Replacement overwrites the text of every element at Path with Value,
// whatever it held before. When Faker names a generator kind (see
// FakerKinds), a fresh fake value is drawn on every Apply instead.
type Replacement struct {
	Path  string
	Value string
	Faker string
}

// DefaultAnonymization is the built-in anonymization table.
var DefaultAnonymization = []Replacement{
	{Path: ".//emit/xNome", Value: "FAKECO"},
	{Path: ".//emit/xFant", Value: "FAKECO COMERCIO E DISTRIBUICAO DE ALIME"},
	{Path: ".//dest/xNome", Value: "FAKE TECNOLOGIA LTDA"},
	{Path: ".//infRespTec/xContato", Value: "João da Silva"},
	{Path: ".//dest/email", Value: "fake@credix.finance"},
	{Path: ".//infRespTec/email", Value: "tech_support@fakecompany.com"},
}

// TimestampPaths are refreshed with the current time: receipt, emission,
// exit/entry.
var TimestampPaths = []string{
	".//infProt/dhRecbto",
	".//ide/dhEmi",
	".//ide/dhSaiEnt",
}

// TotalPaths all receive the same installment sum: tax base, product total,
// invoice total, invoice origin value, invoice net value, payment value.
// Real invoices can have distinct values here; this generator always
// collapses them to one.
var TotalPaths = []string{
	".//ICMSTot/vBC",
	".//ICMSTot/vProd",
	".//ICMSTot/vNF",
	".//fat/vOrig",
	".//fat/vLiq",
	".//detPag/vPag",
}

// =============================================================================
// MUTATOR
// =============================================================================

// Mutator applies orders onto NF-e documents.
type Mutator struct {
	now       func() time.Time
	newUUID   func() (uuid.UUID, error)
	utcOffset string
	anonymize []Replacement
	fake      *fakeSource
	paths     map[string]etree.Path
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithClock replaces time.Now for the timestamp refresh.
func WithClock(now func() time.Time) Option {
	return func(m *Mutator) { m.now = now }
}

// WithUUIDSource replaces uuid.NewRandom for the document identifier.
func WithUUIDSource(newUUID func() (uuid.UUID, error)) Option {
	return func(m *Mutator) { m.newUUID = newUUID }
}

// WithUTCOffset sets the literal suffix appended to timestamps.
func WithUTCOffset(offset string) Option {
	return func(m *Mutator) { m.utcOffset = offset }
}

// WithFakerSeed seeds the generator behind faker-backed replacements. Zero
// picks a random seed.
func WithFakerSeed(seed uint64) Option {
	return func(m *Mutator) { m.fake = newFakeSource(seed) }
}

// WithAnonymization merges overrides into the anonymization table. An
// override for a path already in the table replaces its value in place;
// other paths are appended.
func WithAnonymization(overrides []Replacement) Option {
	return func(m *Mutator) {
		for _, o := range overrides {
			replaced := false
			for i := range m.anonymize {
				if m.anonymize[i].Path == o.Path {
					m.anonymize[i].Value = o.Value
					m.anonymize[i].Faker = o.Faker
					replaced = true
				}
			}
			if !replaced {
				m.anonymize = append(m.anonymize, o)
			}
		}
	}
}

// NewMutator builds a Mutator. It fails when a configured path does not
// compile.
func NewMutator(opts ...Option) (*Mutator, error) {
	m := &Mutator{
		now:       time.Now,
		newUUID:   uuid.NewRandom,
		utcOffset: "-03:00",
		anonymize: append([]Replacement(nil), DefaultAnonymization...),
		fake:      newFakeSource(0),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, r := range m.anonymize {
		if r.Faker == "" {
			continue
		}
		if _, ok := fakerFunctions[r.Faker]; !ok {
			return nil, fmt.Errorf("anonymization %s: unknown faker %q", r.Path, r.Faker)
		}
	}

	all := []string{cobrPath, infNFePath}
	for _, r := range FieldRules {
		all = append(all, r.Path)
	}
	for _, r := range m.anonymize {
		all = append(all, r.Path)
	}
	all = append(all, TimestampPaths...)
	all = append(all, TotalPaths...)

	m.paths = make(map[string]etree.Path, len(all))
	for _, p := range all {
		compiled, err := etree.CompilePath(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", p, err)
		}
		m.paths[p] = compiled
	}

	return m, nil
}

// Result summarizes one Apply call.
type Result struct {
	// DocumentID is the Id written on infNFe.
	DocumentID string

	// Total is the installment sum written to every TotalPaths element.
	Total decimal.Decimal

	// Installments is the number of dup entries written.
	Installments int

	// Timestamp is the text written to every TimestampPaths element.
	Timestamp string
}

// Apply runs the seven mutation steps on doc.
func (m *Mutator) Apply(doc *etree.Document, order *types.Order) (*Result, error) {
	result := &Result{}

	// Steps 1 and 2: the CNPJ cleaning happens inside the rule values.
	for _, rule := range FieldRules {
		if err := m.setText(doc, rule.Path, rule.Value(order)); err != nil {
			return nil, fmt.Errorf("field %s: %w", rule.Name, err)
		}
	}

	// Step 3.
	total, err := m.rebuildInstallments(doc, order.Installments)
	if err != nil {
		return nil, err
	}
	result.Total = total
	result.Installments = len(order.Installments)

	// Step 4.
	id, err := NewDocumentID(m.newUUID)
	if err != nil {
		return nil, err
	}
	infNFe, err := m.unique(doc, infNFePath)
	if err != nil {
		return nil, err
	}
	infNFe.CreateAttr(idAttribute, id)
	result.DocumentID = id

	// Step 5.
	for _, r := range m.anonymize {
		value := r.Value
		if r.Faker != "" {
			if value, err = m.fake.value(r.Faker); err != nil {
				return nil, fmt.Errorf("anonymization %s: %w", r.Path, err)
			}
		}
		for _, el := range doc.FindElementsPath(m.paths[r.Path]) {
			el.SetText(value)
		}
	}

	// Step 6.
	result.Timestamp = m.now().Format(timestampLayout) + m.utcOffset
	for _, p := range TimestampPaths {
		if err := m.setText(doc, p, result.Timestamp); err != nil {
			return nil, fmt.Errorf("timestamp: %w", err)
		}
	}

	// Step 7.
	totalText := FormatAmount(total)
	for _, p := range TotalPaths {
		if err := m.setText(doc, p, totalText); err != nil {
			return nil, fmt.Errorf("total: %w", err)
		}
	}

	return result, nil
}

// rebuildInstallments drops every dup under cobr and appends one per
// installment. It returns the sum of the cent-rounded amounts.
func (m *Mutator) rebuildInstallments(doc *etree.Document, installments []types.Installment) (decimal.Decimal, error) {
	cobr, err := m.unique(doc, cobrPath)
	if err != nil {
		return decimal.Zero, fmt.Errorf("installments: %w", err)
	}

	for _, dup := range cobr.SelectElements(dupTag) {
		cobr.RemoveChild(dup)
	}

	total := decimal.Zero
	for i, inst := range installments {
		amount := RoundCents(inst.Amount)
		total = total.Add(amount)

		dup := cobr.CreateElement(dupTag)
		dup.CreateElement("nDup").SetText(fmt.Sprintf("%03d", i+1))
		dup.CreateElement("dVenc").SetText(inst.DueDate.Format(types.DateLayout))
		dup.CreateElement("vDup").SetText(FormatAmount(amount))
	}

	return total, nil
}

// setText overwrites the text of the unique element at path.
func (m *Mutator) setText(doc *etree.Document, path, value string) error {
	el, err := m.unique(doc, path)
	if err != nil {
		return err
	}
	el.SetText(value)
	return nil
}

func (m *Mutator) unique(doc *etree.Document, path string) (*etree.Element, error) {
	found := doc.FindElementsPath(m.paths[path])
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s (%d matches)", ErrAmbiguousPath, path, len(found))
	}
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

var cnpjSeparators = strings.NewReplacer(".", "", "/", "", "-", "")

// CleanCNPJ removes the ".", "/" and "-" separators and keeps everything
// else, digits or not.
func CleanCNPJ(cnpj string) string {
	return cnpjSeparators.Replace(cnpj)
}

// RoundCents rounds to two decimal places, halves away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
