// =============================================================================
// Nota Fiscal Generator - XML Writer Module
// =============================================================================
//
// This module serializes a mutated NF-e document and writes it to a new file
// in the output directory.
//
// OUTPUT:
//   <?xml version="1.0" encoding="UTF-8"?>
//   <nfeProc versao="4.00">
//     ...
//   </nfeProc>
//
// WRITE STRATEGY:
//   The bytes go to a hidden temporary file in the output directory which is
//   renamed to the final name only once everything was written. A failed
//   write removes the temporary file, so no partial document is ever left
//   under the final name.
//
// =============================================================================

package xmlwriter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/nota-fiscal-generator/pkg/utils"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for XML emission.
type Options struct {
	// OutputDir is where files are written.
	OutputDir string

	// FilePrefix is the file name prefix.
	// Default: "generated_nota_fiscal"
	FilePrefix string

	// Indent re-indents the document with this many spaces. 0 keeps the
	// template whitespace as it is.
	Indent int

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the declaration.
	// Default: "UTF-8"
	Encoding string

	// NewSuffix draws the numeric file name suffix.
	// Default: utils.NewFileSuffix
	NewSuffix func() (uint64, error)
}

// DefaultOptions returns the default emission options.
func DefaultOptions() Options {
	return Options{
		OutputDir:  ".",
		FilePrefix: "generated_nota_fiscal",
		XMLVersion: "1.0",
		Encoding:   "UTF-8",
		NewSuffix:  utils.NewFileSuffix,
	}
}

// =============================================================================
// EMITTER
// =============================================================================

// Emitter writes documents to uniquely named files.
type Emitter struct {
	options Options
}

// NewEmitter creates an Emitter, filling unset options with defaults.
func NewEmitter(options Options) *Emitter {
	defaults := DefaultOptions()
	if options.OutputDir == "" {
		options.OutputDir = defaults.OutputDir
	}
	if options.FilePrefix == "" {
		options.FilePrefix = defaults.FilePrefix
	}
	if options.XMLVersion == "" {
		options.XMLVersion = defaults.XMLVersion
	}
	if options.Encoding == "" {
		options.Encoding = defaults.Encoding
	}
	if options.NewSuffix == nil {
		options.NewSuffix = defaults.NewSuffix
	}
	return &Emitter{options: options}
}

// Render serializes doc with a fresh XML declaration.
//
// Any declaration carried over from the template is replaced.
func (e *Emitter) Render(doc *etree.Document) ([]byte, error) {
	for i := len(doc.Child) - 1; i >= 0; i-- {
		if pi, ok := doc.Child[i].(*etree.ProcInst); ok && pi.Target == "xml" {
			doc.RemoveChildAt(i)
		}
	}

	decl := doc.CreateProcInst("xml",
		fmt.Sprintf(`version="%s" encoding="%s"`, e.options.XMLVersion, e.options.Encoding))
	doc.RemoveChildAt(decl.Index())
	doc.InsertChildAt(0, decl)

	if e.options.Indent > 0 {
		doc.Indent(e.options.Indent)
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize XML: %w", err)
	}
	return data, nil
}

// Emit renders doc and writes it to a new file.
//
// RETURNS:
//   - The path of the written file.
//   - An error if rendering or writing fails. No file is left behind then.
func (e *Emitter) Emit(doc *etree.Document) (string, error) {
	data, err := e.Render(doc)
	if err != nil {
		return "", err
	}

	suffix, err := e.options.NewSuffix()
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(e.options.OutputDir, utils.OutputFileName(e.options.FilePrefix, suffix))
	if err := writeFileAtomic(outputPath, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	return outputPath, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".nfe-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
