package xmlwriter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version='1.0' encoding='utf-8'?>
<nfeProc versao="4.00"><NFe><infNFe Id="NFe1"><emit><xNome>João</xNome></emit></infNFe></NFe></nfeProc>`

func sampleDoc(t *testing.T) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(sample))
	return doc
}

func fixedSuffix(n uint64) func() (uint64, error) {
	return func() (uint64, error) { return n, nil }
}

func TestEmit_WritesDeclaredFile(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(Options{OutputDir: dir, NewSuffix: fixedSuffix(7)})

	path, err := e.Emit(sampleDoc(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated_nota_fiscal_7.xml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`), out)
	assert.Equal(t, 1, strings.Count(out, "<?xml"))
	assert.Contains(t, out, "<xNome>João</xNome>")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestEmit_AddsDeclarationWhenMissing(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<nfeProc/>`))

	data, err := NewEmitter(Options{}).Render(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))
}

func TestEmit_Indent(t *testing.T) {
	e := NewEmitter(Options{Indent: 2})

	data, err := e.Render(sampleDoc(t))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  <NFe>\n")
}

func TestEmit_FailureLeavesNoFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	e := NewEmitter(Options{OutputDir: dir, NewSuffix: fixedSuffix(1)})

	_, err := e.Emit(sampleDoc(t))
	require.Error(t, err)
	assert.NoDirExists(t, dir)
}

func TestEmit_SuffixFailure(t *testing.T) {
	dir := t.TempDir()
	e := NewEmitter(Options{OutputDir: dir, NewSuffix: func() (uint64, error) {
		return 0, assert.AnError
	}})

	_, err := e.Emit(sampleDoc(t))
	assert.ErrorIs(t, err, assert.AnError)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
