package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMainConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "generated_nota_fiscal", cfg.FilePrefix)
	assert.Equal(t, "-03:00", cfg.UTCOffset)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.Equal(t, "amount", cfg.XLSX.AmountColumn)
	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.True(t, cfg.KeepFiles())
	assert.Empty(t, cfg.TemplatePath)
}

func TestLoadMainConfig_Overrides(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, `
output_dir: `+out+`
file_prefix: nf
keep_output: false
output_retention: 72h
indent: 2
utc_offset: "+01:00"
csv:
  delimiter: ";"
  amount_column: valor
anonymization:
  - path: .//emit/xNome
    value: ACME
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "nf", cfg.FilePrefix)
	assert.False(t, cfg.KeepFiles())
	assert.Equal(t, 2, cfg.Indent)
	assert.Equal(t, "+01:00", cfg.UTCOffset)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.Equal(t, "valor", cfg.CSV.AmountColumn)
	assert.Equal(t, "valor", cfg.XLSX.AmountColumn)
	assert.Equal(t, "due_date", cfg.CSV.DueDateColumn)
	require.Len(t, cfg.Anonymization, 1)
	assert.Equal(t, "ACME", cfg.Anonymization[0].Value)

	retention, err := cfg.Retention()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, retention)

	assert.DirExists(t, out)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "output_dir: [\n"},
		{name: "bad offset", body: "utc_offset: BRT\n"},
		{name: "negative indent", body: "indent: -1\n"},
		{name: "long delimiter", body: "csv:\n  delimiter: ';;'\n"},
		{name: "value and faker", body: "anonymization:\n  - path: .//emit/xNome\n    value: A\n    faker: company\n"},
		{name: "bad retention", body: "output_retention: soon\n"},
		{name: "missing template", body: "template_path: /does/not/exist.xml\n"},
		{name: "anonymization without path", body: "anonymization:\n  - value: X\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
