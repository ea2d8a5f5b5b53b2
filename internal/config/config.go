// =============================================================================
// Nota Fiscal Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading the main application configuration
// (config.yaml). Every setting has a default, so the generator also runs with
// no configuration file at all.
//
// CONFIGURATION SECTIONS:
//   1. Template and output settings
//   2. Document settings (indentation, timestamp offset, anonymization)
//   3. Input settings (CSV / XLSX installment sources)
//   4. Logging and HTTP server settings
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// TEMPLATE AND OUTPUT SETTINGS
	// =========================================================================

	// TemplatePath is the NF-e XML template to mutate.
	// Empty means the template embedded in the binary.
	TemplatePath string `yaml:"template_path"`

	// OutputDir is the directory where generated XML files are placed.
	// Default: "."
	OutputDir string `yaml:"output_dir"`

	// FilePrefix is the output file name prefix. The file is named
	// "<prefix>_<random 64-bit number>.xml".
	// Default: "generated_nota_fiscal"
	FilePrefix string `yaml:"file_prefix"`

	// KeepOutput keeps generated files on disk after they were downloaded
	// through the HTTP server. The CLI always keeps them.
	// Default: true
	KeepOutput *bool `yaml:"keep_output"`

	// OutputRetention removes generated files older than this duration when
	// the HTTP server starts. Empty or "0" disables the sweep.
	// Example: "72h"
	OutputRetention string `yaml:"output_retention"`

	// =========================================================================
	// DOCUMENT SETTINGS
	// =========================================================================

	// Indent re-indents the whole output document with this many spaces.
	// 0 leaves the template whitespace untouched.
	Indent int `yaml:"indent"`

	// UTCOffset is appended verbatim to every refreshed timestamp.
	// Default: "-03:00"
	UTCOffset string `yaml:"utc_offset"`

	// Anonymization overrides the built-in anonymization table.
	// Entries with a path already in the table replace its value; new paths
	// are appended.
	Anonymization []Replacement `yaml:"anonymization"`

	// FakerSeed seeds the generator behind faker-backed anonymization
	// entries. Zero draws a random seed per process.
	FakerSeed uint64 `yaml:"faker_seed"`

	// Normalize rewrites order fields before validation.
	// Empty means values are written exactly as entered.
	Normalize []NormalizeRule `yaml:"normalize"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CSV controls how installment CSV files are read.
	CSV CSVSettings `yaml:"csv"`

	// XLSX controls how installment workbooks are read.
	XLSX XLSXSettings `yaml:"xlsx"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// LogOutput is "stdout", "stderr" or a file path.
	// Default: "stderr"
	LogOutput string `yaml:"log_output"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	Server ServerSettings `yaml:"server"`
}

// Replacement assigns a fixed text to every element matching Path, or a
// generated one when Faker names a kind such as "name", "email" or "company".
type Replacement struct {
	Path  string `yaml:"path"`
	Value string `yaml:"value"`
	Faker string `yaml:"faker"`
}

// NormalizeRule lists the actions applied, in order, to one order field.
type NormalizeRule struct {
	Field   string            `yaml:"field"`
	Actions []NormalizeAction `yaml:"actions"`
}

// NormalizeAction is one transformation step.
type NormalizeAction struct {
	// Type is the transformation type, e.g. "trim" or "regex_replace".
	Type string `yaml:"type"`

	// Value is the argument of the action (text to add, target length,
	// replacement text or default value).
	Value string `yaml:"value"`

	// Find is the text or pattern searched by "replace" and "regex_replace".
	Find string `yaml:"find"`
}

// CSVSettings contains settings for parsing installment CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// AmountColumn is the header of the amount column.
	// Default: "amount"
	AmountColumn string `yaml:"amount_column"`

	// DueDateColumn is the header of the due date column (YYYY-MM-DD).
	// Default: "due_date"
	DueDateColumn string `yaml:"due_date_column"`
}

// XLSXSettings contains settings for parsing installment workbooks.
type XLSXSettings struct {
	// Sheet is the sheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// AmountColumn and DueDateColumn default to the CSV column names.
	AmountColumn  string `yaml:"amount_column"`
	DueDateColumn string `yaml:"due_date_column"`
}

// ServerSettings configures the HTTP form server.
type ServerSettings struct {
	// Addr is the listen address.
	// Default: ":8501"
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: "10s"
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

var offsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or is invalid.
//
// A missing file is not an error: the defaults are returned.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.FilePrefix == "" {
		config.FilePrefix = "generated_nota_fiscal"
	}
	if config.KeepOutput == nil {
		keep := true
		config.KeepOutput = &keep
	}
	if config.UTCOffset == "" {
		config.UTCOffset = "-03:00"
	}
	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
	if config.CSV.AmountColumn == "" {
		config.CSV.AmountColumn = "amount"
	}
	if config.CSV.DueDateColumn == "" {
		config.CSV.DueDateColumn = "due_date"
	}
	if config.XLSX.AmountColumn == "" {
		config.XLSX.AmountColumn = config.CSV.AmountColumn
	}
	if config.XLSX.DueDateColumn == "" {
		config.XLSX.DueDateColumn = config.CSV.DueDateColumn
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.LogOutput == "" {
		config.LogOutput = "stderr"
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8501"
	}
	if config.Server.ShutdownTimeout == "" {
		config.Server.ShutdownTimeout = "10s"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.TemplatePath != "" {
		if _, err := os.Stat(config.TemplatePath); err != nil {
			return fmt.Errorf("template_path: %w", err)
		}
	}

	if config.Indent < 0 {
		return fmt.Errorf("indent must not be negative, got %d", config.Indent)
	}

	if !offsetPattern.MatchString(config.UTCOffset) {
		return fmt.Errorf("utc_offset must look like -03:00, got %q", config.UTCOffset)
	}

	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", config.CSV.Delimiter)
	}

	if _, err := config.Retention(); err != nil {
		return err
	}
	if _, err := config.ShutdownTimeout(); err != nil {
		return err
	}

	for i, r := range config.Anonymization {
		if r.Path == "" {
			return fmt.Errorf("anonymization[%d]: path is required", i)
		}
		if r.Value != "" && r.Faker != "" {
			return fmt.Errorf("anonymization[%d]: value and faker are mutually exclusive", i)
		}
	}

	for i, r := range config.Normalize {
		if r.Field == "" {
			return fmt.Errorf("normalize[%d]: field is required", i)
		}
		for j, a := range r.Actions {
			if a.Type == "" {
				return fmt.Errorf("normalize[%d].actions[%d]: type is required", i, j)
			}
		}
	}

	// The output directory is created on demand.
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", config.OutputDir, err)
	}

	return nil
}

// Retention parses OutputRetention. Zero disables the sweep.
func (c *MainConfig) Retention() (time.Duration, error) {
	if c.OutputRetention == "" || c.OutputRetention == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.OutputRetention)
	if err != nil {
		return 0, fmt.Errorf("output_retention: %w", err)
	}
	return d, nil
}

// ShutdownTimeout parses Server.ShutdownTimeout.
func (c *MainConfig) ShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return d, nil
}

// KeepFiles reports whether generated files stay on disk after download.
func (c *MainConfig) KeepFiles() bool {
	return c.KeepOutput == nil || *c.KeepOutput
}
