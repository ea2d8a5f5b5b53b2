// =============================================================================
// Nota Fiscal Generator - Converter Module
// =============================================================================
//
// This module contains the generation pipeline. It runs one "generate"
// action from a collected order to a file on disk.
//
// GENERATION PIPELINE:
//   1. Normalize and validate the order
//   2. Parse a fresh copy of the template (namespaces stripped)
//   3. Apply the order onto the document
//   4. Write the output file
//
// CONCURRENCY:
//   A Converter holds no per-run state: the template is kept as bytes and
//   parsed per run, so one Converter can serve concurrent HTTP requests.
//
// =============================================================================

package converter

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/nfe"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/validation"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/xmlwriter"
	"github.com/ginjaninja78/nota-fiscal-generator/templates"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one generation.
type Result struct {
	// OutputFile is the path to the generated XML file.
	OutputFile string

	// DocumentID is the Id written on infNFe.
	DocumentID string

	// Total is the value written to every total field.
	Total decimal.Decimal

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Installments is the number of dup entries written.
	Installments int

	// ProcessingTime is the time taken to generate the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter turns orders into NF-e files.
type Converter struct {
	template    *nfe.Template
	mutator     *nfe.Mutator
	emitter     *xmlwriter.Emitter
	transformer *Transformer
	validator   *validation.Validator
	logger      *zap.Logger
}

// New creates a Converter with explicit collaborators.
func New(template *nfe.Template, mutator *nfe.Mutator, emitter *xmlwriter.Emitter, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		template:    template,
		mutator:     mutator,
		emitter:     emitter,
		transformer: &Transformer{},
		validator:   validation.NewValidator(),
		logger:      logger,
	}
}

// NewFromConfig wires a Converter from the main configuration.
//
// PARAMETERS:
//   - cfg: The main configuration.
//   - logger: The logger used for pipeline events.
//   - opts: Extra mutator options (tests pin the clock and UUID source).
func NewFromConfig(cfg *config.MainConfig, logger *zap.Logger, opts ...nfe.Option) (*Converter, error) {
	template, err := loadTemplate(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}

	transformer, err := NewTransformer(cfg.Normalize)
	if err != nil {
		return nil, err
	}

	overrides := make([]nfe.Replacement, 0, len(cfg.Anonymization))
	for _, r := range cfg.Anonymization {
		overrides = append(overrides, nfe.Replacement{Path: r.Path, Value: r.Value, Faker: r.Faker})
	}

	mutatorOpts := append([]nfe.Option{
		nfe.WithUTCOffset(cfg.UTCOffset),
		nfe.WithAnonymization(overrides),
		nfe.WithFakerSeed(cfg.FakerSeed),
	}, opts...)
	mutator, err := nfe.NewMutator(mutatorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mutator: %w", err)
	}

	emitter := xmlwriter.NewEmitter(xmlwriter.Options{
		OutputDir:  cfg.OutputDir,
		FilePrefix: cfg.FilePrefix,
		Indent:     cfg.Indent,
	})

	c := New(template, mutator, emitter, logger)
	c.transformer = transformer
	return c, nil
}

// loadTemplate reads the configured template or falls back to the embedded one.
func loadTemplate(path string) (*nfe.Template, error) {
	if path == "" {
		return nfe.NewTemplate(templates.DefaultNFeName, templates.DefaultNFe)
	}
	return nfe.LoadTemplate(path)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the generation pipeline for one order.
//
// RETURNS:
//   - A Result describing the generated file.
//   - An error if any step fails; no file is written in that case.
func (c *Converter) Run(order *types.Order) (*Result, error) {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: NORMALIZE AND VALIDATE ORDER
	// =========================================================================

	order = c.transformer.TransformOrder(order)
	if err := c.validator.Validate(order); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: LOAD TEMPLATE
	// =========================================================================

	doc, err := c.template.Document()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("parsed template", zap.String("template", c.template.Name()))

	// =========================================================================
	// STEP 3: MUTATE DOCUMENT
	// =========================================================================

	applied, err := c.mutator.Apply(doc, order)
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}
	c.logger.Debug("applied order",
		zap.String("document_id", applied.DocumentID),
		zap.Int("installments", applied.Installments),
		zap.String("total", nfe.FormatAmount(applied.Total)),
	)

	// =========================================================================
	// STEP 4: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.emitter.Emit(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}

	result := &Result{
		OutputFile: outputPath,
		DocumentID: applied.DocumentID,
		Total:      applied.Total,
		Stats: ProcessingStats{
			Installments:   applied.Installments,
			ProcessingTime: time.Since(startTime),
		},
	}

	c.logger.Info("nota fiscal generated",
		zap.String("file", result.OutputFile),
		zap.String("document_id", result.DocumentID),
		zap.String("total", nfe.FormatAmount(result.Total)),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)

	return result, nil
}
