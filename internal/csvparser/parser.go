// =============================================================================
// Nota Fiscal Generator - CSV Installment Parser
// =============================================================================
//
// This module reads installments from a CSV file. The file needs a header
// row; the amount and due date columns are located by name (configurable,
// case-insensitive), other columns are ignored.
//
// EXAMPLE:
//   amount,due_date
//   100.00,2024-01-08
//   50.505,2024-01-15
//
// Rows are kept in file order; that order becomes the nDup numbering.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads installments from the CSV file at filePath.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and column names.
//
// RETURNS:
//   - The installments in file order.
//   - An error if the file cannot be read or a row is invalid.
func Parse(filePath string, settings config.CSVSettings) ([]types.Installment, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(bufio.NewReader(file), settings)
}

// ParseReader reads installments from any CSV stream.
func ParseReader(r io.Reader, settings config.CSVSettings) ([]types.Installment, error) {
	reader := csv.NewReader(r)
	configureReader(reader, settings)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	amountIdx, dueIdx, err := locateColumns(header, settings.AmountColumn, settings.DueDateColumn)
	if err != nil {
		return nil, err
	}

	var installments []types.Installment
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isRowEmpty(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		inst, err := parseRecord(record, amountIdx, dueIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		installments = append(installments, inst)
	}

	return installments, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// locateColumns finds the amount and due date columns in the header row.
func locateColumns(header []string, amountColumn, dueDateColumn string) (int, int, error) {
	amountIdx, dueIdx := -1, -1
	for i, h := range header {
		h = normalizeHeader(h)
		switch {
		case strings.EqualFold(h, amountColumn):
			amountIdx = i
		case strings.EqualFold(h, dueDateColumn):
			dueIdx = i
		}
	}
	if amountIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, amountColumn)
	}
	if dueIdx < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, dueDateColumn)
	}
	return amountIdx, dueIdx, nil
}

// normalizeHeader trims whitespace and a UTF-8 byte order mark, which
// spreadsheet exports like to add.
func normalizeHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func parseRecord(record []string, amountIdx, dueIdx int) (types.Installment, error) {
	if amountIdx >= len(record) || dueIdx >= len(record) {
		return types.Installment{}, fmt.Errorf("row has %d columns", len(record))
	}
	return types.ParseInstallment(record[amountIdx], record[dueIdx])
}

// isRowEmpty checks if all fields in a row are empty.
func isRowEmpty(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
