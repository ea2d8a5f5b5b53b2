// =============================================================================
// Nota Fiscal Generator - XLSX Installment Parser
// =============================================================================
//
// This module reads installments from an XLSX workbook, for users who keep
// their payment schedule in a spreadsheet.
//
// SHEET STRUCTURE (Expected Columns):
//   The first non-empty row is the header. Columns are located by name, so
//   their position does not matter.
//
//   | amount  | due_date   | (anything else is ignored) |
//   |---------|------------|----------------------------|
//   | 100.00  | 2024-01-08 |                            |
//   | 50.505  | 2024-01-15 |                            |
//
// DATE CELLS:
//   Due dates may be typed as text (YYYY-MM-DD) or be real date cells; raw
//   cell values are read so date cells arrive as Excel serial numbers and are
//   converted.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Parse reads installments from the workbook at path.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - settings: Sheet name and column names.
//
// RETURNS:
//   - The installments in row order.
//   - An error if the workbook cannot be read or a row is invalid.
func Parse(path string, settings config.XLSXSettings) ([]types.Installment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := settings.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	headerIdx := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	amountCol, dueCol, err := locateColumns(rows[headerIdx], settings.AmountColumn, settings.DueDateColumn)
	if err != nil {
		return nil, err
	}

	var installments []types.Installment
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		inst, err := parseRow(row, amountCol, dueCol)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		installments = append(installments, inst)
	}

	return installments, nil
}

// locateColumns finds the amount and due date columns in the header row.
func locateColumns(header []string, amountColumn, dueDateColumn string) (int, int, error) {
	amountCol, dueCol := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case strings.EqualFold(h, amountColumn):
			amountCol = i
		case strings.EqualFold(h, dueDateColumn):
			dueCol = i
		}
	}
	if amountCol < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, amountColumn)
	}
	if dueCol < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, dueDateColumn)
	}
	return amountCol, dueCol, nil
}

// parseRow extracts an installment from a single row.
func parseRow(row []string, amountCol, dueCol int) (types.Installment, error) {
	// Helper function to safely get a cell value.
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	amount, err := types.ParseAmount(cell(amountCol))
	if err != nil {
		return types.Installment{}, err
	}

	due, err := parseDate(cell(dueCol))
	if err != nil {
		return types.Installment{}, err
	}

	return types.Installment{Amount: amount, DueDate: due}, nil
}

// parseDate accepts YYYY-MM-DD text or an Excel serial date.
func parseDate(value string) (time.Time, error) {
	if t, err := types.ParseDueDate(value); err == nil {
		return t, nil
	}

	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", value)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: %w", value, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
