// =============================================================================
// Nota Fiscal Generator - Shared Types
// =============================================================================
//
// This package contains the order types shared by the input sources (form,
// YAML, CSV, XLSX), validation, and the document mutator. Keeping them here
// avoids import cycles between:
//   - form
//   - csvparser / xlsxparser
//   - validation
//   - nfe
//   - converter
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout used for due dates everywhere (dVenc, inputs).
const DateLayout = "2006-01-02"

// =============================================================================
// ORDER TYPES
// =============================================================================

// Order is everything a single "generate" action needs from the user.
type Order struct {
	// SellerCNPJ is the issuer tax ID, punctuation allowed.
	SellerCNPJ string `validate:"required"`

	// BuyerCNPJ is the recipient tax ID, punctuation allowed.
	BuyerCNPJ string `validate:"required"`

	// BuyerAddress is written into the enderDest block.
	BuyerAddress Address

	// Installments replace the dup entries of the template, in this order.
	// An empty list is valid and yields zero totals.
	Installments []Installment
}

// Address is the buyer address. Each field maps to one element under enderDest.
type Address struct {
	Street           string `yaml:"street" validate:"required"`
	Number           string `yaml:"number" validate:"required"`
	Neighborhood     string `yaml:"neighborhood" validate:"required"`
	MunicipalityCode string `yaml:"municipality_code" validate:"required"`
	City             string `yaml:"city" validate:"required"`
	State            string `yaml:"state" validate:"required"`
	PostalCode       string `yaml:"postal_code" validate:"required"`
	CountryCode      string `yaml:"country_code" validate:"required"`
	Country          string `yaml:"country" validate:"required"`
}

// Installment is one scheduled partial payment (a duplicata).
type Installment struct {
	// Amount must be >= 0. It is rounded to cents when the document is built.
	Amount decimal.Decimal

	// DueDate only uses the calendar date part.
	DueDate time.Time
}
