// =============================================================================
// Nota Fiscal Generator - Validation Module
// =============================================================================
//
// This module checks an order before it reaches the document mutator. The
// checks are deliberately shallow:
//
//   - Tax IDs and the nine address fields must be present
//   - Installment amounts must not be negative
//   - Installment due dates must be set
//
// CNPJ length and check digits are NOT validated; whatever remains after the
// separators are removed goes into the document as-is.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// FieldError describes one rejected field.
type FieldError struct {
	// Field is the dotted field name, e.g. "BuyerAddress.City" or
	// "Installments[2].Amount".
	Field string `json:"field"`

	// Message is a human readable reason.
	Message string `json:"message"`
}

// Errors is the list of every problem found in an order.
type Errors []FieldError

// Error implements the error interface.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid order: " + strings.Join(parts, "; ")
}

// Fields lists the rejected field names.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, fe := range e {
		fields = append(fields, fe.Field)
	}
	return fields
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator wraps a go-playground validator configured for orders.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns nil or an Errors value.
func (v *Validator) Validate(order *types.Order) error {
	if order == nil {
		return Errors{{Field: "Order", Message: "is required"}}
	}

	var errs Errors

	if err := v.validate.Struct(order); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate order: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   strings.TrimPrefix(fe.Namespace(), "Order."),
				Message: describe(fe),
			})
		}
	}

	for i, inst := range order.Installments {
		if inst.Amount.IsNegative() {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("Installments[%d].Amount", i),
				Message: "must not be negative",
			})
		}
		if inst.DueDate.IsZero() {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("Installments[%d].DueDate", i),
				Message: "is required",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// describe turns a validator tag failure into a short message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
