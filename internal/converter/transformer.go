// =============================================================================
// Nota Fiscal Generator - Transformation Engine
// =============================================================================
//
// This module rewrites the free-text order fields before validation, using
// the "normalize" rules from config.yaml. With no rules every value is
// written into the document exactly as entered.
//
// TRANSFORMATION TYPES:
//   - String manipulations (prepend, append, trim, case conversion)
//   - Replacements (plain and regular expression)
//   - Padding and digit extraction
//   - Defaults for empty values
//
// FIELD NAMES:
//   seller_cnpj, buyer_cnpj, street, number, neighborhood, municipality_code,
//   city, state, postal_code, country_code, country
//
// EXAMPLE (config.yaml):
//   normalize:
//     - field: state
//       actions:
//         - type: trim
//         - type: uppercase
//     - field: postal_code
//       actions:
//         - type: extract_digits
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

var (
	digitsPattern     = regexp.MustCompile(`\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer handles order field transformations.
type Transformer struct {
	rules map[string][]compiledAction
}

// compiledAction is a NormalizeAction with its regex compiled once.
type compiledAction struct {
	config.NormalizeAction
	re *regexp.Regexp
}

// NewTransformer creates a Transformer from the configured rules.
//
// RETURNS:
//   - The Transformer.
//   - An error naming the first unknown field, unknown action type, or
//     invalid regex.
func NewTransformer(rules []config.NormalizeRule) (*Transformer, error) {
	known := orderFields(&types.Order{})
	t := &Transformer{rules: make(map[string][]compiledAction)}

	for _, rule := range rules {
		if _, ok := known[rule.Field]; !ok {
			return nil, fmt.Errorf("normalize: unknown field '%s'", rule.Field)
		}
		for _, action := range rule.Actions {
			ca := compiledAction{NormalizeAction: action}
			switch action.Type {
			case "prepend_string", "append_string", "trim", "uppercase", "lowercase",
				"replace", "pad_zeros_to_length", "extract_digits",
				"normalize_whitespace", "if_empty_use_default":
			case "regex_replace":
				re, err := regexp.Compile(action.Find)
				if err != nil {
					return nil, fmt.Errorf("normalize %s: invalid regex pattern: %w", rule.Field, err)
				}
				ca.re = re
			default:
				return nil, fmt.Errorf("normalize %s: unknown transformation type: %s", rule.Field, action.Type)
			}
			t.rules[rule.Field] = append(t.rules[rule.Field], ca)
		}
	}

	return t, nil
}

// orderFields maps rule field names to the order fields they rewrite.
func orderFields(order *types.Order) map[string]*string {
	return map[string]*string{
		"seller_cnpj":       &order.SellerCNPJ,
		"buyer_cnpj":        &order.BuyerCNPJ,
		"street":            &order.BuyerAddress.Street,
		"number":            &order.BuyerAddress.Number,
		"neighborhood":      &order.BuyerAddress.Neighborhood,
		"municipality_code": &order.BuyerAddress.MunicipalityCode,
		"city":              &order.BuyerAddress.City,
		"state":             &order.BuyerAddress.State,
		"postal_code":       &order.BuyerAddress.PostalCode,
		"country_code":      &order.BuyerAddress.CountryCode,
		"country":           &order.BuyerAddress.Country,
	}
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

// TransformOrder returns a copy of order with every rule applied.
// The input order is never modified.
func (t *Transformer) TransformOrder(order *types.Order) *types.Order {
	if order == nil || len(t.rules) == 0 {
		return order
	}

	out := *order
	for field, target := range orderFields(&out) {
		*target = t.Transform(field, *target)
	}
	return &out
}

// Transform applies the rules of one field to a value.
func (t *Transformer) Transform(field, value string) string {
	for _, action := range t.rules[field] {
		value = applyTransformation(value, action)
	}
	return value
}

// applyTransformation applies a single transformation action.
func applyTransformation(value string, action compiledAction) string {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value

	case "append_string":
		return value + action.Value

	case "trim":
		if action.Value != "" {
			return strings.Trim(value, action.Value)
		}
		return strings.TrimSpace(value)

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "normalize_whitespace":
		// "RUA  DAS   FLORES " -> "RUA DAS FLORES"
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " "))

	// =========================================================================
	// REPLACEMENTS
	// =========================================================================

	case "replace":
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)

	case "regex_replace":
		return action.re.ReplaceAllString(value, action.Value)

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// "4534000" with value "8" -> "04534000"
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value
		}
		return PadLeft(value, targetLength, '0')

	case "extract_digits":
		// "04534-000" -> "04534000"
		return strings.Join(digitsPattern.FindAllString(value, -1), "")

	// =========================================================================
	// DEFAULTS
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value
		}
		return value
	}

	return value
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target length.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
