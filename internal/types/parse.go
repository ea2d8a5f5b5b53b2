package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned for installment amounts below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ParseAmount reads a currency amount. A lone comma is accepted as the
// decimal separator ("50,50").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, s)
	}
	return d, nil
}

// ParseDueDate reads a YYYY-MM-DD date.
func ParseDueDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: %w", s, err)
	}
	return t, nil
}

// ParseInstallment combines ParseAmount and ParseDueDate.
func ParseInstallment(amount, dueDate string) (Installment, error) {
	a, err := ParseAmount(amount)
	if err != nil {
		return Installment{}, err
	}
	d, err := ParseDueDate(dueDate)
	if err != nil {
		return Installment{}, err
	}
	return Installment{Amount: a, DueDate: d}, nil
}
