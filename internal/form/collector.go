// Package form collects an order interactively, one prompt per field,
// pre-filled with the defaults the generator has always offered.
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

const (
	DefaultSellerCNPJ = "30.792.427/0001-30"
	DefaultBuyerCNPJ  = "30.998.254/0033-99"

	// DefaultAmount pre-fills every installment amount.
	DefaultAmount = "100.00"
)

// DefaultAddress is the buyer address offered when nothing else is given.
var DefaultAddress = types.Address{
	Street:           "JOAQUIM FLORIANO 100",
	Number:           "100",
	Neighborhood:     "CENTRO",
	MunicipalityCode: "3550308",
	City:             "SAO PAULO",
	State:            "SP",
	PostalCode:       "04534000",
	CountryCode:      "1058",
	Country:          "BRASIL",
}

// DefaultDueDate is the suggested due date of installment i (0-based):
// one week from now, then weekly.
func DefaultDueDate(now time.Time, i int) time.Time {
	d := now.AddDate(0, 0, 7*(i+1))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// DefaultInstallments returns n installments with the default amount and
// due dates. A non-positive n gives an empty list.
func DefaultInstallments(now time.Time, n int) []types.Installment {
	if n < 0 {
		n = 0
	}
	out := make([]types.Installment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.Installment{
			Amount:  decimal.RequireFromString(DefaultAmount),
			DueDate: DefaultDueDate(now, i),
		})
	}
	return out
}

// Collector asks for every order field through a PromptDriver.
type Collector struct {
	driver PromptDriver
	now    func() time.Time
}

// NewCollector creates a Collector. A nil driver means the terminal.
func NewCollector(driver PromptDriver) *Collector {
	if driver == nil {
		driver = NewSurveyDriver()
	}
	return &Collector{driver: driver, now: time.Now}
}

// WithClock replaces the clock used for default due dates.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

type addressPrompt struct {
	label  string
	target *string
	def    string
}

// Collect runs the prompts and returns the order.
//
// Installments given in preset skip the installment prompts; everything else
// is always asked. A declined final confirmation returns ErrAborted.
func (c *Collector) Collect(ctx context.Context, preset []types.Installment) (*types.Order, error) {
	order := &types.Order{}
	var err error

	if order.SellerCNPJ, err = c.text(ctx, "Seller CNPJ", DefaultSellerCNPJ); err != nil {
		return nil, err
	}
	if order.BuyerCNPJ, err = c.text(ctx, "Buyer CNPJ", DefaultBuyerCNPJ); err != nil {
		return nil, err
	}

	a := &order.BuyerAddress
	prompts := []addressPrompt{
		{"Street", &a.Street, DefaultAddress.Street},
		{"Number", &a.Number, DefaultAddress.Number},
		{"Neighborhood", &a.Neighborhood, DefaultAddress.Neighborhood},
		{"Municipality", &a.MunicipalityCode, DefaultAddress.MunicipalityCode},
		{"City", &a.City, DefaultAddress.City},
		{"State", &a.State, DefaultAddress.State},
		{"CEP", &a.PostalCode, DefaultAddress.PostalCode},
		{"Country Code", &a.CountryCode, DefaultAddress.CountryCode},
		{"Country", &a.Country, DefaultAddress.Country},
	}
	for _, p := range prompts {
		if *p.target, err = c.text(ctx, p.label, p.def); err != nil {
			return nil, err
		}
	}

	if preset != nil {
		order.Installments = preset
		_ = c.driver.Info(ctx, fmt.Sprintf("Using %d installment(s) from file", len(preset)))
	} else if order.Installments, err = c.installments(ctx); err != nil {
		return nil, err
	}

	ok, err := c.driver.Confirm(ctx, ConfirmConfig{Message: "Generate Nota Fiscal?", Default: true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAborted
	}
	return order, nil
}

func (c *Collector) text(ctx context.Context, label, def string) (string, error) {
	return c.driver.Input(ctx, InputConfig{
		Message:   label,
		Default:   def,
		Validator: required,
	})
}

func (c *Collector) installments(ctx context.Context) ([]types.Installment, error) {
	raw, err := c.driver.Input(ctx, InputConfig{
		Message:   "Number of Installments",
		Default:   "1",
		Validator: positiveInt,
	})
	if err != nil {
		return nil, err
	}
	n, _ := strconv.Atoi(strings.TrimSpace(raw))

	now := c.now()
	out := make([]types.Installment, 0, n)
	for i := 0; i < n; i++ {
		_ = c.driver.Info(ctx, fmt.Sprintf("Installment %d", i+1))

		amount, err := c.driver.Input(ctx, InputConfig{
			Message:   fmt.Sprintf("Installment Amount %d", i+1),
			Default:   DefaultAmount,
			Validator: validAmount,
		})
		if err != nil {
			return nil, err
		}
		due, err := c.driver.Input(ctx, InputConfig{
			Message:   fmt.Sprintf("Due Date %d", i+1),
			Default:   DefaultDueDate(now, i).Format(types.DateLayout),
			Help:      "YYYY-MM-DD",
			Validator: validDate,
		})
		if err != nil {
			return nil, err
		}

		inst, err := types.ParseInstallment(amount, due)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", i+1, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// =============================================================================
// PROMPT VALIDATORS
// =============================================================================

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func validAmount(s string) error {
	_, err := types.ParseAmount(s)
	return err
}

func validDate(s string) error {
	_, err := types.ParseDueDate(s)
	return err
}
