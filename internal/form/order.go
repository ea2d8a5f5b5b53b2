package form

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

// orderFile is the YAML layout of an order file:
//
//	seller_cnpj: 30.792.427/0001-30
//	buyer_cnpj: 30.998.254/0033-99
//	buyer_address:
//	  street: JOAQUIM FLORIANO 100
//	  ...
//	installments:
//	  - amount: "100.00"
//	    due_date: 2024-01-08
type orderFile struct {
	SellerCNPJ   string            `yaml:"seller_cnpj"`
	BuyerCNPJ    string            `yaml:"buyer_cnpj"`
	BuyerAddress *types.Address    `yaml:"buyer_address"`
	Installments []installmentFile `yaml:"installments"`
}

type installmentFile struct {
	Amount  string `yaml:"amount"`
	DueDate string `yaml:"due_date"`
}

// LoadOrder reads an order from a YAML file.
//
// Missing CNPJs and a missing buyer_address fall back to the form defaults.
// A missing installments key yields no installments.
func LoadOrder(path string) (*types.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order file: %w", err)
	}
	return ParseOrder(data)
}

// ParseOrder decodes an order from YAML bytes.
func ParseOrder(data []byte) (*types.Order, error) {
	var raw orderFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse order file: %w", err)
	}

	order := &types.Order{
		SellerCNPJ:   raw.SellerCNPJ,
		BuyerCNPJ:    raw.BuyerCNPJ,
		BuyerAddress: DefaultAddress,
	}
	if order.SellerCNPJ == "" {
		order.SellerCNPJ = DefaultSellerCNPJ
	}
	if order.BuyerCNPJ == "" {
		order.BuyerCNPJ = DefaultBuyerCNPJ
	}
	if raw.BuyerAddress != nil {
		order.BuyerAddress = *raw.BuyerAddress
	}

	for i, ri := range raw.Installments {
		inst, err := types.ParseInstallment(ri.Amount, ri.DueDate)
		if err != nil {
			return nil, fmt.Errorf("installments[%d]: %w", i, err)
		}
		order.Installments = append(order.Installments, inst)
	}

	return order, nil
}
