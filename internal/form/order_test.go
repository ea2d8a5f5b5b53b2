package form

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
)

func TestParseOrder(t *testing.T) {
	data := []byte(`
seller_cnpj: 11.111.111/0001-11
buyer_cnpj: 22.222.222/0001-22
buyer_address:
  street: RUA A
  number: "7"
  neighborhood: BAIRRO
  municipality_code: "3304557"
  city: RIO DE JANEIRO
  state: RJ
  postal_code: "20000000"
  country_code: "1058"
  country: BRASIL
installments:
  - amount: 100.00
    due_date: 2024-01-08
  - amount: "50,505"
    due_date: "2024-01-15"
`)

	order, err := ParseOrder(data)
	require.NoError(t, err)

	assert.Equal(t, "11.111.111/0001-11", order.SellerCNPJ)
	assert.Equal(t, "RIO DE JANEIRO", order.BuyerAddress.City)
	assert.Equal(t, "7", order.BuyerAddress.Number)
	require.Len(t, order.Installments, 2)
	assert.Equal(t, "100", order.Installments[0].Amount.String())
	assert.Equal(t, "50.505", order.Installments[1].Amount.String())
	assert.Equal(t, "2024-01-15", order.Installments[1].DueDate.Format(types.DateLayout))
}

func TestParseOrder_Defaults(t *testing.T) {
	order, err := ParseOrder([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSellerCNPJ, order.SellerCNPJ)
	assert.Equal(t, DefaultBuyerCNPJ, order.BuyerCNPJ)
	assert.Equal(t, DefaultAddress, order.BuyerAddress)
	assert.Empty(t, order.Installments)
}

func TestParseOrder_BadInstallment(t *testing.T) {
	_, err := ParseOrder([]byte(`
installments:
  - amount: -5
    due_date: 2024-01-08
`))
	assert.ErrorIs(t, err, types.ErrNegativeAmount)
	assert.ErrorContains(t, err, "installments[0]")
}

func TestLoadOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buyer_cnpj: 1\n"), 0644))

	order, err := LoadOrder(path)
	require.NoError(t, err)
	assert.Equal(t, "1", order.BuyerCNPJ)

	_, err = LoadOrder(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
