package converter

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/nfe"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/validation"
	"github.com/ginjaninja78/nota-fiscal-generator/templates"
)

var outputName = regexp.MustCompile(`^generated_nota_fiscal_\d+\.xml$`)

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func testOrder() *types.Order {
	return &types.Order{
		SellerCNPJ: "30.792.427/0001-30",
		BuyerCNPJ:  "30.998.254/0033-99",
		BuyerAddress: types.Address{
			Street:           "JOAQUIM FLORIANO 100",
			Number:           "100",
			Neighborhood:     "CENTRO",
			MunicipalityCode: "3550308",
			City:             "SAO PAULO",
			State:            "SP",
			PostalCode:       "04534000",
			CountryCode:      "1058",
			Country:          "BRASIL",
		},
		Installments: []types.Installment{
			{Amount: decimal.RequireFromString("100.00"), DueDate: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)},
			{Amount: decimal.RequireFromString("50.505"), DueDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func readOutput(t *testing.T, path string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))
	return doc
}

func TestRun_GeneratesFile(t *testing.T) {
	cfg := testConfig(t)
	conv, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	result, err := conv.Run(testOrder())
	require.NoError(t, err)

	assert.Equal(t, cfg.OutputDir, filepath.Dir(result.OutputFile))
	assert.Regexp(t, outputName, filepath.Base(result.OutputFile))
	assert.Regexp(t, `^NFe\d{44}$`, result.DocumentID)
	assert.Equal(t, "150.51", nfe.FormatAmount(result.Total))
	assert.Equal(t, 2, result.Stats.Installments)

	doc := readOutput(t, result.OutputFile)
	assert.Equal(t, result.DocumentID, doc.FindElement(".//infNFe").SelectAttrValue("Id", ""))
	for _, p := range nfe.TotalPaths {
		assert.Equal(t, "150.51", doc.FindElement(p).Text(), p)
	}

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `<?xml version="1.0" encoding="UTF-8"?>`))
}

func TestRun_FileSuffixIndependentOfDocumentID(t *testing.T) {
	conv, err := NewFromConfig(testConfig(t), nil)
	require.NoError(t, err)

	result, err := conv.Run(testOrder())
	require.NoError(t, err)

	suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(result.OutputFile), "generated_nota_fiscal_"), ".xml")
	assert.NotContains(t, result.DocumentID, suffix)
}

func TestRun_InvalidOrderWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	conv, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	order := testOrder()
	order.BuyerAddress.PostalCode = ""

	_, err = conv.Run(order)
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"BuyerAddress.PostalCode"}, verrs.Fields())

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_BrokenTemplateWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	broken := strings.Replace(string(templates.DefaultNFe), "<vNF>200.00</vNF>", "", 1)
	cfg.TemplatePath = filepath.Join(t.TempDir(), "broken.xml")
	require.NoError(t, os.WriteFile(cfg.TemplatePath, []byte(broken), 0644))

	conv, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = conv.Run(testOrder())
	assert.ErrorIs(t, err, nfe.ErrPathNotFound)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_SameInputsSameDocument(t *testing.T) {
	cfg := testConfig(t)
	cfg.Indent = 2
	conv, err := NewFromConfig(cfg, zap.NewNop(),
		nfe.WithClock(func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }),
		nfe.WithUUIDSource(func() (uuid.UUID, error) { return uuid.MustParse("6ba7b810-9dad-41d1-80b4-00c04fd430c8"), nil }),
	)
	require.NoError(t, err)

	first, err := conv.Run(testOrder())
	require.NoError(t, err)
	second, err := conv.Run(testOrder())
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputFile, second.OutputFile)

	a, err := os.ReadFile(first.OutputFile)
	require.NoError(t, err)
	b, err := os.ReadFile(second.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestNewFromConfig_AnonymizationOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Anonymization = []config.Replacement{{Path: ".//emit/xNome", Value: "ACME"}}

	conv, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	result, err := conv.Run(testOrder())
	require.NoError(t, err)

	doc := readOutput(t, result.OutputFile)
	assert.Equal(t, "ACME", doc.FindElement(".//emit/xNome").Text())
}

func TestNewFromConfig_BadAnonymizationPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Anonymization = []config.Replacement{{Path: ".//emit[", Value: "X"}}

	_, err := NewFromConfig(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewFromConfig_FakerAnonymization(t *testing.T) {
	cfg := testConfig(t)
	cfg.FakerSeed = 7
	cfg.Anonymization = []config.Replacement{{Path: ".//dest/email", Faker: "email"}}

	conv, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	result, err := conv.Run(testOrder())
	require.NoError(t, err)

	email := readOutput(t, result.OutputFile).FindElement(".//dest/email").Text()
	assert.Contains(t, email, "@")
	assert.NotEqual(t, "fake@credix.finance", email)
}

func TestNewFromConfig_UnknownFaker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Anonymization = []config.Replacement{{Path: ".//emit/xNome", Faker: "ssn"}}

	_, err := NewFromConfig(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown faker")
}

func TestRun_NormalizesBeforeValidation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Normalize = []config.NormalizeRule{
		{Field: "postal_code", Actions: []config.NormalizeAction{
			{Type: "if_empty_use_default", Value: "00000000"},
		}},
	}
	conv, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	order := testOrder()
	order.BuyerAddress.PostalCode = ""

	result, err := conv.Run(order)
	require.NoError(t, err)

	doc := readOutput(t, result.OutputFile)
	assert.Equal(t, "00000000", doc.FindElement(".//enderDest/CEP").Text())
}
