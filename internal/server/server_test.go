package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/converter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, keep bool) (*Server, *config.MainConfig) {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.KeepOutput = &keep

	conv, err := converter.NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	s := New(cfg, conv, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return s, cfg
}

func validForm() url.Values {
	return url.Values{
		"seller_cnpj":       {"30.792.427/0001-30"},
		"buyer_cnpj":        {"30.998.254/0033-99"},
		"street":            {"JOAQUIM FLORIANO 100"},
		"number":            {"100"},
		"neighborhood":      {"CENTRO"},
		"municipality_code": {"3550308"},
		"city":              {"SAO PAULO"},
		"state":             {"SP"},
		"postal_code":       {"04534000"},
		"country_code":      {"1058"},
		"country":           {"BRASIL"},
		"amount":            {"100.00", "50.505"},
		"due_date":          {"2024-01-08", "2024-01-15"},
	}
}

func post(s *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/notas", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestShowForm(t *testing.T) {
	s, _ := newTestServer(t, true)

	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `value="30.792.427/0001-30"`)
		assert.Contains(t, body, `value="JOAQUIM FLORIANO 100"`)
		assert.Contains(t, body, `value="2024-01-08"`)
		assert.Equal(t, 1, strings.Count(body, `name="amount"`))
	})

	t.Run("installment rows", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?installments=3", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, 3, strings.Count(body, `name="due_date"`))
		assert.Contains(t, body, `value="2024-01-22"`)
	})

	t.Run("bad count", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?installments=0", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGenerate_ReturnsAttachment(t *testing.T) {
	s, cfg := newTestServer(t, true)

	w := post(s, validForm())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="generated_nota_fiscal_\d+\.xml"$`, w.Header().Get("Content-Disposition"))
	assert.Regexp(t, `^NFe\d{44}$`, w.Header().Get("X-Document-Id"))
	assert.Equal(t, "150.51", w.Header().Get("X-Total"))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(w.Body.Bytes()))
	assert.Equal(t, "30792427000130", doc.FindElement(".//emit/CNPJ").Text())
	assert.Len(t, doc.FindElements(".//cobr/dup"), 2)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerate_RemovesFileWhenNotKept(t *testing.T) {
	s, cfg := newTestServer(t, false)

	w := post(s, validForm())
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.Bytes())

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_NoInstallments(t *testing.T) {
	s, _ := newTestServer(t, true)
	form := validForm()
	form.Del("amount")
	form.Del("due_date")

	w := post(s, form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.00", w.Header().Get("X-Total"))
}

func TestGenerate_BadInstallments(t *testing.T) {
	s, cfg := newTestServer(t, true)

	tests := []struct {
		name    string
		amounts []string
		dates   []string
	}{
		{"mismatched", []string{"1.00", "2.00"}, []string{"2024-01-08"}},
		{"negative", []string{"-1"}, []string{"2024-01-08"}},
		{"bad date", []string{"1.00"}, []string{"08/01/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form["amount"] = tt.amounts
			form["due_date"] = tt.dates

			w := post(s, form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	s, cfg := newTestServer(t, true)
	form := validForm()
	form.Set("city", "")
	form.Set("buyer_cnpj", "")

	w := post(s, form)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	var fields []string
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"BuyerCNPJ", "BuyerAddress.City"}, fields)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
