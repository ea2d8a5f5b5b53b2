package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/form"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/logger"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/nfe"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/types"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/validation"
)

// generateRequest is the POST /notas form body. Installments arrive as the
// repeated fields "amount" and "due_date", paired by position.
type generateRequest struct {
	SellerCNPJ       string `form:"seller_cnpj"`
	BuyerCNPJ        string `form:"buyer_cnpj"`
	Street           string `form:"street"`
	Number           string `form:"number"`
	Neighborhood     string `form:"neighborhood"`
	MunicipalityCode string `form:"municipality_code"`
	City             string `form:"city"`
	State            string `form:"state"`
	PostalCode       string `form:"postal_code"`
	CountryCode      string `form:"country_code"`
	Country          string `form:"country"`
}

func (r *generateRequest) order() *types.Order {
	return &types.Order{
		SellerCNPJ: r.SellerCNPJ,
		BuyerCNPJ:  r.BuyerCNPJ,
		BuyerAddress: types.Address{
			Street:           r.Street,
			Number:           r.Number,
			Neighborhood:     r.Neighborhood,
			MunicipalityCode: r.MunicipalityCode,
			City:             r.City,
			State:            r.State,
			PostalCode:       r.PostalCode,
			CountryCode:      r.CountryCode,
			Country:          r.Country,
		},
	}
}

type installmentView struct {
	Amount  string
	DueDate string
}

type formView struct {
	Order        *types.Order
	Installments []installmentView
}

// showForm renders the form with the default order.
func (s *Server) showForm(c *gin.Context) {
	n := 1
	if raw := c.Query("installments"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxInstallments {
			c.String(http.StatusBadRequest, "installments must be between 1 and %d", maxInstallments)
			return
		}
		n = v
	}

	now := s.now()
	view := formView{
		Order: &types.Order{
			SellerCNPJ:   form.DefaultSellerCNPJ,
			BuyerCNPJ:    form.DefaultBuyerCNPJ,
			BuyerAddress: form.DefaultAddress,
		},
	}
	for i := 0; i < n; i++ {
		view.Installments = append(view.Installments, installmentView{
			Amount:  form.DefaultAmount,
			DueDate: form.DefaultDueDate(now, i).Format(types.DateLayout),
		})
	}

	c.HTML(http.StatusOK, "form", view)
}

// generate runs the pipeline and streams the generated file back.
func (s *Server) generate(c *gin.Context) {
	log := logger.GetGinLogger(c)

	var req generateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	installments, err := parseInstallments(c.PostFormArray("amount"), c.PostFormArray("due_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := req.order()
	order.Installments = installments

	result, err := s.converter.Run(order)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verrs.Error(), "fields": verrs})
			return
		}
		log.Error("generation failed", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate nota fiscal"})
		return
	}

	c.Header("Content-Type", "application/xml")
	c.Header("X-Document-Id", result.DocumentID)
	c.Header("X-Total", nfe.FormatAmount(result.Total))
	c.FileAttachment(result.OutputFile, filepath.Base(result.OutputFile))

	if !s.cfg.KeepFiles() {
		if err := os.Remove(result.OutputFile); err != nil {
			log.Warn("failed to remove served file", zap.String("file", result.OutputFile), zap.Error(err))
		}
	}
}

// parseInstallments pairs amounts with due dates by position.
func parseInstallments(amounts, dueDates []string) ([]types.Installment, error) {
	if len(amounts) != len(dueDates) {
		return nil, fmt.Errorf("got %d amounts but %d due dates", len(amounts), len(dueDates))
	}
	out := make([]types.Installment, 0, len(amounts))
	for i := range amounts {
		inst, err := types.ParseInstallment(amounts[i], dueDates[i])
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", i+1, err)
		}
		out = append(out, inst)
	}
	return out, nil
}
