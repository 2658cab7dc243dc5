package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/model"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/service"
	"github.com/gin-gonic/gin"
)

type CurrencyHandler struct {
	currencyService service.CurrencyServiceInterface
}

func NewCurrencyHandler(currencyService service.CurrencyServiceInterface) *CurrencyHandler {
	return &CurrencyHandler{
		currencyService: currencyService,
	}
}

// Convert handles GET /convert?from=&to=&amount=.
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var req model.ConvertRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: model.MsgMissingParameters})
		return
	}

	// A client disconnect must not abort the upstream call; the provider's
	// own timeout bounds it.
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := h.currencyService.Convert(ctx, service.ConversionRequest{
		From:   req.From,
		To:     req.To,
		Amount: req.Amount,
	})
	if err != nil {
		writeError(c, req, err)
		return
	}

	c.JSON(http.StatusOK, model.ConvertResponse{
		From:            result.From,
		To:              result.To,
		Amount:          result.Amount,
		ConvertedAmount: result.ConvertedAmount,
		Rate:            result.Rate,
	})
}

// writeError maps service errors to a status code and a caller facing
// message. Upstream causes are never exposed.
func writeError(c *gin.Context, req model.ConvertRequest, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: model.MsgMissingParameters})
	case errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: model.MsgInvalidAmount})
	case errors.Is(err, service.ErrUnknownCurrency):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: model.MsgInvalidCurrency(req.To)})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: model.MsgConversionFailed})
	}
}
