package api

import (
	"errors"
	"io"
	"net/http"

	"donation-api/internal/response"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxReceiptPDFSize = 10 << 20

// SendReceiptForm represents a receipt email request (multipart/form-data)
type SendReceiptForm struct {
	Email  string `form:"email" binding:"required,email"`
	Name   string `form:"name"`
	Amount string `form:"amount"`
}

// SendReceipt emails a receipt with an optional PDF attachment
func (h *Handler) SendReceipt(c *gin.Context) {
	var form SendReceiptForm
	if err := c.ShouldBind(&form); err != nil {
		validationFailure(c, err)
		return
	}

	receipt := services.Receipt{To: form.Email, Name: form.Name}
	if form.Amount != "" {
		amount, err := decimal.NewFromString(form.Amount)
		if err != nil {
			validationFailure(c, err)
			return
		}
		receipt.Amount = decimal.NewNullDecimal(amount)
	}

	file, err := c.FormFile("pdf")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		validationFailure(c, err)
		return
	default:
		if file.Size > maxReceiptPDFSize {
			response.FailureJSON(c, http.StatusBadRequest, services.ErrValidation.Error(), "Receipt PDF is too large")
			return
		}
		f, err := file.Open()
		if err != nil {
			validationFailure(c, err)
			return
		}
		defer f.Close()
		if receipt.PDF, err = io.ReadAll(io.LimitReader(f, maxReceiptPDFSize)); err != nil {
			validationFailure(c, err)
			return
		}
	}

	if err := h.notifier.SendReceipt(c.Request.Context(), receipt); err != nil {
		logging.Errorf("Failed to send receipt - to: %s, error: %v", receipt.To, err)
		response.FailureJSON(c, http.StatusInternalServerError, "notification_error", "Failed to send receipt")
		return
	}

	response.SuccessJSON(c, "Receipt sent")
}
