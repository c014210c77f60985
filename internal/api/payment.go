package api

import (
	"encoding/json"
	"net/http"

	"donation-api/internal/response"
	"donation-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CashPaymentRequest represents an offline donation
type CashPaymentRequest struct {
	Name          string      `json:"name" binding:"required"`
	Address       string      `json:"address" binding:"required"`
	Phone         string      `json:"phone" binding:"required"`
	Email         string      `json:"email" binding:"required"`
	Amount        json.Number `json:"amount"`
	HalfPayment   json.Number `json:"half_payment"`
	AmountPending json.Number `json:"amount_pending"`
}

// VerifyPaymentRequest represents a client-side payment confirmation
type VerifyPaymentRequest struct {
	RazorpayOrderID   string      `json:"razorpay_order_id"`
	RazorpayPaymentID string      `json:"razorpay_payment_id"`
	RazorpaySignature string      `json:"razorpay_signature"`
	Name              string      `json:"name" binding:"required"`
	Address           string      `json:"address" binding:"required"`
	Phone             string      `json:"phone" binding:"required"`
	Email             string      `json:"email" binding:"required"`
	TransactionType   string      `json:"transaction_type" binding:"required,txtype"`
	Amount            json.Number `json:"amount"`
}

// CreateOrder creates a gateway order. The whole request body is echoed back
// as userData.
func (h *Handler) CreateOrder(c *gin.Context) {
	var metadata map[string]any
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&metadata); err != nil {
		validationFailure(c, err)
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), metadata["amount"], metadata)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CashPayment records an offline donation
func (h *Handler) CashPayment(c *gin.Context) {
	var req CashPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailure(c, err)
		return
	}

	id, err := h.orders.RecordCash(c.Request.Context(), services.CashPaymentInput{
		Donor: services.DonorInfo{
			Name:    req.Name,
			Address: req.Address,
			Phone:   req.Phone,
			Email:   req.Email,
		},
		Amount:        optionalNumber(req.Amount),
		HalfPayment:   optionalNumber(req.HalfPayment),
		AmountPending: optionalNumber(req.AmountPending),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, response.Recorded("Cash payment recorded.", id))
}

// VerifyPayment verifies a gateway signature and records the payment
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailure(c, err)
		return
	}

	id, err := h.orders.VerifyAndRecord(c.Request.Context(), services.VerifyPaymentInput{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
		Donor: services.DonorInfo{
			Name:    req.Name,
			Address: req.Address,
			Phone:   req.Phone,
			Email:   req.Email,
		},
		TransactionType: req.TransactionType,
		Amount:          optionalNumber(req.Amount),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, response.Recorded("Payment verified and transaction saved.", id))
}
