package api

import (
	"errors"
	"io"
	"net/http"

	"donation-api/internal/response"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	razorpayEventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBodySize      = 1 << 20
)

// RazorpayWebhook records payments reported by Razorpay. Replays and events
// for payments already recorded are acknowledged without a second row.
func (h *Handler) RazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		validationFailure(c, err)
		return
	}

	if !services.VerifyWebhookSignature(body, c.GetHeader(razorpaySignatureHeader), h.webhookSecret) {
		logging.Securityf("Webhook signature mismatch - ip: %s", c.ClientIP())
		response.FailureJSON(c, http.StatusBadRequest, services.ErrSignatureMismatch.Error(), "Invalid webhook signature")
		return
	}

	eventID := c.GetHeader(razorpayEventIDHeader)
	if h.replay != nil && h.replay.Seen(eventID) {
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	event := gjson.GetBytes(body, "event").String()
	if event != "payment.captured" {
		logging.Infof("Ignoring webhook event: %s", event)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	entity := gjson.GetBytes(body, "payload.payment.entity")
	payment := services.CapturedPayment{
		OrderID:     entity.Get("order_id").String(),
		PaymentID:   entity.Get("id").String(),
		Method:      entity.Get("method").String(),
		AmountMinor: entity.Get("amount").Int(),
		Donor: services.DonorInfo{
			Name:    entity.Get("notes.name").String(),
			Address: entity.Get("notes.address").String(),
			Phone:   firstNonEmpty(entity.Get("notes.phone").String(), entity.Get("contact").String()),
			Email:   firstNonEmpty(entity.Get("notes.email").String(), entity.Get("email").String()),
		},
	}

	id, err := h.orders.RecordCaptured(c.Request.Context(), payment)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true, "transaction_id": id})
	case errors.Is(err, services.ErrDuplicatePayment):
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
	case errors.Is(err, services.ErrValidation):
		logging.Warnf("Webhook payment not recorded - payment_id: %s, error: %v", payment.PaymentID, err)
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		// A non-2xx status makes Razorpay retry the delivery.
		if h.replay != nil {
			h.replay.Forget(eventID)
		}
		writeError(c, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
