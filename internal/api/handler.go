package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"donation-api/internal/response"
	"donation-api/internal/services"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// Handler serves the donation API.
type Handler struct {
	orders        *services.OrderService
	notifier      services.Notifier
	exporter      *services.ExportService
	webhookSecret []byte
	replay        *services.ReplayGuard
}

// NewHandler creates a Handler. An empty webhookSecret disables the webhook route.
func NewHandler(orders *services.OrderService, notifier services.Notifier, exporter *services.ExportService, webhookSecret string) *Handler {
	if notifier == nil {
		notifier = services.LogNotifier{}
	}
	return &Handler{
		orders:        orders,
		notifier:      notifier,
		exporter:      exporter,
		webhookSecret: []byte(webhookSecret),
	}
}

// UseReplayGuard makes the webhook acknowledge redelivered events without
// reprocessing them.
func (h *Handler) UseReplayGuard(rg *services.ReplayGuard) {
	h.replay = rg
}

// statusFor maps a payment error kind to its HTTP status.
func statusFor(kind error) int {
	switch {
	case errors.Is(kind, services.ErrValidation), errors.Is(kind, services.ErrSignatureMismatch):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrDuplicatePayment):
		return http.StatusConflict
	case errors.Is(kind, services.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the failure envelope for err. Internal causes are never
// included in the body.
func writeError(c *gin.Context, err error) {
	kind, message := services.ErrorKind(err)
	response.FailureJSON(c, statusFor(kind), kind.Error(), message)
}

func validationFailure(c *gin.Context, err error) {
	logging.Warnf("Invalid request - path: %s, error: %v", c.FullPath(), err)
	response.FailureJSON(c, http.StatusBadRequest, services.ErrValidation.Error(), "Invalid request format: "+err.Error())
}

// optionalNumber treats an absent JSON number as missing.
func optionalNumber(n json.Number) any {
	if n == "" {
		return nil
	}
	return n
}
