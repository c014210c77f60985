package api

import (
	"bytes"
	"net/http"

	"donation-api/internal/response"
	"donation-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportTransactions downloads every transaction as transactions.xlsx
func (h *Handler) ExportTransactions(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.WriteTransactionsXLSX(c.Request.Context(), &buf); err != nil {
		logging.Errorf("Failed to export transactions: %v", err)
		response.FailureJSON(c, http.StatusInternalServerError, "export_error", "Failed to export transactions")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="transactions.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
