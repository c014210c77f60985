package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Response represents a standard API response
type Response struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	Reason        string `json:"reason,omitempty"`
	TransactionID uint   `json:"transaction_id,omitempty"`
}

// Success returns a success response
func Success(message string) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
	}
}

// Recorded returns a success response for a stored transaction
func Recorded(message string, transactionID uint) Response {
	return Response{
		Status:        StatusSuccess,
		Message:       message,
		TransactionID: transactionID,
	}
}

// Failure returns a failure response. reason is a machine-readable error kind.
func Failure(reason, message string) Response {
	return Response{
		Status:  StatusFailure,
		Reason:  reason,
		Message: message,
	}
}

// JSON sends a JSON response
func JSON(c *gin.Context, statusCode int, response Response) {
	c.JSON(statusCode, response)
}

// SuccessJSON sends a success JSON response
func SuccessJSON(c *gin.Context, message string) {
	JSON(c, http.StatusOK, Success(message))
}

// FailureJSON sends a failure JSON response
func FailureJSON(c *gin.Context, statusCode int, reason, message string) {
	JSON(c, statusCode, Failure(reason, message))
}

// AbortWithFailure sends a failure response and stops the handler chain
func AbortWithFailure(c *gin.Context, statusCode int, reason, message string) {
	c.AbortWithStatusJSON(statusCode, Failure(reason, message))
}
