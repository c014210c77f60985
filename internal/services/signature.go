package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment returns the hex HMAC-SHA256 the gateway produces for an
// (order, payment) pair: HMAC(secret, orderID + "|" + paymentID).
func SignPayment(orderID, paymentID string, secret []byte) string {
	return sign([]byte(orderID+"|"+paymentID), secret)
}

// VerifySignature reports whether signature authenticates the (order, payment)
// pair under secret. Empty identifiers, signature or secret never verify.
func VerifySignature(orderID, paymentID, signature string, secret []byte) bool {
	if orderID == "" || paymentID == "" || signature == "" || len(secret) == 0 {
		return false
	}
	expected := SignPayment(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header of a webhook
// delivery, which is the hex HMAC-SHA256 of the raw request body.
func VerifyWebhookSignature(body []byte, signature string, secret []byte) bool {
	if len(body) == 0 || signature == "" || len(secret) == 0 {
		return false
	}
	return hmac.Equal([]byte(SignWebhook(body, secret)), []byte(signature))
}

// SignWebhook returns the X-Razorpay-Signature value for body.
func SignWebhook(body, secret []byte) string {
	return sign(body, secret)
}

func sign(payload, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
