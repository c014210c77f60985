package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testSecret = []byte("rzp_test_secret")

// mutate replaces the byte at i with a different printable character.
func mutate(s string, i int) string {
	b := []byte(s)
	if b[i] == 'x' {
		b[i] = 'y'
	} else {
		b[i] = 'x'
	}
	return string(b)
}

func TestVerifySignatureAcceptsGatewaySignature(t *testing.T) {
	sig := SignPayment("order_9A33XWu170gUtm", "pay_29QQoUBi66xm2f", testSecret)
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature("order_9A33XWu170gUtm", "pay_29QQoUBi66xm2f", sig, testSecret))
}

func TestVerifySignatureSingleCharacterMutations(t *testing.T) {
	orderID, paymentID := "order_ABC123", "pay_XYZ789"
	sig := SignPayment(orderID, paymentID, testSecret)

	for i := range sig {
		assert.False(t, VerifySignature(orderID, paymentID, mutate(sig, i), testSecret), "signature mutated at %d", i)
	}
	for i := range orderID {
		assert.False(t, VerifySignature(mutate(orderID, i), paymentID, sig, testSecret), "order id mutated at %d", i)
	}
	for i := range paymentID {
		assert.False(t, VerifySignature(orderID, mutate(paymentID, i), sig, testSecret), "payment id mutated at %d", i)
	}
}

func TestVerifySignatureRejectsMissingInputs(t *testing.T) {
	sig := SignPayment("order_1", "pay_1", testSecret)

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		secret    []byte
	}{
		{"empty order id", "", "pay_1", sig, testSecret},
		{"empty payment id", "order_1", "", sig, testSecret},
		{"empty signature", "order_1", "pay_1", "", testSecret},
		{"empty secret", "order_1", "pay_1", SignPayment("order_1", "pay_1", nil), nil},
		{"wrong secret", "order_1", "pay_1", sig, []byte("other")},
		{"uppercase hex", "order_1", "pay_1", "A" + sig[1:], testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifySignature(tt.orderID, tt.paymentID, tt.signature, tt.secret))
		})
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := SignWebhook(body, testSecret)

	assert.True(t, VerifyWebhookSignature(body, sig, testSecret))
	assert.False(t, VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), sig, testSecret))
	assert.False(t, VerifyWebhookSignature(body, "", testSecret))
	assert.False(t, VerifyWebhookSignature(body, sig, nil))
}
