package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_SECRET", "")
	t.Setenv("GATEWAY_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 300*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 10*time.Second, cfg.DBTimeout)
	assert.Equal(t, "https://api.razorpay.com", cfg.RazorpayBaseURL)
	assert.Empty(t, cfg.RazorpayKeySecret)
	assert.Nil(t, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "shh")
	t.Setenv("GATEWAY_TIMEOUT_SECONDS", "5")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("AUTO_RECEIPT", "true")
	t.Setenv("MAIL_PROVIDER", "Brevo")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.Equal(t, "rzp_test_key", cfg.RazorpayKeyID)
	assert.Equal(t, "shh", cfg.RazorpayKeySecret)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.True(t, cfg.AutoReceipt)
	assert.Equal(t, "brevo", cfg.MailProvider)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
