package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"donation-api/internal/config"
	"donation-api/pkg/logging"

	"github.com/shopspring/decimal"
)

const (
	receiptSubject  = "Your Donation Receipt"
	receiptFileName = "receipt.pdf"
)

// Receipt is a donation receipt email.
type Receipt struct {
	To     string
	Name   string
	Amount decimal.NullDecimal
	// PDF is attached as receipt.pdf when present.
	PDF []byte
}

// Notifier delivers receipts to donors. Providers are interchangeable.
type Notifier interface {
	SendReceipt(ctx context.Context, receipt Receipt) error
}

// NewNotifier returns the provider selected by MAIL_PROVIDER.
func NewNotifier(ctx context.Context, cfg *config.Config) (Notifier, error) {
	switch cfg.MailProvider {
	case "", "noop", "log":
		return LogNotifier{}, nil
	case "brevo":
		if cfg.BrevoAPIKey == "" {
			return nil, fmt.Errorf("BREVO_API_KEY is required for the brevo mail provider")
		}
		return NewBrevoService(cfg.BrevoAPIKey, cfg.MailFrom, cfg.MailFromName), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp mail provider")
		}
		return NewSMTPService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName)
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail provider")
		}
		return NewSMTPService("smtp.sendgrid.net", cfg.SMTPPort, "apikey", cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	case "gmail":
		if cfg.GmailUsername == "" || cfg.GmailPassword == "" {
			return nil, fmt.Errorf("GMAIL_USERNAME and GMAIL_PASSWORD are required for the gmail mail provider")
		}
		return NewSMTPService("smtp.gmail.com", 587, cfg.GmailUsername, cfg.GmailPassword, cfg.MailFrom, cfg.MailFromName)
	case "ses":
		return NewSESService(ctx, cfg.AWSRegion, cfg.MailFrom, cfg.MailFromName)
	case "webhook":
		if cfg.ReceiptWebhookURL == "" {
			return nil, fmt.Errorf("RECEIPT_WEBHOOK_URL is required for the webhook mail provider")
		}
		return NewWebhookNotifier(cfg.ReceiptWebhookURL, cfg.ReceiptWebhookSecret), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}

// LogNotifier only logs receipts. Used when no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) SendReceipt(ctx context.Context, receipt Receipt) error {
	logging.Infof("Mail provider not configured, skipping receipt to %s", receipt.To)
	return nil
}

func receiptHTML(r Receipt) string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "<p>Dear %s,</p>", html.EscapeString(r.Name))
	}
	b.WriteString("<strong>Thank you for your donation!</strong>")
	if r.Amount.Valid {
		fmt.Fprintf(&b, "<p>Amount received: %s</p>", r.Amount.Decimal.StringFixed(2))
	}
	return b.String()
}
