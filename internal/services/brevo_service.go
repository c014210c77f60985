package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"donation-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
)

type transacEmailSender interface {
	SendTransacEmail(ctx context.Context, body brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error)
}

// BrevoService provides Brevo email service
type BrevoService struct {
	api       transacEmailSender
	FromEmail string
	FromName  string
}

// NewBrevoService creates a new Brevo service instance
func NewBrevoService(apiKey, fromEmail, fromName string) *BrevoService {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	client := brevo.NewAPIClient(cfg)

	return &BrevoService{
		api:       client.TransactionalEmailsApi,
		FromEmail: fromEmail,
		FromName:  fromName,
	}
}

// SendReceipt sends a donation receipt through the Brevo transactional API
func (s *BrevoService) SendReceipt(ctx context.Context, receipt Receipt) error {
	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.FromName,
			Email: s.FromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: receipt.To, Name: receipt.Name},
		},
		Subject:     receiptSubject,
		HtmlContent: receiptHTML(receipt),
	}
	if len(receipt.PDF) > 0 {
		email.Attachment = []brevo.SendSmtpEmailAttachment{
			{Name: receiptFileName, Content: base64.StdEncoding.EncodeToString(receipt.PDF)},
		}
	}

	result, resp, err := s.api.SendTransacEmail(ctx, email)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("brevo API error: status %d: %w", status, err)
	}

	logging.Infof("Receipt sent via Brevo - to: %s, message_id: %s", receipt.To, result.MessageId)
	return nil
}
