package services

import (
	"bytes"
	"context"
	"fmt"

	"donation-api/pkg/logging"

	"github.com/wneessen/go-mail"
)

// SMTPService sends receipts over SMTP. SendGrid and Gmail are SMTP relays
// configured through NewNotifier.
type SMTPService struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTPService creates an SMTP client using PLAIN auth.
func NewSMTPService(host string, port int, username, password, from, fromName string) (*SMTPService, error) {
	c, err := mail.NewClient(
		host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
	if err != nil {
		logging.Errorf("Could not initialize smtp client: %v", err)
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPService{client: c, from: from, fromName: fromName}, nil
}

func (s *SMTPService) SendReceipt(ctx context.Context, receipt Receipt) error {
	msg, err := buildReceiptMessage(s.from, s.fromName, receipt)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send receipt: %w", err)
	}
	logging.Infof("Receipt sent via SMTP - to: %s", receipt.To)
	return nil
}

// buildReceiptMessage builds the MIME message shared by the SMTP and SES providers.
func buildReceiptMessage(from, fromName string, receipt Receipt) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(receipt.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(receiptSubject)
	msg.SetBodyString(mail.TypeTextHTML, receiptHTML(receipt))
	if len(receipt.PDF) > 0 {
		msg.AttachReadSeeker(receiptFileName, bytes.NewReader(receipt.PDF), mail.WithFileContentType("application/pdf"))
	}
	return msg, nil
}
