package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"donation-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	brevo "github.com/getbrevo/brevo-go/lib"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4 fake receipt")

type fakeBrevo struct {
	sent []brevo.SendSmtpEmail
	err  error
}

func (f *fakeBrevo) SendTransacEmail(ctx context.Context, body brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error) {
	if f.err != nil {
		return brevo.CreateSmtpEmail{}, &http.Response{StatusCode: http.StatusUnauthorized}, f.err
	}
	f.sent = append(f.sent, body)
	return brevo.CreateSmtpEmail{MessageId: "<msg-1@brevo>"}, &http.Response{StatusCode: http.StatusCreated}, nil
}

type fakeSES struct {
	inputs []*ses.SendRawEmailInput
}

func (f *fakeSES) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	return &ses.SendRawEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestBrevoSendReceipt(t *testing.T) {
	api := &fakeBrevo{}
	svc := &BrevoService{api: api, FromEmail: "trust@example.org", FromName: "Temple Trust"}

	err := svc.SendReceipt(context.Background(), Receipt{
		To:     "donor@example.com",
		Name:   "Asha",
		Amount: decimal.NewNullDecimal(decimal.RequireFromString("500")),
		PDF:    samplePDF,
	})
	require.NoError(t, err)
	require.Len(t, api.sent, 1)

	email := api.sent[0]
	assert.Equal(t, "trust@example.org", email.Sender.Email)
	assert.Equal(t, "donor@example.com", email.To[0].Email)
	assert.Equal(t, receiptSubject, email.Subject)
	assert.Contains(t, email.HtmlContent, "Thank you for your donation!")
	assert.Contains(t, email.HtmlContent, "500.00")
	require.Len(t, email.Attachment, 1)
	assert.Equal(t, receiptFileName, email.Attachment[0].Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString(samplePDF), email.Attachment[0].Content)
}

func TestBrevoSendReceiptWithoutAttachment(t *testing.T) {
	api := &fakeBrevo{}
	svc := &BrevoService{api: api, FromEmail: "trust@example.org"}

	require.NoError(t, svc.SendReceipt(context.Background(), Receipt{To: "donor@example.com"}))
	assert.Empty(t, api.sent[0].Attachment)
}

func TestBrevoSendReceiptError(t *testing.T) {
	svc := &BrevoService{api: &fakeBrevo{err: errors.New("unauthorized")}}
	err := svc.SendReceipt(context.Background(), Receipt{To: "donor@example.com"})
	assert.ErrorContains(t, err, "status 401")
}

func TestSESSendReceiptSendsRawMIME(t *testing.T) {
	api := &fakeSES{}
	svc := &SESService{api: api, from: "trust@example.org", fromName: "Temple Trust"}

	err := svc.SendReceipt(context.Background(), Receipt{To: "donor@example.com", PDF: samplePDF})
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)

	in := api.inputs[0]
	assert.Equal(t, "trust@example.org", aws.ToString(in.Source))
	assert.Equal(t, []string{"donor@example.com"}, in.Destinations)
	raw := string(in.RawMessage.Data)
	assert.Contains(t, raw, "Subject: "+receiptSubject)
	assert.Contains(t, raw, receiptFileName)
	assert.Contains(t, raw, "application/pdf")
}

func TestBuildReceiptMessageRejectsBadRecipient(t *testing.T) {
	_, err := buildReceiptMessage("trust@example.org", "Trust", Receipt{To: "not an address"})
	assert.Error(t, err)
}

func TestBuildReceiptMessage(t *testing.T) {
	msg, err := buildReceiptMessage("trust@example.org", "Trust", Receipt{To: "donor@example.com", Name: "<Asha>"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "donor@example.com")
	assert.NotContains(t, buf.String(), receiptFileName)
}

func TestSMTPSendReceiptUnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	svc, err := NewSMTPService("127.0.0.1", port, "user", "pass", "trust@example.org", "Trust")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = svc.SendReceipt(ctx, Receipt{To: "donor@example.com", Name: "Asha", PDF: samplePDF})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send receipt")
}

func TestSMTPSendReceiptBadRecipient(t *testing.T) {
	svc, err := NewSMTPService("127.0.0.1", 25, "user", "pass", "trust@example.org", "Trust")
	require.NoError(t, err)

	err = svc.SendReceipt(context.Background(), Receipt{To: "not an address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient address")
}

func TestReceiptHTMLEscapesName(t *testing.T) {
	body := receiptHTML(Receipt{Name: "<script>"})
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "Amount received")
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()

	n, err := NewNotifier(ctx, &config.Config{MailProvider: "noop"})
	require.NoError(t, err)
	assert.IsType(t, LogNotifier{}, n)

	n, err = NewNotifier(ctx, &config.Config{MailProvider: "brevo", BrevoAPIKey: "xkeysib-test"})
	require.NoError(t, err)
	assert.IsType(t, &BrevoService{}, n)

	n, err = NewNotifier(ctx, &config.Config{MailProvider: "smtp", SMTPHost: "smtp.example.org", SMTPPort: 587})
	require.NoError(t, err)
	assert.IsType(t, &SMTPService{}, n)

	n, err = NewNotifier(ctx, &config.Config{MailProvider: "sendgrid", SendGridAPIKey: "SG.test", SMTPPort: 587})
	require.NoError(t, err)
	assert.IsType(t, &SMTPService{}, n)

	n, err = NewNotifier(ctx, &config.Config{MailProvider: "gmail", GmailUsername: "trust@gmail.com", GmailPassword: "app-password"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPService{}, n)

	_, err = NewNotifier(ctx, &config.Config{MailProvider: "gmail"})
	assert.Error(t, err)

	_, err = NewNotifier(ctx, &config.Config{MailProvider: "gmail", GmailUsername: "trust@gmail.com"})
	assert.Error(t, err)

	_, err = NewNotifier(ctx, &config.Config{MailProvider: "smtp"})
	assert.Error(t, err)

	n, err = NewNotifier(ctx, &config.Config{MailProvider: "webhook", ReceiptWebhookURL: "https://hooks.example.org/receipts"})
	require.NoError(t, err)
	assert.IsType(t, &WebhookNotifier{}, n)

	_, err = NewNotifier(ctx, &config.Config{MailProvider: "webhook"})
	assert.Error(t, err)

	_, err = NewNotifier(ctx, &config.Config{MailProvider: "brevo"})
	assert.Error(t, err)

	_, err = NewNotifier(ctx, &config.Config{MailProvider: "pigeon"})
	assert.Error(t, err)
}
