package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"donation-api/pkg/logging"
)

const receiptSignatureHeader = "X-Donation-Signature"

// WebhookNotifier hands receipts to an external service over HTTP, for
// deployments where mail is sent by another system.
type WebhookNotifier struct {
	url         string
	secret      []byte
	httpClient  *http.Client
	retryDelays []time.Duration
}

// NewWebhookNotifier creates a notifier posting to url. Payloads are signed
// when secret is set.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second},
	}
}

// ReceiptPayload is the body posted to the receipt webhook.
type ReceiptPayload struct {
	Event     string `json:"event"`
	To        string `json:"to"`
	Name      string `json:"name,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	PDFBase64 string `json:"pdf_base64,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SendReceipt posts the receipt, retrying failed deliveries.
func (wn *WebhookNotifier) SendReceipt(ctx context.Context, receipt Receipt) error {
	payload := ReceiptPayload{
		Event:     "receipt.requested",
		To:        receipt.To,
		Name:      receipt.Name,
		Subject:   receiptSubject,
		HTML:      receiptHTML(receipt),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if receipt.Amount.Valid {
		payload.Amount = receipt.Amount.Decimal.StringFixed(2)
	}
	if len(receipt.PDF) > 0 {
		payload.PDFBase64 = base64.StdEncoding.EncodeToString(receipt.PDF)
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	attempts := len(wn.retryDelays) + 1
	for attempt := 0; ; attempt++ {
		err = wn.send(ctx, jsonData)
		if err == nil {
			logging.Infof("Receipt webhook delivered - to: %s, attempt: %d", receipt.To, attempt+1)
			return nil
		}
		logging.Errorf("Receipt webhook failed - url: %s, attempt: %d, error: %v", wn.url, attempt+1, err)

		if attempt == attempts-1 {
			return fmt.Errorf("receipt webhook failed after %d attempts: %w", attempts, err)
		}
		select {
		case <-time.After(wn.retryDelays[attempt]):
		case <-ctx.Done():
			return fmt.Errorf("receipt webhook cancelled: %w", ctx.Err())
		}
	}
}

func (wn *WebhookNotifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Donation-Webhook/1.0")
	if len(wn.secret) > 0 {
		req.Header.Set(receiptSignatureHeader, sign(body, wn.secret))
	}

	resp, err := wn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
