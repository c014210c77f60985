package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierDeliversSignedReceipt(t *testing.T) {
	var got ReceiptPayload
	var signature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		signature = r.Header.Get(receiptSignatureHeader)
		assert.True(t, VerifyWebhookSignature(body, signature, []byte("hook-secret")))
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "hook-secret")
	err := n.SendReceipt(context.Background(), Receipt{
		To:     "donor@example.com",
		Amount: decimal.NewNullDecimal(decimal.RequireFromString("99.5")),
		PDF:    samplePDF,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, signature)
	assert.Equal(t, "receipt.requested", got.Event)
	assert.Equal(t, "donor@example.com", got.To)
	assert.Equal(t, "99.50", got.Amount)
	assert.NotEmpty(t, got.PDFBase64)
}

func TestWebhookNotifierRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "")
	n.retryDelays = []time.Duration{time.Millisecond, time.Millisecond}

	require.NoError(t, n.SendReceipt(context.Background(), Receipt{To: "donor@example.com"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookNotifierGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "")
	n.retryDelays = []time.Duration{time.Millisecond}

	err := n.SendReceipt(context.Background(), Receipt{To: "donor@example.com"})
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestReplayGuard(t *testing.T) {
	rg := NewReplayGuard(time.Hour)
	defer rg.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rg.now = func() time.Time { return now }

	assert.False(t, rg.Seen("evt_1"))
	assert.True(t, rg.Seen("evt_1"))
	assert.False(t, rg.Seen(""))
	assert.False(t, rg.Seen(""))

	rg.Forget("evt_1")
	assert.False(t, rg.Seen("evt_1"))

	now = now.Add(2 * time.Hour)
	assert.False(t, rg.Seen("evt_1"), "expired ids are processed again")

	assert.False(t, rg.Seen("evt_2"))
	now = now.Add(2 * time.Hour)
	rg.cleanup()
	assert.Equal(t, 0, rg.Len())
	rg.Stop()
}
