package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"donation-api/internal/database"
	"donation-api/internal/models"
	"donation-api/pkg/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultGatewayTimeout = 300 * time.Second
	defaultDBTimeout      = 10 * time.Second
	receiptSendTimeout    = 30 * time.Second
)

// donorNoteKeys are the order metadata fields forwarded to the gateway as notes.
var donorNoteKeys = []string{"name", "address", "phone", "email"}

// Recorder is the write side of the transaction ledger.
type Recorder interface {
	Record(ctx context.Context, tx *models.Transaction) (uint, error)
}

// DonorInfo identifies the person making a donation.
type DonorInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

func (d DonorInfo) trimmed() DonorInfo {
	return DonorInfo{
		Name:    strings.TrimSpace(d.Name),
		Address: strings.TrimSpace(d.Address),
		Phone:   strings.TrimSpace(d.Phone),
		Email:   strings.TrimSpace(d.Email),
	}
}

func (d DonorInfo) missingField() string {
	switch {
	case d.Name == "":
		return "name"
	case d.Address == "":
		return "address"
	case d.Phone == "":
		return "phone"
	case d.Email == "":
		return "email"
	}
	return ""
}

// OrderResult is returned by CreateOrder. UserData echoes the caller's metadata.
type OrderResult struct {
	Order    *GatewayOrder  `json:"order"`
	UserData map[string]any `json:"userData"`
}

// CashPaymentInput is an offline donation. HalfPayment and AmountPending are
// optional and in major units.
type CashPaymentInput struct {
	Donor         DonorInfo
	Amount        any
	HalfPayment   any
	AmountPending any
}

// VerifyPaymentInput is a client-side payment confirmation. Amount is in
// minor units as reported by the gateway.
type VerifyPaymentInput struct {
	OrderID         string
	PaymentID       string
	Signature       string
	Donor           DonorInfo
	TransactionType string
	Amount          any
}

// CapturedPayment is a payment reported by a verified gateway webhook.
type CapturedPayment struct {
	OrderID     string
	PaymentID   string
	Method      string
	AmountMinor int64
	Donor       DonorInfo
}

// OrderServiceConfig holds the settings OrderService needs.
type OrderServiceConfig struct {
	KeySecret      string
	Currency       string
	GatewayTimeout time.Duration
	DBTimeout      time.Duration
	// AutoReceipt emails a receipt after each recorded payment.
	AutoReceipt bool
}

// OrderService creates gateway orders and records cash and verified payments.
type OrderService struct {
	gateway  Gateway
	ledger   Recorder
	locker   PaymentLocker
	notifier Notifier

	keySecret      []byte
	currency       string
	gatewayTimeout time.Duration
	dbTimeout      time.Duration
	autoReceipt    bool

	receipts sync.WaitGroup
}

// NewOrderService wires the orchestrator. notifier may be nil.
func NewOrderService(gateway Gateway, ledger Recorder, locker PaymentLocker, notifier Notifier, cfg OrderServiceConfig) *OrderService {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	if cfg.DBTimeout <= 0 {
		cfg.DBTimeout = defaultDBTimeout
	}
	return &OrderService{
		gateway:        gateway,
		ledger:         ledger,
		locker:         locker,
		notifier:       notifier,
		keySecret:      []byte(cfg.KeySecret),
		currency:       cfg.Currency,
		gatewayTimeout: cfg.GatewayTimeout,
		dbTimeout:      cfg.DBTimeout,
		autoReceipt:    cfg.AutoReceipt && notifier != nil,
	}
}

// CreateOrder asks the gateway for an order of amount minor units. Nothing is
// persisted.
func (s *OrderService) CreateOrder(ctx context.Context, amount any, metadata map[string]any) (*OrderResult, error) {
	minor, err := ParseMinorUnits(amount)
	if err != nil {
		return nil, newPaymentError(ErrValidation, "amount must be a positive whole number of minor units", err)
	}

	req := OrderRequest{
		Amount:         minor,
		Currency:       s.currency,
		Receipt:        "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
		PaymentCapture: true,
		Notes:          donorNotes(metadata),
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(gctx, req)
	if err != nil {
		logging.Errorf("Failed to create gateway order - amount: %d, error: %v", minor, err)
		return nil, newPaymentError(ErrGatewayUnavailable, "payment gateway unavailable", err)
	}

	logging.Infof("Gateway order created - order_id: %s, amount: %d %s", order.ID, order.Amount, order.Currency)
	return &OrderResult{Order: order, UserData: metadata}, nil
}

func donorNotes(metadata map[string]any) map[string]string {
	notes := make(map[string]string)
	for _, key := range donorNoteKeys {
		if v, ok := metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			notes[key] = strings.TrimSpace(v)
		}
	}
	if len(notes) == 0 {
		return nil
	}
	return notes
}

// RecordCash records an offline donation with sentinel gateway ids.
func (s *OrderService) RecordCash(ctx context.Context, in CashPaymentInput) (uint, error) {
	donor := in.Donor.trimmed()
	if field := donor.missingField(); field != "" {
		return 0, newPaymentError(ErrValidation, field+" is required", nil)
	}

	amount, err := ParseMajorUnits(in.Amount)
	if err != nil {
		return 0, newPaymentError(ErrValidation, "amount must be a positive number", err)
	}
	half, err := optionalMajorUnits(in.HalfPayment)
	if err != nil {
		return 0, newPaymentError(ErrValidation, "half_payment must be a non-negative number", err)
	}
	pending, err := optionalMajorUnits(in.AmountPending)
	if err != nil {
		return 0, newPaymentError(ErrValidation, "amount_pending must be a non-negative number", err)
	}

	tx := &models.Transaction{
		Name:             donor.Name,
		Address:          donor.Address,
		Phone:            donor.Phone,
		Email:            donor.Email,
		TransactionType:  models.TransactionTypeCash,
		Amount:           amount,
		Status:           models.StatusPtr(models.StatusCompleted),
		HalfPayment:      half,
		AmountPending:    pending,
		GatewayOrderID:   models.CashSentinel,
		GatewayPaymentID: models.CashSentinel,
	}

	id, err := s.record(ctx, tx)
	if err != nil {
		return 0, err
	}
	logging.Infof("Cash payment recorded - id: %d, amount: %s", id, amount.StringFixed(2))
	return id, nil
}

func optionalMajorUnits(v any) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseAmount(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d)
	}
	if err := checkMajorScale(d); err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// VerifyAndRecord checks the gateway signature of a payment and records it.
// Nothing is written unless the signature is valid.
func (s *OrderService) VerifyAndRecord(ctx context.Context, in VerifyPaymentInput) (uint, error) {
	donor := in.Donor.trimmed()
	if field := donor.missingField(); field != "" {
		return 0, newPaymentError(ErrValidation, field+" is required", nil)
	}

	txType, ok := models.ParseTransactionType(in.TransactionType)
	if !ok {
		return 0, newPaymentError(ErrValidation, "transaction_type is not recognised", nil)
	}
	if txType == models.TransactionTypeCash {
		return 0, newPaymentError(ErrValidation, "cash payments cannot be verified", nil)
	}

	amount, err := ToMajorUnits(in.Amount)
	if err != nil {
		return 0, newPaymentError(ErrValidation, "amount must be a non-negative number", err)
	}

	orderID := strings.TrimSpace(in.OrderID)
	paymentID := strings.TrimSpace(in.PaymentID)
	if orderID == models.CashSentinel || paymentID == models.CashSentinel {
		return 0, newPaymentError(ErrValidation, "reserved payment identifier", nil)
	}
	if orderID == "" || paymentID == "" || in.Signature == "" {
		return 0, newPaymentError(ErrSignatureMismatch, "payment identifiers and signature are required", nil)
	}

	if !VerifySignature(orderID, paymentID, in.Signature, s.keySecret) {
		logging.Securityf("Payment signature mismatch - order_id: %s, payment_id: %s", orderID, paymentID)
		return 0, newPaymentError(ErrSignatureMismatch, "signature verification failed", nil)
	}

	tx := &models.Transaction{
		Name:             donor.Name,
		Address:          donor.Address,
		Phone:            donor.Phone,
		Email:            donor.Email,
		TransactionType:  txType,
		Amount:           amount,
		Status:           models.StatusPtr(models.StatusCompleted),
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
	}

	id, err := s.recordLocked(ctx, tx)
	if err != nil {
		return 0, err
	}
	logging.Infof("Payment verified and recorded - id: %d, payment_id: %s, amount: %s", id, paymentID, amount.StringFixed(2))
	return id, nil
}

// RecordCaptured records a payment reported by an authenticated webhook. The
// caller is responsible for verifying the webhook signature.
func (s *OrderService) RecordCaptured(ctx context.Context, p CapturedPayment) (uint, error) {
	donor := p.Donor.trimmed()
	if field := donor.missingField(); field != "" {
		return 0, newPaymentError(ErrValidation, field+" is missing from the order notes", nil)
	}

	orderID := strings.TrimSpace(p.OrderID)
	paymentID := strings.TrimSpace(p.PaymentID)
	if orderID == "" || paymentID == "" || paymentID == models.CashSentinel {
		return 0, newPaymentError(ErrValidation, "payment identifiers are required", nil)
	}

	amount, err := ToMajorUnits(p.AmountMinor)
	if err != nil {
		return 0, newPaymentError(ErrValidation, "amount must be a non-negative number", err)
	}

	txType, ok := models.ParseTransactionType(p.Method)
	if !ok || txType == models.TransactionTypeCash {
		txType = models.TransactionTypeOther
	}

	tx := &models.Transaction{
		Name:             donor.Name,
		Address:          donor.Address,
		Phone:            donor.Phone,
		Email:            donor.Email,
		TransactionType:  txType,
		Amount:           amount,
		Status:           models.StatusPtr(models.StatusCompleted),
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
	}

	id, err := s.recordLocked(ctx, tx)
	if err != nil {
		return 0, err
	}
	logging.Infof("Captured payment recorded from webhook - id: %d, payment_id: %s", id, paymentID)
	return id, nil
}

// recordLocked records tx while holding the lock for its payment id. If the
// lock backend fails the write still goes ahead; the ledger rejects duplicates
// on its own. Like the write, waiting for the lock ignores request
// cancellation.
func (s *OrderService) recordLocked(ctx context.Context, tx *models.Transaction) (uint, error) {
	lockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dbTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, tx.GatewayPaymentID)
	switch {
	case errors.Is(err, ErrLockBusy):
		logging.Warnf("Payment lock busy - payment_id: %s", tx.GatewayPaymentID)
		return 0, newPaymentError(ErrDuplicatePayment, "payment is already being processed", err)
	case err != nil:
		logging.Warnf("Payment lock unavailable, relying on ledger uniqueness - payment_id: %s, error: %v", tx.GatewayPaymentID, err)
	default:
		defer unlock()
	}

	return s.record(ctx, tx)
}

// record writes tx to the ledger. The write is not cancelled with the
// request so a commit is never abandoned halfway.
func (s *OrderService) record(ctx context.Context, tx *models.Transaction) (uint, error) {
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dbTimeout)
	defer cancel()

	id, err := s.ledger.Record(dbCtx, tx)
	if err != nil {
		return 0, ledgerError(tx, err)
	}

	if s.autoReceipt {
		s.sendReceiptAsync(tx)
	}
	return id, nil
}

func ledgerError(tx *models.Transaction, err error) *PaymentError {
	switch {
	case errors.Is(err, database.ErrDuplicatePayment):
		logging.Warnf("Duplicate payment rejected - payment_id: %s", tx.GatewayPaymentID)
		return newPaymentError(ErrDuplicatePayment, "payment already recorded", err)
	case errors.Is(err, database.ErrInvalidTransaction):
		return newPaymentError(ErrValidation, strings.TrimPrefix(err.Error(), database.ErrInvalidTransaction.Error()+": "), err)
	default:
		logging.Errorf("Failed to record transaction - payment_id: %s, error: %v", tx.GatewayPaymentID, err)
		return newPaymentError(ErrPersistence, "could not record the transaction", err)
	}
}

func (s *OrderService) sendReceiptAsync(tx *models.Transaction) {
	receipt := Receipt{
		To:     tx.Email,
		Name:   tx.Name,
		Amount: decimal.NewNullDecimal(tx.Amount),
	}
	s.receipts.Add(1)
	go func() {
		defer s.receipts.Done()
		ctx, cancel := context.WithTimeout(context.Background(), receiptSendTimeout)
		defer cancel()
		if err := s.notifier.SendReceipt(ctx, receipt); err != nil {
			logging.Errorf("Failed to send receipt - to: %s, error: %v", receipt.To, err)
		}
	}()
}

// Wait blocks until in-flight receipt emails have finished.
func (s *OrderService) Wait() {
	s.receipts.Wait()
}
