package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"donation-api/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrInvalidTransaction is returned when a required field is missing or malformed.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrDuplicatePayment is returned when a verified payment id is already recorded.
	ErrDuplicatePayment = errors.New("payment already recorded")
	// ErrStorage wraps failures of the underlying database.
	ErrStorage = errors.New("storage failure")
)

// TransactionLedger is the append-only store of donation transactions.
type TransactionLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTransactionLedger creates a ledger backed by db.
func NewTransactionLedger(db *gorm.DB) *TransactionLedger {
	return &TransactionLedger{db: db, now: time.Now}
}

// Record validates and inserts tx, returning its id. The duplicate check and
// the insert run in one database transaction, and the partial unique index on
// the payment id rejects any insert that races past the check.
func (l *TransactionLedger) Record(ctx context.Context, tx *models.Transaction) (uint, error) {
	if err := validateTransaction(tx); err != nil {
		return 0, err
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.now()
	}

	err := l.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if !tx.IsCash() {
			var count int64
			err := db.Model(&models.Transaction{}).
				Where("razorpay_payment_id = ?", tx.GatewayPaymentID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicatePayment
			}
		}
		return db.Create(tx).Error
	})

	switch {
	case err == nil:
		return tx.ID, nil
	case errors.Is(err, ErrDuplicatePayment), isDuplicateKey(err):
		tx.ID = 0
		return 0, fmt.Errorf("%w: %s", ErrDuplicatePayment, tx.GatewayPaymentID)
	default:
		tx.ID = 0
		return 0, fmt.Errorf("%w: failed to record transaction: %w", ErrStorage, err)
	}
}

// FetchAll returns every transaction ordered by creation time.
func (l *TransactionLedger) FetchAll(ctx context.Context) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := l.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch transactions: %w", ErrStorage, err)
	}
	return transactions, nil
}

// Exists reports whether a transaction with the given gateway payment id exists.
func (l *TransactionLedger) Exists(ctx context.Context, gatewayPaymentID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("razorpay_payment_id = ?", gatewayPaymentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: failed to look up payment: %w", ErrStorage, err)
	}
	return count > 0, nil
}

// Count returns the number of recorded transactions.
func (l *TransactionLedger) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&models.Transaction{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count transactions: %w", ErrStorage, err)
	}
	return count, nil
}

func validateTransaction(tx *models.Transaction) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction is nil", ErrInvalidTransaction)
	}

	tx.Name = strings.TrimSpace(tx.Name)
	tx.Address = strings.TrimSpace(tx.Address)
	tx.Phone = strings.TrimSpace(tx.Phone)
	tx.Email = strings.TrimSpace(tx.Email)
	tx.GatewayOrderID = strings.TrimSpace(tx.GatewayOrderID)
	tx.GatewayPaymentID = strings.TrimSpace(tx.GatewayPaymentID)

	required := []struct {
		field string
		value string
	}{
		{"name", tx.Name},
		{"address", tx.Address},
		{"phone", tx.Phone},
		{"email", tx.Email},
		{"transaction_type", string(tx.TransactionType)},
		{"razorpay_order_id", tx.GatewayOrderID},
		{"razorpay_payment_id", tx.GatewayPaymentID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidTransaction, r.field)
		}
	}

	txType, ok := models.ParseTransactionType(string(tx.TransactionType))
	if !ok {
		return fmt.Errorf("%w: unknown transaction_type %q", ErrInvalidTransaction, tx.TransactionType)
	}
	tx.TransactionType = txType

	if tx.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidTransaction)
	}
	if tx.HalfPayment.Valid && tx.HalfPayment.Decimal.IsNegative() {
		return fmt.Errorf("%w: half_payment must not be negative", ErrInvalidTransaction)
	}
	if tx.AmountPending.Valid && tx.AmountPending.Decimal.IsNegative() {
		return fmt.Errorf("%w: amount_pending must not be negative", ErrInvalidTransaction)
	}

	sentinel := tx.GatewayOrderID == models.CashSentinel || tx.GatewayPaymentID == models.CashSentinel
	if (tx.TransactionType == models.TransactionTypeCash) != sentinel || (sentinel && !tx.IsCash()) {
		return fmt.Errorf("%w: cash transactions must use %q gateway ids and only they may", ErrInvalidTransaction, models.CashSentinel)
	}

	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
