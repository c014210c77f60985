package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CashSentinel marks the gateway identifiers of offline (cash) donations.
const CashSentinel = "CASH"

// TransactionType is the payment method a donation was made with.
type TransactionType string

const (
	TransactionTypeCard       TransactionType = "card"
	TransactionTypeCash       TransactionType = "cash"
	TransactionTypeUPI        TransactionType = "upi"
	TransactionTypeNetbanking TransactionType = "netbanking"
	TransactionTypeWallet     TransactionType = "wallet"
	TransactionTypeEMI        TransactionType = "emi"
	TransactionTypePayLater   TransactionType = "paylater"
	TransactionTypeOther      TransactionType = "other"
)

var transactionTypes = map[TransactionType]bool{
	TransactionTypeCard:       true,
	TransactionTypeCash:       true,
	TransactionTypeUPI:        true,
	TransactionTypeNetbanking: true,
	TransactionTypeWallet:     true,
	TransactionTypeEMI:        true,
	TransactionTypePayLater:   true,
	TransactionTypeOther:      true,
}

// ParseTransactionType normalizes s and reports whether it names a known type.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, transactionTypes[t]
}

// TransactionStatus is the reconciliation state of a recorded donation.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is a recorded donation. Rows are never deleted and only Status
// may change after insertion.
type Transaction struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// Donor
	Name    string `json:"name" gorm:"size:100;not null"`
	Address string `json:"address" gorm:"size:200;not null"`
	Phone   string `json:"phone" gorm:"size:15;not null"`
	Email   string `json:"email" gorm:"size:120;not null"`

	TransactionType TransactionType `json:"transaction_type" gorm:"size:50;not null"`
	// Amount is always in major currency units (rupees, not paise).
	Amount    decimal.Decimal    `json:"amount" gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time          `json:"date" gorm:"autoCreateTime;index"`
	Status    *TransactionStatus `json:"status" gorm:"size:50"`

	// Partial donation flows
	HalfPayment   decimal.NullDecimal `json:"half_payment" gorm:"type:numeric(12,2)"`
	AmountPending decimal.NullDecimal `json:"amount_pending" gorm:"type:numeric(12,2)"`

	// Gateway identifiers, CashSentinel for offline donations. A verified
	// payment id may appear at most once.
	GatewayOrderID   string `json:"razorpay_order_id" gorm:"column:razorpay_order_id;size:100;not null"`
	GatewayPaymentID string `json:"razorpay_payment_id" gorm:"column:razorpay_payment_id;size:100;not null;uniqueIndex:idx_transactions_verified_payment,where:razorpay_payment_id <> 'CASH'"`
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}

// IsCash reports whether the transaction is an offline donation.
func (t *Transaction) IsCash() bool {
	return t.TransactionType == TransactionTypeCash &&
		t.GatewayOrderID == CashSentinel &&
		t.GatewayPaymentID == CashSentinel
}

// StatusPtr returns a pointer to s, for populating Transaction.Status.
func StatusPtr(s TransactionStatus) *TransactionStatus {
	return &s
}
