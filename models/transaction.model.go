package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionType is the kind of ledger event.
type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "deposit"
	TransactionTypeWithdrawal    TransactionType = "withdrawal"
	TransactionTypeInterest      TransactionType = "interest"
	TransactionTypeReferralBonus TransactionType = "referral_bonus"
	TransactionTypeTransfer      TransactionType = "transfer"
)

// SavingsType names the sub-product a transaction touched.
type SavingsType string

const (
	SavingsFlex  SavingsType = "flex"
	SavingsGoal  SavingsType = "goal"
	SavingsFixed SavingsType = "fixed"
)

// TransactionStatus is pending until any external effect resolves.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// TransactionMethod is how funds moved.
type TransactionMethod string

const (
	MethodWallet       TransactionMethod = "wallet"
	MethodBankTransfer TransactionMethod = "bank_transfer"
	MethodInternal     TransactionMethod = "internal"
)

// Transaction is the immutable audit record of one balance-affecting event.
// Only Status, TransactionHash and ResolvedAt change after insert, and only
// once, from pending to a terminal status.
type Transaction struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	UserID          uint                `gorm:"not null;index:idx_tx_user_created,priority:1" json:"userId"`
	Type            TransactionType     `gorm:"type:varchar(20);not null;index" json:"type"`
	SavingsType     SavingsType         `gorm:"type:varchar(10);index" json:"savingsType,omitempty"`
	GoalID          *uint               `gorm:"index" json:"goalId,omitempty"`
	FixedSaveID     *uint               `gorm:"uniqueIndex:idx_tx_interest_day,priority:1" json:"fixedSaveId,omitempty"`
	AccrualDate     *time.Time          `gorm:"uniqueIndex:idx_tx_interest_day,priority:2" json:"accrualDate,omitempty"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency        string              `gorm:"type:varchar(10);not null" json:"currency"`
	ExchangeRate    decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"exchangeRate"`
	NairaEquivalent decimal.NullDecimal `gorm:"type:decimal(24,8)" json:"nairaEquivalent"`
	Status          TransactionStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Method          TransactionMethod   `gorm:"type:varchar(20);not null" json:"method"`
	WalletAddress   string              `gorm:"type:varchar(64)" json:"walletAddress,omitempty"`
	TransactionHash string              `gorm:"type:varchar(128)" json:"transactionHash,omitempty"`
	Reference       string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	Description     string              `gorm:"type:text" json:"description,omitempty"`
	Metadata        datatypes.JSON      `json:"metadata,omitempty"`
	ResolvedAt      *time.Time          `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time           `gorm:"index:idx_tx_user_created,priority:2" json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
