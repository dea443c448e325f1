// Package ledger stores the audit trail of balance-affecting events. Records
// are append-only; the single permitted mutation is the pending → terminal
// status transition. Functions take a *gorm.DB so they can join the caller's
// transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flexvest/models"
	"flexvest/utils/apperror"
	"flexvest/utils/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Append validates and inserts t. Reference defaults to a fresh UUID and
// Status to pending.
func Append(db *gorm.DB, t *models.Transaction) error {
	if !money.IsPositive(t.Amount) {
		return apperror.ErrInvalidAmount
	}
	if !money.Currency(t.Currency).Valid() {
		return apperror.ErrInvalidCurrency
	}
	switch t.Type {
	case models.TransactionTypeDeposit, models.TransactionTypeWithdrawal,
		models.TransactionTypeInterest, models.TransactionTypeReferralBonus,
		models.TransactionTypeTransfer:
	default:
		return apperror.Invalid(fmt.Sprintf("unknown transaction type %q", t.Type))
	}
	if t.Type == models.TransactionTypeReferralBonus {
		t.SavingsType = ""
	}
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TransactionStatusPending
	}
	if t.Method == "" {
		t.Method = models.MethodInternal
	}
	t.Amount = money.Round(t.Amount)
	if t.Status.Terminal() && t.ResolvedAt == nil {
		ts := time.Now().UTC()
		t.ResolvedAt = &ts
	}
	if err := db.Create(t).Error; err != nil {
		return fmt.Errorf("append %s transaction: %w", t.Type, err)
	}
	return nil
}

// Get loads one transaction owned by userID.
func Get(db *gorm.DB, userID, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("transaction")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Transition moves a pending transaction to status. A transaction already in
// status is returned unchanged with changed=false; one in the other terminal
// status fails with ErrAlreadyResolved.
func Transition(db *gorm.DB, id uint, status models.TransactionStatus, hash string) (t *models.Transaction, changed bool, err error) {
	if !status.Terminal() {
		return nil, false, apperror.Invalid("target status must be completed or failed")
	}

	var current models.Transaction
	err = db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperror.NotFound("transaction")
	}
	if err != nil {
		return nil, false, err
	}

	if current.Status.Terminal() {
		if current.Status == status {
			return &current, false, nil
		}
		return &current, false, apperror.ErrAlreadyResolved
	}

	resolvedAt := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      status,
		"resolved_at": resolvedAt,
	}
	if hash != "" {
		updates["transaction_hash"] = hash
	}
	res := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race with another resolver; report what won.
		if err := db.First(&current, id).Error; err != nil {
			return nil, false, err
		}
		if current.Status == status {
			return &current, false, nil
		}
		return &current, false, apperror.ErrAlreadyResolved
	}

	current.Status = status
	current.ResolvedAt = &resolvedAt
	if hash != "" {
		current.TransactionHash = hash
	}
	return &current, true, nil
}

// Query filters a user's history. Zero values mean "any".
type Query struct {
	UserID      uint
	Type        models.TransactionType
	SavingsType models.SavingsType
	Status      models.TransactionStatus
	Page        int
	Limit       int
}

func (q *Query) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// Page is one page of newest-first results.
type Page struct {
	Items []models.Transaction `json:"transactions"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Pages int                  `json:"pages"`
	Limit int                  `json:"limit"`
}

// List returns a page of q.UserID's transactions, newest first.
func List(db *gorm.DB, q Query) (*Page, error) {
	q.normalize()

	scope := db.Model(&models.Transaction{}).Where("user_id = ?", q.UserID)
	if q.Type != "" {
		scope = scope.Where("type = ?", q.Type)
	}
	if q.SavingsType != "" {
		scope = scope.Where("savings_type = ?", q.SavingsType)
	}
	if q.Status != "" {
		scope = scope.Where("status = ?", q.Status)
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]models.Transaction, 0, q.Limit)
	err := scope.Order("created_at DESC").Order("id DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &Page{Items: items, Total: total, Page: q.Page, Pages: pages, Limit: q.Limit}, nil
}

// Recent returns the latest n transactions of userID.
func Recent(db *gorm.DB, userID uint, n int) ([]models.Transaction, error) {
	var items []models.Transaction
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(n).
		Find(&items).Error
	return items, err
}

// Completed returns userID's completed transactions created in [from, to),
// oldest first.
func Completed(db *gorm.DB, userID uint, from, to time.Time) ([]models.Transaction, error) {
	var items []models.Transaction
	err := db.Where("user_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
		userID, models.TransactionStatusCompleted, from, to).
		Order("created_at ASC").Order("id ASC").
		Find(&items).Error
	return items, err
}

// SumCompleted totals userID's completed transactions of type t created at or
// after since. Summed in Go so precision does not depend on the driver.
func SumCompleted(db *gorm.DB, userID uint, t models.TransactionType, since time.Time) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ? AND created_at >= ?",
			userID, t, models.TransactionStatusCompleted, since).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return money.Sum(amounts...), nil
}

// PurgeInterest hard-deletes interest records created before cutoff whose
// amount is below threshold, returning how many were removed.
func PurgeInterest(ctx context.Context, db *gorm.DB, cutoff time.Time, below decimal.Decimal) (int64, error) {
	res := db.WithContext(ctx).Unscoped().
		Where("type = ? AND created_at < ? AND amount < ?", models.TransactionTypeInterest, cutoff, below).
		Delete(&models.Transaction{})
	return res.RowsAffected, res.Error
}
