package savings

import (
	"context"
	"errors"

	"flexvest/models"
	"flexvest/utils/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Accounts serializes every mutation of one user's aggregate. The in-process
// Locker orders callers inside this replica and the row lock (FOR UPDATE)
// orders replicas sharing the database.
type Accounts struct {
	db    *gorm.DB
	locks *Locker
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db, locks: NewLocker()}
}

func (a *Accounts) DB() *gorm.DB {
	return a.db
}

// Mutate loads userID with goals and fixed terms under the account lock and
// runs fn in one database transaction. fn's error rolls everything back.
// requireActive rejects non-active accounts with ErrAccountInactive.
func (a *Accounts) Mutate(ctx context.Context, userID uint, requireActive bool, fn func(tx *gorm.DB, u *models.User) error) error {
	unlock := a.locks.Lock(userID)
	defer unlock()

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Goals", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Preload("FixedTerms", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			First(&u, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user")
		}
		if err != nil {
			return err
		}
		if requireActive && !u.IsActive() {
			return apperror.ErrAccountInactive
		}
		return fn(tx, &u)
	})
}

// Load reads the aggregate without locking.
func (a *Accounts) Load(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	err := a.db.WithContext(ctx).
		Preload("Goals", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("FixedTerms", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveBalances writes the aggregate's own balance columns. Call only inside
// Mutate.
func SaveBalances(tx *gorm.DB, u *models.User) error {
	return tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"total_balance":     u.TotalBalance,
		"flex_balance":      u.FlexBalance,
		"referral_count":    u.ReferralCount,
		"referral_earnings": u.ReferralEarnings,
	}).Error
}
