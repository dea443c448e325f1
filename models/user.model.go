package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountStatus gates every mutating savings operation.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// User is the identity plus the savings aggregate. Goals and FixedTerms are
// owned child rows; every balance column is written under the per-account lock.
type User struct {
	gorm.Model
	Email         string  `gorm:"uniqueIndex;not null" json:"email"`
	Phone         *string `gorm:"uniqueIndex" json:"phone,omitempty"`
	Password      string  `gorm:"not null" json:"-"`
	WalletAddress *string `gorm:"uniqueIndex" json:"walletAddress,omitempty"`

	TotalBalance decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"totalBalance"`
	FlexBalance  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"flexBalance"`
	Goals        []GoalSave      `gorm:"foreignKey:UserID" json:"goals,omitempty"`
	FixedTerms   []FixedSave     `gorm:"foreignKey:UserID" json:"fixedTerms,omitempty"`

	ReferralCode      string          `gorm:"uniqueIndex;size:16;not null" json:"referralCode"`
	ReferredBy        *uint           `gorm:"index" json:"referredBy,omitempty"`
	ReferredAt        *time.Time      `json:"referredAt,omitempty"`
	ReferralBonusPaid bool            `gorm:"default:false" json:"-"`
	ReferralCount     int             `gorm:"not null;default:0" json:"referralCount"`
	ReferralEarnings  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"referralEarnings"`

	EmailNotifications bool `gorm:"default:true" json:"emailNotifications"`
	PushNotifications  bool `gorm:"default:true" json:"pushNotifications"`

	LastLogin *time.Time    `json:"lastLogin,omitempty"`
	Status    AccountStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

func (User) TableName() string {
	return "users"
}

// IsActive reports whether the account may transact.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// GoalTotal is Σ goal.CurrentAmount.
func (u *User) GoalTotal() decimal.Decimal {
	total := decimal.Zero
	for _, g := range u.Goals {
		total = total.Add(g.CurrentAmount)
	}
	return total
}

// FixedTotal is Σ fixed.Amount (principal only).
func (u *User) FixedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, f := range u.FixedTerms {
		total = total.Add(f.Amount)
	}
	return total
}

// AccruedInterestTotal is Σ fixed.AccruedInterest.
func (u *User) AccruedInterestTotal() decimal.Decimal {
	total := decimal.Zero
	for _, f := range u.FixedTerms {
		total = total.Add(f.AccruedInterest)
	}
	return total
}

// ExpectedTotal recomputes TotalBalance from its components: principal held in
// flex, goals and fixed terms, plus the interest and referral credits that are
// added to the total without belonging to a sub-balance.
func (u *User) ExpectedTotal() decimal.Decimal {
	return u.FlexBalance.
		Add(u.GoalTotal()).
		Add(u.FixedTotal()).
		Add(u.AccruedInterestTotal()).
		Add(u.ReferralEarnings)
}

// Goal returns the owned goal with id, or nil.
func (u *User) Goal(id uint) *GoalSave {
	for i := range u.Goals {
		if u.Goals[i].ID == id {
			return &u.Goals[i]
		}
	}
	return nil
}
