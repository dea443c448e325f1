package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FixedSave is a locked-duration deposit earning simple interest until
// maturity. Amount is fixed at creation; IsMatured only ever moves false→true.
type FixedSave struct {
	gorm.Model
	UserID          uint            `gorm:"not null;index" json:"userId"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency        string          `gorm:"type:varchar(10);not null" json:"currency"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"interestRate"`
	DurationMonths  int             `gorm:"not null" json:"durationMonths"`
	StartDate       time.Time       `gorm:"not null" json:"startDate"`
	MaturityDate    time.Time       `gorm:"not null;index" json:"maturityDate"`
	IsMatured       bool            `gorm:"not null;default:false;index" json:"isMatured"`
	MaturedAt       *time.Time      `json:"maturedAt,omitempty"`
	LastAccrualDate *time.Time      `json:"lastAccrualDate,omitempty"`
	AccruedInterest decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"accruedInterest"`
}

func (FixedSave) TableName() string {
	return "fixed_saves"
}
