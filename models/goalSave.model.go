package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalSave is earmarked savings toward a named target. It only grows through
// deposits and is never auto-withdrawn.
type GoalSave struct {
	gorm.Model
	UserID        uint            `gorm:"not null;index" json:"userId"`
	Name          string          `gorm:"type:varchar(120);not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"targetAmount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"currentAmount"`
	Deadline      time.Time       `gorm:"not null;index" json:"deadline"`
	AchievedAt    *time.Time      `json:"achievedAt,omitempty"`
}

func (GoalSave) TableName() string {
	return "goal_saves"
}

// Achieved reports whether the target has been reached.
func (g *GoalSave) Achieved() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
