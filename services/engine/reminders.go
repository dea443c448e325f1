package engine

import (
	"context"
	"fmt"
	"time"

	"flexvest/models"
	"flexvest/services/notify"
	"flexvest/services/savings"
	"flexvest/utils/money"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// reminderWindowDays is the pacing horizon: a goal is expected to be fully
// funded linearly over its last 30 days.
const reminderWindowDays = 30

type ReminderReport struct {
	Checked   int `json:"checked"`
	Reminders int `json:"reminders"`
	Deadlines int `json:"deadlines"`
}

// RunGoalReminders emits SavingsReminder for goals behind pace and
// GoalDeadline for goals whose deadline falls within the last day.
func (e *Engine) RunGoalReminders(ctx context.Context, asOf time.Time) (*ReminderReport, error) {
	var goals []models.GoalSave
	err := e.accounts.DB().WithContext(ctx).
		Where("deadline > ?", asOf.Add(-24*time.Hour)).
		Order("id").
		Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	report := &ReminderReport{Checked: len(goals)}
	for _, g := range goals {
		ev := goalEvent(g, asOf)
		if ev == nil {
			continue
		}
		switch ev.(type) {
		case notify.GoalDeadline:
			report.Deadlines++
		default:
			report.Reminders++
		}
		e.notifier.Notify(ctx, g.UserID, ev)
	}

	e.log.WithFields(logrus.Fields{
		"checked":   report.Checked,
		"reminders": report.Reminders,
		"deadlines": report.Deadlines,
	}).Info("[SAVINGS-SCHEDULER] goal progress check completed")
	return report, nil
}

// goalEvent decides which notification, if any, g needs on asOf.
func goalEvent(g models.GoalSave, asOf time.Time) notify.Event {
	days := savings.DaysRemaining(g.Deadline, asOf)
	switch {
	case days == 0:
		return notify.GoalDeadline{
			GoalID: g.ID, GoalName: g.Name, CurrentAmount: g.CurrentAmount,
			TargetAmount: g.TargetAmount, Achieved: g.Achieved(),
		}
	case days > 0:
		// expected = max(0, 1 - days/30) × target
		expected := decimal.Zero
		if days < reminderWindowDays {
			expected = g.TargetAmount.Mul(decimal.NewFromInt(int64(reminderWindowDays - days))).
				Div(decimal.NewFromInt(reminderWindowDays))
		}
		if !g.CurrentAmount.LessThan(expected) {
			return nil
		}
		return notify.SavingsReminder{
			GoalID: g.ID, GoalName: g.Name, CurrentAmount: g.CurrentAmount, TargetAmount: g.TargetAmount,
			DaysRemaining: days,
			RequiredDaily: money.Round(g.TargetAmount.Sub(g.CurrentAmount).Div(decimal.NewFromInt(int64(days)))),
		}
	}
	return nil
}
