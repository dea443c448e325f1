package engine

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedules holds the cron specs for each pass.
type Schedules struct {
	Sweep     string
	Reminders string
	Retention string
}

// Reconciler repairs referral credits lost between the two referral steps.
type Reconciler interface {
	ReconcileReferralBonuses(ctx context.Context) (int, error)
}

// StartScheduler registers the passes on a cron in the policy timezone and
// starts it. Stop the returned cron on shutdown.
func (e *Engine) StartScheduler(ctx context.Context, s Schedules, reconciler Reconciler) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(e.policy.Location))

	if _, err := c.AddFunc(s.Sweep, func() {
		if _, err := e.RunDailyAccrualAndMaturitySweep(ctx, time.Now()); err != nil {
			e.log.WithError(err).Error("[SAVINGS-SCHEDULER] sweep aborted")
		}
		if reconciler != nil {
			if _, err := reconciler.ReconcileReferralBonuses(ctx); err != nil {
				e.log.WithError(err).Error("[SAVINGS-SCHEDULER] referral reconciliation failed")
			}
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(s.Reminders, func() {
		if _, err := e.RunGoalReminders(ctx, time.Now()); err != nil {
			e.log.WithError(err).Error("[SAVINGS-SCHEDULER] goal reminders failed")
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(s.Retention, func() {
		if _, err := e.RunRetention(ctx, time.Now()); err != nil {
			e.log.WithError(err).Error("[SAVINGS-SCHEDULER] retention sweep failed")
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	e.log.WithField("sweep", s.Sweep).WithField("reminders", s.Reminders).WithField("retention", s.Retention).
		Info("[SAVINGS-SCHEDULER] scheduler started")
	return c, nil
}
