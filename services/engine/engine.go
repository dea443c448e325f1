// Package engine runs the scheduled passes over savings accounts: daily
// interest accrual with maturity detection, goal reminders and ledger
// retention. Each pass is a plain method taking asOf so it can be driven by
// cron, the sweep command or tests.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flexvest/metrics"
	"flexvest/models"
	"flexvest/services/ledger"
	"flexvest/services/notify"
	"flexvest/services/savings"
	"flexvest/utils/logger"
	"flexvest/utils/money"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Engine struct {
	accounts *savings.Accounts
	policy   savings.Policy
	notifier notify.Dispatcher
	log      logrus.FieldLogger
}

func New(accounts *savings.Accounts, policy savings.Policy, notifier notify.Dispatcher, log logrus.FieldLogger) *Engine {
	if notifier == nil {
		notifier = savings.NopDispatcher{}
	}
	return &Engine{
		accounts: accounts,
		policy:   policy,
		notifier: notifier,
		log:      logger.Component(log, "engine"),
	}
}

// SweepReport summarizes one accrual and maturity pass.
type SweepReport struct {
	AsOf          time.Time       `json:"asOf"`
	Accounts      int             `json:"accounts"`
	Accrued       int             `json:"accrued"`
	Matured       int             `json:"matured"`
	Skipped       int             `json:"skipped"`
	Failed        int             `json:"failed"`
	InterestTotal decimal.Decimal `json:"interestTotal"`
}

func (r *SweepReport) add(o termResult) {
	switch {
	case o.err != nil:
		r.Failed++
		return
	case o.accrued.IsPositive():
		r.Accrued++
		r.InterestTotal = r.InterestTotal.Add(o.accrued)
	default:
		if !o.matured {
			r.Skipped++
		}
	}
	if o.matured {
		r.Matured++
	}
}

type candidate struct {
	ID     uint
	UserID uint
}

type termResult struct {
	accrued decimal.Decimal
	matured bool
	err     error
}

// RunDailyAccrualAndMaturitySweep accrues one day of interest on every
// unmatured fixed term that has not accrued for asOf's calendar day, and
// matures every term whose maturity date has passed. A failing term is
// logged and counted; the pass continues.
func (e *Engine) RunDailyAccrualAndMaturitySweep(ctx context.Context, asOf time.Time) (*SweepReport, error) {
	started := time.Now()
	day := e.policy.Day(asOf)
	log := e.log.WithFields(logrus.Fields{"as_of": asOf.Format(time.RFC3339), "day": day.Format("2006-01-02")})
	log.Info("[SAVINGS-SCHEDULER] accrual and maturity sweep started")

	var candidates []candidate
	err := e.accounts.DB().WithContext(ctx).Model(&models.FixedSave{}).
		Select("id", "user_id").
		Where("is_matured = ?", false).
		Order("user_id").Order("id").
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("list fixed terms: %w", err)
	}

	byUser := make(map[uint][]uint)
	var users []uint
	for _, c := range candidates {
		if _, ok := byUser[c.UserID]; !ok {
			users = append(users, c.UserID)
		}
		byUser[c.UserID] = append(byUser[c.UserID], c.ID)
	}

	report := &SweepReport{AsOf: asOf, Accounts: len(users), InterestTotal: decimal.Zero}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	workers := e.policy.SweepWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, userID := range users {
		userID, terms := userID, byUser[userID]
		g.Go(func() error {
			for _, termID := range terms {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				res := e.sweepTerm(gctx, userID, termID, asOf, day)
				if res.err != nil {
					log.WithFields(logrus.Fields{"user_id": userID, "fixed_save_id": termID}).
						WithError(res.err).Error("[SAVINGS-SCHEDULER] fixed term sweep failed")
				}
				mu.Lock()
				report.add(res)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	metrics.RecordSweep("accrued", report.Accrued)
	metrics.RecordSweep("matured", report.Matured)
	metrics.RecordSweep("skipped", report.Skipped)
	metrics.RecordSweep("failed", report.Failed)
	metrics.ObserveSweep(time.Since(started))

	log.WithFields(logrus.Fields{
		"accounts": report.Accounts,
		"accrued":  report.Accrued,
		"matured":  report.Matured,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"interest": report.InterestTotal.String(),
	}).Info("[SAVINGS-SCHEDULER] accrual and maturity sweep completed")
	return report, nil
}

// sweepTerm handles one fixed term under its owner's account lock. Accrual
// and maturity are independent: a term past maturity only matures.
func (e *Engine) sweepTerm(ctx context.Context, userID, termID uint, asOf, day time.Time) termResult {
	var (
		res    = termResult{accrued: decimal.Zero}
		events []notify.Event
	)
	res.err = e.accounts.Mutate(ctx, userID, false, func(tx *gorm.DB, u *models.User) error {
		var f *models.FixedSave
		for i := range u.FixedTerms {
			if u.FixedTerms[i].ID == termID {
				f = &u.FixedTerms[i]
				break
			}
		}
		if f == nil || f.IsMatured {
			return nil
		}

		if asOf.Before(f.MaturityDate) {
			interest, err := e.accrue(tx, u, f, day)
			if err != nil {
				return err
			}
			res.accrued = interest
			if interest.IsPositive() && interest.GreaterThanOrEqual(e.policy.InterestNotifyThreshold) {
				events = append(events, notify.InterestEarned{
					FixedSaveID: f.ID, Amount: interest, Principal: f.Amount, InterestRate: f.InterestRate,
				})
			}
			return nil
		}

		matured, err := mature(tx, f, asOf)
		if err != nil {
			return err
		}
		res.matured = matured
		if matured {
			events = append(events, notify.MaturityAlert{
				FixedSaveID: f.ID, Amount: f.Amount, InterestRate: f.InterestRate,
				AccruedInterest: f.AccruedInterest, MaturityDate: f.MaturityDate,
			})
		}
		return nil
	})
	if res.err != nil {
		return termResult{accrued: decimal.Zero, err: res.err}
	}

	if res.accrued.IsPositive() {
		metrics.RecordTransaction(string(models.TransactionTypeInterest), string(models.TransactionStatusCompleted))
	}
	for _, ev := range events {
		e.notifier.Notify(ctx, userID, ev)
	}
	return res
}

// accrue adds one day of simple interest unless day was already accrued or
// precedes the term start. Returns the amount credited.
func (e *Engine) accrue(tx *gorm.DB, u *models.User, f *models.FixedSave, day time.Time) (decimal.Decimal, error) {
	if day.Before(e.policy.Day(f.StartDate)) {
		return decimal.Zero, nil
	}
	if f.LastAccrualDate != nil && !f.LastAccrualDate.Before(day) {
		return decimal.Zero, nil
	}

	interest := money.DailyInterest(f.Amount, f.InterestRate)
	if !interest.IsPositive() {
		return decimal.Zero, nil
	}

	fixedID := f.ID
	accrualDay := day
	t := &models.Transaction{
		UserID:      u.ID,
		Type:        models.TransactionTypeInterest,
		SavingsType: models.SavingsFixed,
		FixedSaveID: &fixedID,
		AccrualDate: &accrualDay,
		Amount:      interest,
		Currency:    f.Currency,
		Status:      models.TransactionStatusCompleted,
		Method:      models.MethodInternal,
		Description: "Daily interest earned on fixed savings",
	}
	if err := ledger.Append(tx, t); err != nil {
		return decimal.Zero, err
	}

	f.AccruedInterest = f.AccruedInterest.Add(interest)
	f.LastAccrualDate = &accrualDay
	err := tx.Model(&models.FixedSave{}).Where("id = ?", f.ID).Updates(map[string]interface{}{
		"accrued_interest":  f.AccruedInterest,
		"last_accrual_date": accrualDay,
	}).Error
	if err != nil {
		return decimal.Zero, err
	}

	u.TotalBalance = u.TotalBalance.Add(interest)
	if err := savings.SaveBalances(tx, u); err != nil {
		return decimal.Zero, err
	}
	return interest, nil
}

// mature flips IsMatured once. The guarded update makes a concurrent or
// repeated pass a no-op.
func mature(tx *gorm.DB, f *models.FixedSave, asOf time.Time) (bool, error) {
	if asOf.Before(f.MaturityDate) {
		return false, nil
	}
	maturedAt := asOf.UTC()
	res := tx.Model(&models.FixedSave{}).
		Where("id = ? AND is_matured = ?", f.ID, false).
		Updates(map[string]interface{}{"is_matured": true, "matured_at": maturedAt})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	f.IsMatured = true
	f.MaturedAt = &maturedAt
	return true, nil
}
