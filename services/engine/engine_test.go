package engine

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"flexvest/database"
	"flexvest/models"
	"flexvest/services/notify"
	"flexvest/services/savings"
	"flexvest/utils/money"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(_ context.Context, _ uint, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(t notify.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type() == t {
			n++
		}
	}
	return n
}

type fixture struct {
	db      *gorm.DB
	savings *savings.Service
	engine  *Engine
	events  *recorder
	start   time.Time
}

func newTestEngine(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{db: db, events: &recorder{}, start: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)}
	accounts := savings.NewAccounts(db)
	policy := savings.DefaultPolicy()
	policy.SweepWorkers = 3
	f.savings = savings.New(savings.Options{
		Accounts: accounts,
		Policy:   policy,
		Logger:   log,
		Clock:    func() time.Time { return f.start },
	})
	f.engine = New(accounts, policy, f.events, log)
	return f
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{Email: uuid.NewString()[:8] + "@x.io", Password: "h", ReferralCode: uuid.NewString()[:8], Status: models.StatusActive}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) fixed(t *testing.T, userID uint, amount string, months int) *models.FixedSave {
	t.Helper()
	fs, _, err := f.savings.CreateFixedTerm(context.Background(), userID, savings.FixedTermRequest{Amount: money.MustParse(amount), DurationMonths: months})
	require.NoError(t, err)
	return fs
}

func (f *fixture) load(t *testing.T, userID uint) *models.User {
	t.Helper()
	u, err := f.savings.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	return u
}

func countInterest(t *testing.T, db *gorm.DB, fixedID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("type = ? AND fixed_save_id = ?", models.TransactionTypeInterest, fixedID).Count(&n).Error)
	return n
}

func TestSweepAccruesOncePerDay(t *testing.T) {
	f := newTestEngine(t)
	u := f.user(t)
	fs := f.fixed(t, u.ID, "3650", 6) // 10% → exactly 1.00 a day
	ctx := context.Background()

	asOf := f.start.Add(2 * time.Hour)
	report, err := f.engine.RunDailyAccrualAndMaturitySweep(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accrued)
	assert.Equal(t, "1", report.InterestTotal.String())

	report, err = f.engine.RunDailyAccrualAndMaturitySweep(ctx, asOf.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.Accrued)
	assert.Equal(t, 1, report.Skipped)
	assert.EqualValues(t, 1, countInterest(t, f.db, fs.ID))

	got := f.load(t, u.ID)
	assert.Equal(t, "3651", got.TotalBalance.String())
	assert.Equal(t, "1", got.FixedTerms[0].AccruedInterest.String())
	assert.Equal(t, "3650", got.FixedTerms[0].Amount.String())
	assert.True(t, got.TotalBalance.Equal(got.ExpectedTotal()))

	_, err = f.engine.RunDailyAccrualAndMaturitySweep(ctx, asOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, countInterest(t, f.db, fs.ID))
	assert.Equal(t, 2, f.events.count(notify.EventInterestEarned))
}

func TestSweepSkipsNotificationBelowThreshold(t *testing.T) {
	f := newTestEngine(t)
	u := f.user(t)
	f.fixed(t, u.ID, "100", 3)

	report, err := f.engine.RunDailyAccrualAndMaturitySweep(context.Background(), f.start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accrued)
	assert.Zero(t, f.events.count(notify.EventInterestEarned))
}

func TestSweepMaturesOnceAndNeverReverts(t *testing.T) {
	f := newTestEngine(t)
	u := f.user(t)
	fs := f.fixed(t, u.ID, "500", 1)
	ctx := context.Background()

	report, err := f.engine.RunDailyAccrualAndMaturitySweep(ctx, fs.MaturityDate.Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, report.Matured)

	report, err = f.engine.RunDailyAccrualAndMaturitySweep(ctx, fs.MaturityDate)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matured)
	assert.Zero(t, report.Accrued)

	report, err = f.engine.RunDailyAccrualAndMaturitySweep(ctx, fs.MaturityDate.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Zero(t, report.Accounts)

	got := f.load(t, u.ID)
	require.Len(t, got.FixedTerms, 1)
	assert.True(t, got.FixedTerms[0].IsMatured)
	assert.NotNil(t, got.FixedTerms[0].MaturedAt)
	assert.Equal(t, 1, f.events.count(notify.EventMaturityAlert))
	assert.True(t, got.TotalBalance.Equal(got.ExpectedTotal()))
}

func TestSweepIgnoresAccountStatus(t *testing.T) {
	f := newTestEngine(t)
	u := f.user(t)
	f.fixed(t, u.ID, "3650", 12)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", u.ID).Update("status", models.StatusSuspended).Error)

	report, err := f.engine.RunDailyAccrualAndMaturitySweep(context.Background(), f.start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accrued)
}

func TestSweepManyAccountsInParallel(t *testing.T) {
	f := newTestEngine(t)
	var users []uint
	for i := 0; i < 6; i++ {
		u := f.user(t)
		f.fixed(t, u.ID, "730", 6)
		f.fixed(t, u.ID, "365", 12)
		users = append(users, u.ID)
	}

	report, err := f.engine.RunDailyAccrualAndMaturitySweep(context.Background(), f.start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 6, report.Accounts)
	assert.Equal(t, 12, report.Accrued)
	assert.Zero(t, report.Failed)

	for _, id := range users {
		got := f.load(t, id)
		// 730×10%/365 = 0.2 and 365×12%/365 = 0.12
		assert.Equal(t, "1095.32", got.TotalBalance.String())
		assert.True(t, got.TotalBalance.Equal(got.ExpectedTotal()))
	}
}

func TestSweepDoesNotAccrueBeforeStart(t *testing.T) {
	f := newTestEngine(t)
	u := f.user(t)
	f.fixed(t, u.ID, "3650", 6)

	report, err := f.engine.RunDailyAccrualAndMaturitySweep(context.Background(), f.start.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, report.Accrued)
	assert.Equal(t, 1, report.Skipped)
}

func TestRunRetention(t *testing.T) {
	f := newTestEngine(t)
	u := f.user(t)
	fs := f.fixed(t, u.ID, "100", 3)
	ctx := context.Background()

	_, err := f.engine.RunDailyAccrualAndMaturitySweep(ctx, f.start.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("type = ?", models.TransactionTypeInterest).
		UpdateColumn("created_at", f.start.AddDate(0, 0, -45)).Error)

	n, err := f.engine.RunRetention(ctx, f.start)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, countInterest(t, f.db, fs.ID))

	// The fixed-term deposit itself is never purged.
	var deposits int64
	f.db.Model(&models.Transaction{}).Where("type = ?", models.TransactionTypeDeposit).Count(&deposits)
	assert.EqualValues(t, 1, deposits)
}

func savingsGoal(name, target string, deadline time.Time) savings.GoalRequest {
	return savings.GoalRequest{Name: name, TargetAmount: money.MustParse(target), Deadline: deadline}
}
