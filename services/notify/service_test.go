package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"flexvest/database"
	"flexvest/models"
	"flexvest/utils/apperror"
	"flexvest/utils/money"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func newTestService(t *testing.T, mailer Mailer) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(db, mailer, log), db
}

func createUser(t *testing.T, db *gorm.DB, email string, emailOptIn bool) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", ReferralCode: email[:4], Status: models.StatusActive, EmailNotifications: true}
	require.NoError(t, db.Create(u).Error)
	if !emailOptIn {
		require.NoError(t, db.Model(u).Update("email_notifications", false).Error)
	}
	return u
}

func TestDeliverPersistsAndEmails(t *testing.T) {
	mailer := &fakeMailer{}
	svc, db := newTestService(t, mailer)
	user := createUser(t, db, "ada@x.io", true)

	ev := GoalAchieved{GoalID: 3, GoalName: "Car", TargetAmount: money.MustParse("100"), CurrentAmount: money.MustParse("120")}
	require.NoError(t, svc.Deliver(context.Background(), user.ID, ev))

	var n models.Notification
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, "goal_achieved", n.Type)
	assert.Equal(t, models.PriorityHigh, n.Priority)
	assert.Equal(t, models.DeliveryBoth, n.DeliveryMethod)
	assert.True(t, n.EmailSent)
	assert.Contains(t, string(n.Data), `"goalName":"Car"`)
	assert.Equal(t, []string{"ada@x.io|Goal Achieved"}, mailer.sent)
}

func TestDeliverRespectsEmailPreference(t *testing.T) {
	mailer := &fakeMailer{}
	svc, db := newTestService(t, mailer)
	user := createUser(t, db, "bob@x.io", false)

	require.NoError(t, svc.Deliver(context.Background(), user.ID, ReferralApplied{ReferrerID: 9, Code: "ABC123"}))

	assert.Empty(t, mailer.sent)
	var n models.Notification
	require.NoError(t, db.First(&n).Error)
	assert.Equal(t, models.DeliveryInApp, n.DeliveryMethod)
	assert.False(t, n.EmailSent)
}

func TestNotifySwallowsMailFailure(t *testing.T) {
	svc, db := newTestService(t, &fakeMailer{err: errors.New("smtp down")})
	user := createUser(t, db, "cat@x.io", true)

	svc.Notify(context.Background(), user.ID, InterestEarned{FixedSaveID: 1, Amount: money.MustParse("1.5")})
	svc.Wait()

	var n models.Notification
	require.NoError(t, db.First(&n).Error)
	assert.False(t, n.EmailSent)
}

func TestListAndMarkRead(t *testing.T) {
	svc, db := newTestService(t, nil)
	user := createUser(t, db, "dan@x.io", true)
	other := createUser(t, db, "eve@x.io", true)

	ctx := context.Background()
	require.NoError(t, svc.Deliver(ctx, user.ID, ReferralApplied{Code: "A"}))
	require.NoError(t, svc.Deliver(ctx, user.ID, ReferralApplied{Code: "B"}))
	require.NoError(t, svc.Deliver(ctx, other.ID, ReferralApplied{Code: "C"}))

	items, err := List(db, user.ID, true, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Contains(t, items[0].Message, "B")

	require.NoError(t, MarkRead(db, user.ID, items[0].ID))
	assert.ErrorIs(t, MarkRead(db, other.ID, items[1].ID), apperror.ErrNotFound)

	items, err = List(db, user.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRenderEmail(t *testing.T) {
	subject, body := renderEmail(SavingsReminder{GoalName: "<House>", DaysRemaining: 4,
		CurrentAmount: money.MustParse("10"), TargetAmount: money.MustParse("100"), RequiredDaily: money.MustParse("22.5")})
	assert.Equal(t, "Savings Goal Reminder", subject)
	assert.Contains(t, body, "22.50")
	assert.Contains(t, body, "Days remaining: <strong>4</strong>")
	assert.NotContains(t, body, "<House>")
}
