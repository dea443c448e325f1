package savings

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"flexvest/database"
	"flexvest/models"
	"flexvest/services/notify"
	"flexvest/services/transfer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
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

// fakeExecutor returns result/err and records requests.
type fakeExecutor struct {
	mu       sync.Mutex
	result   *transfer.Result
	err      error
	block    chan struct{}
	requests []transfer.Request
}

func (f *fakeExecutor) Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, transfer.ErrUnresolved
		}
	}
	return f.result, f.err
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	events   *recorder
	executor *fakeExecutor
	now      time.Time
}

func newTestService(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		db:       db,
		events:   &recorder{},
		executor: &fakeExecutor{result: &transfer.Result{Success: true, TransactionHash: "0xhash"}},
		now:      time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	policy := DefaultPolicy()
	policy.TransferTimeout = time.Second
	f.svc = New(Options{
		Accounts:  NewAccounts(db),
		Policy:    policy,
		Notifier:  f.events,
		Transfers: f.executor,
		Logger:    log,
		Clock:     func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{
		Email:        uuid.NewString()[:8] + "@example.com",
		Password:     "hash",
		ReferralCode: uuid.NewString()[:8],
		Status:       models.StatusActive,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) reload(t *testing.T, id uint) *models.User {
	t.Helper()
	u, err := f.svc.Accounts().Load(context.Background(), id)
	require.NoError(t, err)
	return u
}
