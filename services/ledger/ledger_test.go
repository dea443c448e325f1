package ledger

import (
	"context"
	"testing"
	"time"

	"flexvest/database"
	"flexvest/models"
	"flexvest/utils/apperror"
	"flexvest/utils/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return db
}

func deposit(userID uint, amount string, savings models.SavingsType) *models.Transaction {
	return &models.Transaction{
		UserID:      userID,
		Type:        models.TransactionTypeDeposit,
		SavingsType: savings,
		Amount:      money.MustParse(amount),
		Currency:    string(money.USDT),
		Status:      models.TransactionStatusCompleted,
	}
}

func TestAppendDefaults(t *testing.T) {
	db := newTestDB(t)

	tx := &models.Transaction{
		UserID:   1,
		Type:     models.TransactionTypeWithdrawal,
		Amount:   money.MustParse("5"),
		Currency: "USDC",
	}
	require.NoError(t, Append(db, tx))

	assert.NotZero(t, tx.ID)
	assert.NotEmpty(t, tx.Reference)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, models.MethodInternal, tx.Method)
	assert.Nil(t, tx.ResolvedAt)
}

func TestAppendRejectsInvalid(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name string
		tx   models.Transaction
		want error
	}{
		{"zero amount", models.Transaction{Type: models.TransactionTypeDeposit, Amount: money.MustParse("0"), Currency: "USDT"}, apperror.ErrInvalidAmount},
		{"negative amount", models.Transaction{Type: models.TransactionTypeDeposit, Amount: money.MustParse("-1"), Currency: "USDT"}, apperror.ErrInvalidAmount},
		{"bad currency", models.Transaction{Type: models.TransactionTypeDeposit, Amount: money.MustParse("1"), Currency: "BTC"}, apperror.ErrInvalidCurrency},
		{"bad type", models.Transaction{Type: "gift", Amount: money.MustParse("1"), Currency: "USDT"}, apperror.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			err := Append(db, &tx)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	assert.Zero(t, count)
}

func TestTransitionIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	tx := deposit(1, "10", models.SavingsFlex)
	tx.Status = models.TransactionStatusPending
	require.NoError(t, Append(db, tx))

	got, changed, err := Transition(db, tx.ID, models.TransactionStatusCompleted, "0xabc")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "0xabc", got.TransactionHash)
	assert.NotNil(t, got.ResolvedAt)

	got, changed, err = Transition(db, tx.ID, models.TransactionStatusCompleted, "0xother")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "0xabc", got.TransactionHash)

	_, _, err = Transition(db, tx.ID, models.TransactionStatusFailed, "")
	assert.ErrorIs(t, err, apperror.ErrAlreadyResolved)

	_, _, err = Transition(db, tx.ID, models.TransactionStatusPending, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, _, err = Transition(db, 999, models.TransactionStatusFailed, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, Append(db, deposit(1, "1", models.SavingsFlex)))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, Append(db, deposit(1, "2", models.SavingsGoal)))
	}
	require.NoError(t, Append(db, deposit(2, "9", models.SavingsFlex)))

	page, err := List(db, Query{UserID: 1, Limit: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 8, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 3)
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID)

	page, err = List(db, Query{UserID: 1, SavingsType: models.SavingsGoal, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	for _, item := range page.Items {
		assert.Equal(t, models.SavingsGoal, item.SavingsType)
	}

	page, err = List(db, Query{UserID: 1, Page: 3, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = List(db, Query{UserID: 1, Type: models.TransactionTypeWithdrawal})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
	assert.Equal(t, DefaultLimit, page.Limit)
}

func TestRecentAndSum(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, Append(db, deposit(1, "1.5", models.SavingsFlex)))
	require.NoError(t, Append(db, deposit(1, "2.25", models.SavingsFlex)))
	pending := deposit(1, "100", models.SavingsFlex)
	pending.Status = models.TransactionStatusPending
	require.NoError(t, Append(db, pending))

	recent, err := Recent(db, 1, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, pending.ID, recent[0].ID)

	sum, err := SumCompleted(db, 1, models.TransactionTypeDeposit, time.Time{})
	require.NoError(t, err)
	assert.True(t, sum.Equal(money.MustParse("3.75")), sum.String())
}

func TestPurgeInterest(t *testing.T) {
	db := newTestDB(t)
	old := time.Now().UTC().AddDate(0, 0, -40)

	small := &models.Transaction{UserID: 1, Type: models.TransactionTypeInterest, SavingsType: models.SavingsFixed,
		Amount: money.MustParse("0.5"), Currency: "USDT", Status: models.TransactionStatusCompleted}
	large := &models.Transaction{UserID: 1, Type: models.TransactionTypeInterest, SavingsType: models.SavingsFixed,
		Amount: money.MustParse("3"), Currency: "USDT", Status: models.TransactionStatusCompleted}
	fresh := &models.Transaction{UserID: 1, Type: models.TransactionTypeInterest, SavingsType: models.SavingsFixed,
		Amount: money.MustParse("0.5"), Currency: "USDT", Status: models.TransactionStatusCompleted}
	oldDeposit := deposit(1, "0.5", models.SavingsFlex)
	for _, tx := range []*models.Transaction{small, large, fresh, oldDeposit} {
		require.NoError(t, Append(db, tx))
	}
	for _, tx := range []*models.Transaction{small, large, oldDeposit} {
		require.NoError(t, db.Model(tx).UpdateColumn("created_at", old).Error)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	n, err := PurgeInterest(context.Background(), db, cutoff, money.MustParse("1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var ids []uint
	require.NoError(t, db.Unscoped().Model(&models.Transaction{}).Order("id").Pluck("id", &ids).Error)
	assert.Equal(t, []uint{large.ID, fresh.ID, oldDeposit.ID}, ids)
}
