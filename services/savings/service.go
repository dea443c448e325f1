// Package savings owns the per-user savings aggregate: flex balance, goals and
// fixed terms. Every mutation runs under the account lock and writes its
// ledger record in the same database transaction.
package savings

import (
	"context"
	"errors"
	"strings"
	"time"

	"flexvest/metrics"
	"flexvest/models"
	"flexvest/services/exchange"
	"flexvest/services/ledger"
	"flexvest/services/notify"
	"flexvest/services/transfer"
	"flexvest/utils/apperror"
	"flexvest/utils/logger"
	"flexvest/utils/money"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Options struct {
	Accounts  *Accounts
	Policy    Policy
	Notifier  notify.Dispatcher
	Transfers transfer.Executor
	// Rates is optional. When set, deposits record the conversion at the
	// time of the deposit.
	Rates     exchange.Source
	RateBase  string
	RateQuote string
	Logger    logrus.FieldLogger
	Clock     func() time.Time
}

type Service struct {
	accounts  *Accounts
	policy    Policy
	notifier  notify.Dispatcher
	transfers transfer.Executor
	rates     exchange.Source
	rateBase  string
	rateQuote string
	log       logrus.FieldLogger
	now       func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		accounts:  opts.Accounts,
		policy:    opts.Policy,
		notifier:  opts.Notifier,
		transfers: opts.Transfers,
		rates:     opts.Rates,
		rateBase:  opts.RateBase,
		rateQuote: opts.RateQuote,
		log:       logger.Component(opts.Logger, "savings"),
		now:       opts.Clock,
	}
	if s.notifier == nil {
		s.notifier = NopDispatcher{}
	}
	if s.transfers == nil {
		s.transfers = transfer.Unconfigured{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rateBase == "" {
		s.rateBase = "USD"
	}
	if s.rateQuote == "" {
		s.rateQuote = "NGN"
	}
	return s
}

func (s *Service) Accounts() *Accounts { return s.accounts }
func (s *Service) Policy() Policy      { return s.policy }

// NopDispatcher drops every event.
type NopDispatcher struct{}

func (NopDispatcher) Notify(context.Context, uint, notify.Event) {}

// DepositRequest is an inbound flex deposit. Deposits are credited
// immediately; the hash is the on-chain reference the client already has.
type DepositRequest struct {
	Amount          decimal.Decimal
	Currency        string
	Method          models.TransactionMethod
	TransactionHash string
	WalletAddress   string
}

type WithdrawRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Destination string
}

type GoalRequest struct {
	Name         string
	TargetAmount decimal.Decimal
	Deadline     time.Time
}

type FixedTermRequest struct {
	Amount         decimal.Decimal
	DurationMonths int
	Currency       string
}

// Outcome is the resolved result of an external transfer.
type Outcome struct {
	Success         bool
	TransactionHash string
}

func (s *Service) currency(raw string) (money.Currency, error) {
	c, err := money.ParseCurrency(raw, s.policy.DefaultCurrency)
	if err != nil {
		return "", apperror.ErrInvalidCurrency
	}
	return c, nil
}

// annotateRate fills the fiat conversion columns when a rate is available.
func (s *Service) annotateRate(ctx context.Context, t *models.Transaction) {
	if s.rates == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	r, err := s.rates.Rate(rctx, s.rateBase, s.rateQuote)
	if err != nil {
		s.log.WithError(err).Debug("exchange rate unavailable, deposit recorded without conversion")
		return
	}
	t.ExchangeRate = decimal.NewNullDecimal(r)
	t.NairaEquivalent = decimal.NewNullDecimal(money.Round(t.Amount.Mul(r)))
}

// DepositFlex credits the flex balance.
func (s *Service) DepositFlex(ctx context.Context, userID uint, req DepositRequest) (*models.Transaction, error) {
	if !money.IsPositive(req.Amount) {
		return nil, apperror.ErrInvalidAmount
	}
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	amount := money.Round(req.Amount)
	method := req.Method
	if method == "" {
		method = models.MethodWallet
	}

	t := &models.Transaction{
		UserID:          userID,
		Type:            models.TransactionTypeDeposit,
		SavingsType:     models.SavingsFlex,
		Amount:          amount,
		Currency:        string(cur),
		Status:          models.TransactionStatusCompleted,
		Method:          method,
		TransactionHash: req.TransactionHash,
		WalletAddress:   req.WalletAddress,
		Description:     "Flex savings deposit",
	}
	s.annotateRate(ctx, t)

	err = s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		u.FlexBalance = u.FlexBalance.Add(amount)
		u.TotalBalance = u.TotalBalance.Add(amount)
		if err := SaveBalances(tx, u); err != nil {
			return err
		}
		return ledger.Append(tx, t)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransaction(string(t.Type), string(t.Status))
	s.notifier.Notify(ctx, userID, notify.DepositConfirmed{
		TransactionID: t.ID, Amount: amount, Currency: t.Currency, SavingsType: string(models.SavingsFlex),
	})
	return t, nil
}

// WithdrawFlex reserves amount from the flex balance, records a pending
// withdrawal and then calls the transfer executor outside the lock. A
// rejected transfer restores the reservation; an unknown outcome leaves the
// transaction pending for ResolveTransaction.
func (s *Service) WithdrawFlex(ctx context.Context, userID uint, req WithdrawRequest) (*models.Transaction, error) {
	if !money.IsPositive(req.Amount) {
		return nil, apperror.ErrInvalidAmount
	}
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, apperror.Invalid("destination address is required")
	}
	amount := money.Round(req.Amount)

	pending := &models.Transaction{
		UserID:        userID,
		Type:          models.TransactionTypeWithdrawal,
		SavingsType:   models.SavingsFlex,
		Amount:        amount,
		Currency:      string(cur),
		Status:        models.TransactionStatusPending,
		Method:        models.MethodWallet,
		WalletAddress: destination,
		Description:   "Flex savings withdrawal",
	}
	err = s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		if amount.GreaterThan(u.FlexBalance) {
			return apperror.ErrInsufficientBalance
		}
		u.FlexBalance = u.FlexBalance.Sub(amount)
		u.TotalBalance = u.TotalBalance.Sub(amount)
		if err := SaveBalances(tx, u); err != nil {
			return err
		}
		return ledger.Append(tx, pending)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordTransaction(string(pending.Type), string(pending.Status))

	log := s.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": pending.ID, "reference": pending.Reference})

	tctx, cancel := context.WithTimeout(ctx, s.policy.TransferTimeout)
	res, err := s.transfers.Transfer(tctx, transfer.Request{
		Reference:   pending.Reference,
		Destination: destination,
		Amount:      amount,
		Currency:    string(cur),
	})
	cancel()
	if err != nil {
		log.WithError(err).Warn("transfer outcome unknown, withdrawal left pending")
		return pending, nil
	}

	if !res.Success {
		failed, rerr := s.resolveWithRetry(ctx, pending.ID, Outcome{Success: false, TransactionHash: res.TransactionHash})
		if rerr != nil {
			log.WithError(rerr).Error("could not mark rejected withdrawal failed")
			return pending, rerr
		}
		log.WithField("reason", res.Reason).Info("transfer rejected, reservation restored")
		e := apperror.New(apperror.KindExternal, apperror.ErrTransferFailed.Code, apperror.ErrTransferFailed.Message)
		if res.Reason != "" {
			e.Err = errors.New(res.Reason)
		}
		return failed, e
	}

	done, rerr := s.resolveWithRetry(ctx, pending.ID, Outcome{Success: true, TransactionHash: res.TransactionHash})
	if rerr != nil {
		log.WithError(rerr).Error("transfer succeeded but status update failed, left pending")
		return pending, nil
	}
	s.notifier.Notify(ctx, userID, notify.WithdrawalConfirmed{
		TransactionID: done.ID, Amount: amount, Currency: done.Currency,
		Destination: destination, TransactionHash: done.TransactionHash,
	})
	return done, nil
}

const resolveAttempts = 3

func (s *Service) resolveWithRetry(ctx context.Context, txID uint, outcome Outcome) (*models.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		t, err := s.ResolveTransaction(ctx, txID, outcome)
		if err == nil {
			return t, nil
		}
		lastErr = err
		// Classified errors are final; only raw storage errors are retried.
		if apperror.KindOf(err) != apperror.KindInternal {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return nil, lastErr
}

// ResolveTransaction applies an external outcome to a pending transaction.
// It is idempotent by transaction id: resolving again with the same outcome
// is a no-op, and a failed withdrawal restores its reservation exactly once.
func (s *Service) ResolveTransaction(ctx context.Context, txID uint, outcome Outcome) (*models.Transaction, error) {
	var head models.Transaction
	err := s.accounts.DB().WithContext(ctx).Select("id", "user_id").First(&head, txID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("transaction")
	}
	if err != nil {
		return nil, err
	}

	status := models.TransactionStatusFailed
	if outcome.Success {
		status = models.TransactionStatusCompleted
	}

	var (
		out     *models.Transaction
		changed bool
	)
	// Resolution must go through even if the account was deactivated while
	// the transfer was in flight.
	err = s.accounts.Mutate(ctx, head.UserID, false, func(tx *gorm.DB, u *models.User) error {
		t, ok, err := ledger.Transition(tx, txID, status, outcome.TransactionHash)
		if err != nil {
			return err
		}
		out, changed = t, ok
		if !changed || status != models.TransactionStatusFailed || t.Type != models.TransactionTypeWithdrawal {
			return nil
		}
		u.FlexBalance = u.FlexBalance.Add(t.Amount)
		u.TotalBalance = u.TotalBalance.Add(t.Amount)
		return SaveBalances(tx, u)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.RecordTransaction(string(out.Type), string(out.Status))
	}
	return out, nil
}

// CreateGoal opens a zero-balance goal.
func (s *Service) CreateGoal(ctx context.Context, userID uint, req GoalRequest) (*models.GoalSave, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Invalid("goal name is required")
	}
	if !money.IsPositive(req.TargetAmount) {
		return nil, apperror.ErrInvalidAmount
	}
	if !req.Deadline.After(s.now()) {
		return nil, apperror.ErrInvalidDate
	}

	goal := &models.GoalSave{
		UserID:        userID,
		Name:          name,
		TargetAmount:  money.Round(req.TargetAmount),
		CurrentAmount: decimal.Zero,
		Deadline:      req.Deadline.UTC(),
	}
	err := s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		return tx.Create(goal).Error
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// DepositGoal credits one goal. Crossing the target emits GoalAchieved once;
// later deposits into an achieved goal do not.
func (s *Service) DepositGoal(ctx context.Context, userID, goalID uint, req DepositRequest) (*models.Transaction, *models.GoalSave, error) {
	if !money.IsPositive(req.Amount) {
		return nil, nil, apperror.ErrInvalidAmount
	}
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, nil, err
	}
	amount := money.Round(req.Amount)
	method := req.Method
	if method == "" {
		method = models.MethodWallet
	}

	t := &models.Transaction{
		UserID:          userID,
		Type:            models.TransactionTypeDeposit,
		SavingsType:     models.SavingsGoal,
		GoalID:          &goalID,
		Amount:          amount,
		Currency:        string(cur),
		Status:          models.TransactionStatusCompleted,
		Method:          method,
		TransactionHash: req.TransactionHash,
		WalletAddress:   req.WalletAddress,
	}
	s.annotateRate(ctx, t)

	var (
		goal     models.GoalSave
		achieved bool
	)
	err = s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		g := u.Goal(goalID)
		if g == nil {
			return apperror.NotFound("goal")
		}
		g.CurrentAmount = g.CurrentAmount.Add(amount)
		if g.AchievedAt == nil && g.Achieved() {
			ts := s.now().UTC()
			g.AchievedAt = &ts
			achieved = true
		}
		err := tx.Model(&models.GoalSave{}).Where("id = ?", g.ID).Updates(map[string]interface{}{
			"current_amount": g.CurrentAmount,
			"achieved_at":    g.AchievedAt,
		}).Error
		if err != nil {
			return err
		}

		u.TotalBalance = u.TotalBalance.Add(amount)
		if err := SaveBalances(tx, u); err != nil {
			return err
		}
		t.Description = "Deposit to goal: " + g.Name
		goal = *g
		return ledger.Append(tx, t)
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordTransaction(string(t.Type), string(t.Status))
	s.notifier.Notify(ctx, userID, notify.DepositConfirmed{
		TransactionID: t.ID, Amount: amount, Currency: t.Currency, SavingsType: string(models.SavingsGoal),
	})
	if achieved {
		s.notifier.Notify(ctx, userID, notify.GoalAchieved{
			GoalID: goal.ID, GoalName: goal.Name, TargetAmount: goal.TargetAmount, CurrentAmount: goal.CurrentAmount,
		})
	}
	return t, &goal, nil
}

// CreateFixedTerm locks a new deposit at the tier rate for its duration.
// Funding is inbound, so the deposit transaction is completed immediately.
func (s *Service) CreateFixedTerm(ctx context.Context, userID uint, req FixedTermRequest) (*models.FixedSave, *models.Transaction, error) {
	if !money.IsPositive(req.Amount) {
		return nil, nil, apperror.ErrInvalidAmount
	}
	rate, err := s.policy.RateFor(req.DurationMonths)
	if err != nil {
		return nil, nil, err
	}
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, nil, err
	}
	amount := money.Round(req.Amount)
	start := s.now().UTC()

	fixed := &models.FixedSave{
		UserID:          userID,
		Amount:          amount,
		Currency:        string(cur),
		InterestRate:    rate,
		DurationMonths:  req.DurationMonths,
		StartDate:       start,
		MaturityDate:    start.AddDate(0, req.DurationMonths, 0),
		IsMatured:       false,
		AccruedInterest: decimal.Zero,
	}
	var t *models.Transaction
	err = s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		if err := tx.Create(fixed).Error; err != nil {
			return err
		}
		u.TotalBalance = u.TotalBalance.Add(amount)
		if err := SaveBalances(tx, u); err != nil {
			return err
		}
		t = &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeDeposit,
			SavingsType: models.SavingsFixed,
			FixedSaveID: &fixed.ID,
			Amount:      amount,
			Currency:    string(cur),
			Status:      models.TransactionStatusCompleted,
			Method:      models.MethodWallet,
			Description: "Fixed savings deposit",
		}
		return ledger.Append(tx, t)
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.RecordTransaction(string(t.Type), string(t.Status))
	s.notifier.Notify(ctx, userID, notify.FixedSaveCreated{
		FixedSaveID: fixed.ID, Amount: amount, Currency: fixed.Currency,
		InterestRate: rate, MaturityDate: fixed.MaturityDate,
	})
	return fixed, t, nil
}

// Summary is the savings dashboard view.
type Summary struct {
	TotalBalance       decimal.Decimal      `json:"totalBalance"`
	FlexBalance        decimal.Decimal      `json:"flexSave"`
	GoalBalance        decimal.Decimal      `json:"goalSave"`
	FixedBalance       decimal.Decimal      `json:"fixedSave"`
	AccruedInterest    decimal.Decimal      `json:"accruedInterest"`
	ReferralEarnings   decimal.Decimal      `json:"referralEarnings"`
	Goals              []models.GoalSave    `json:"goals"`
	FixedTerms         []models.FixedSave   `json:"fixedTerms"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

const recentTransactions = 5

func (s *Service) Summary(ctx context.Context, userID uint) (*Summary, error) {
	u, err := s.accounts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := ledger.Recent(s.accounts.DB().WithContext(ctx), userID, recentTransactions)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TotalBalance:       u.TotalBalance,
		FlexBalance:        u.FlexBalance,
		GoalBalance:        u.GoalTotal(),
		FixedBalance:       u.FixedTotal(),
		AccruedInterest:    u.AccruedInterestTotal(),
		ReferralEarnings:   u.ReferralEarnings,
		Goals:              u.Goals,
		FixedTerms:         u.FixedTerms,
		RecentTransactions: recent,
	}, nil
}

// History pages through userID's ledger, newest first.
func (s *Service) History(ctx context.Context, userID uint, q ledger.Query) (*ledger.Page, error) {
	q.UserID = userID
	return ledger.List(s.accounts.DB().WithContext(ctx), q)
}

func (s *Service) GetAccount(ctx context.Context, userID uint) (*models.User, error) {
	return s.accounts.Load(ctx, userID)
}
