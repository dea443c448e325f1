// Package analytics builds read-only reports over the ledger and the savings
// aggregate. Nothing here writes.
package analytics

import (
	"context"
	"time"

	"flexvest/models"
	"flexvest/services/exchange"
	"flexvest/services/ledger"
	"flexvest/services/savings"
	"flexvest/utils/apperror"
	"flexvest/utils/logger"
	"flexvest/utils/money"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service struct {
	accounts *savings.Accounts
	rates    exchange.Source
	base     string
	quote    string
	log      logrus.FieldLogger
	now      func() time.Time
}

func New(accounts *savings.Accounts, rates exchange.Source, base, quote string, log logrus.FieldLogger) *Service {
	return &Service{
		accounts: accounts,
		rates:    rates,
		base:     base,
		quote:    quote,
		log:      logger.Component(log, "analytics"),
		now:      time.Now,
	}
}

// PeriodStart maps 1m, 3m, 6m and 1y to the window start; anything else is
// treated as 1y.
func PeriodStart(period string, end time.Time) time.Time {
	switch period {
	case "1m":
		return end.AddDate(0, -1, 0)
	case "3m":
		return end.AddDate(0, -3, 0)
	case "6m":
		return end.AddDate(0, -6, 0)
	default:
		return end.AddDate(-1, 0, 0)
	}
}

type GrowthPoint struct {
	Date         string           `json:"date"`
	Balance      decimal.Decimal  `json:"balance"`
	BalanceNaira *decimal.Decimal `json:"balanceNaira,omitempty"`
}

type Distribution struct {
	FlexSave  decimal.Decimal `json:"flexSave"`
	GoalSave  decimal.Decimal `json:"goalSave"`
	FixedSave decimal.Decimal `json:"fixedSave"`
}

type Growth struct {
	Period              string              `json:"period"`
	GrowthChart         []GrowthPoint       `json:"growthChart"`
	InterestEarned      decimal.Decimal     `json:"interestEarned"`
	SavingsDistribution Distribution        `json:"savingsDistribution"`
	TotalBalance        decimal.Decimal     `json:"totalBalance"`
	TotalBalanceNaira   decimal.NullDecimal `json:"totalBalanceNaira"`
	ExchangeRate        decimal.NullDecimal `json:"exchangeRate"`
	Warning             string              `json:"warning,omitempty"`
}

// Growth charts the running balance of completed money movements over the
// period. Credits (deposits, interest, referral bonuses) add and withdrawals
// subtract. A failing rate source drops the fiat columns and sets Warning.
func (s *Service) Growth(ctx context.Context, userID uint, period string) (*Growth, error) {
	u, err := s.accounts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	end := s.now()
	start := PeriodStart(period, end)
	if period != "1m" && period != "3m" && period != "6m" {
		period = "1y"
	}

	db := s.accounts.DB().WithContext(ctx)
	txs, err := ledger.Completed(db, userID, start, end.Add(time.Nanosecond))
	if err != nil {
		return nil, err
	}
	interest, err := ledger.SumCompleted(db, userID, models.TransactionTypeInterest, start)
	if err != nil {
		return nil, err
	}

	out := &Growth{
		Period:         period,
		GrowthChart:    RunningBalance(txs),
		InterestEarned: interest,
		SavingsDistribution: Distribution{
			FlexSave:  u.FlexBalance,
			GoalSave:  u.GoalTotal(),
			FixedSave: u.FixedTotal(),
		},
		TotalBalance: u.TotalBalance,
	}

	rate, err := s.rate(ctx)
	if err != nil {
		s.log.WithError(err).Warn("growth analytics served without exchange rate")
		out.Warning = "exchange rate unavailable; fiat values omitted"
		return out, nil
	}
	out.ExchangeRate = decimal.NewNullDecimal(rate)
	out.TotalBalanceNaira = decimal.NewNullDecimal(money.Round(u.TotalBalance.Mul(rate)))
	for i := range out.GrowthChart {
		v := money.Round(out.GrowthChart[i].Balance.Mul(rate))
		out.GrowthChart[i].BalanceNaira = &v
	}
	return out, nil
}

// RunningBalance folds transactions (oldest first) into one point per UTC
// date holding the balance after that day's last movement.
func RunningBalance(txs []models.Transaction) []GrowthPoint {
	points := make([]GrowthPoint, 0)
	balance := decimal.Zero
	for _, t := range txs {
		switch t.Type {
		case models.TransactionTypeDeposit, models.TransactionTypeInterest, models.TransactionTypeReferralBonus:
			balance = balance.Add(t.Amount)
		case models.TransactionTypeWithdrawal:
			balance = balance.Sub(t.Amount)
		default:
			continue
		}
		date := t.CreatedAt.UTC().Format("2006-01-02")
		if n := len(points); n > 0 && points[n-1].Date == date {
			points[n-1].Balance = balance
			continue
		}
		points = append(points, GrowthPoint{Date: date, Balance: balance})
	}
	return points
}

type GoalProgress struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      time.Time       `json:"deadline"`
	Progress      decimal.Decimal `json:"progress"`
	RemainingDays int             `json:"remainingDays"`
	Achieved      bool            `json:"achieved"`
}

func (s *Service) GoalsProgress(ctx context.Context, userID uint) ([]GoalProgress, error) {
	u, err := s.accounts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	asOf := s.now()
	out := make([]GoalProgress, 0, len(u.Goals))
	for _, g := range u.Goals {
		days := savings.DaysRemaining(g.Deadline, asOf)
		if days < 0 {
			days = 0
		}
		out = append(out, GoalProgress{
			ID:            g.ID,
			Name:          g.Name,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Deadline:      g.Deadline,
			Progress:      money.Percent(g.CurrentAmount, g.TargetAmount),
			RemainingDays: days,
			Achieved:      g.Achieved(),
		})
	}
	return out, nil
}

type FixedSaving struct {
	ID               uint            `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	InterestRate     decimal.Decimal `json:"interestRate"`
	StartDate        time.Time       `json:"startDate"`
	MaturityDate     time.Time       `json:"maturityDate"`
	IsMatured        bool            `json:"isMatured"`
	DaysToMaturity   int             `json:"daysToMaturity"`
	ExpectedInterest decimal.Decimal `json:"expectedInterest"`
	AccruedInterest  decimal.Decimal `json:"accruedInterest"`
}

// FixedSavings projects each term's remaining interest to maturity.
func (s *Service) FixedSavings(ctx context.Context, userID uint) ([]FixedSaving, error) {
	u, err := s.accounts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	asOf := s.now()
	out := make([]FixedSaving, 0, len(u.FixedTerms))
	for _, f := range u.FixedTerms {
		days := savings.DaysRemaining(f.MaturityDate, asOf)
		if days < 0 {
			days = 0
		}
		expected := decimal.Zero
		if !f.IsMatured {
			expected = money.PeriodInterest(f.Amount, f.InterestRate, days)
		}
		out = append(out, FixedSaving{
			ID:               f.ID,
			Amount:           f.Amount,
			InterestRate:     f.InterestRate,
			StartDate:        f.StartDate,
			MaturityDate:     f.MaturityDate,
			IsMatured:        f.IsMatured,
			DaysToMaturity:   days,
			ExpectedInterest: expected,
			AccruedInterest:  f.AccruedInterest,
		})
	}
	return out, nil
}

type RateHistory struct {
	Base        string              `json:"base"`
	Quote       string              `json:"quote"`
	Rates       []exchange.Point    `json:"rates"`
	CurrentRate decimal.NullDecimal `json:"currentRate"`
}

const (
	DefaultRateDays = 30
	MaxRateDays     = 365
)

// ExchangeRates returns the last days of rates. Source failures surface as
// External errors.
func (s *Service) ExchangeRates(ctx context.Context, days int) (*RateHistory, error) {
	if days <= 0 {
		days = DefaultRateDays
	}
	if days > MaxRateDays {
		return nil, apperror.Invalid("days must be at most 365")
	}
	if s.rates == nil {
		return nil, apperror.ErrRateUnavailable
	}
	end := s.now().UTC()
	points, err := s.rates.History(ctx, s.base, s.quote, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, s.external(err)
	}

	out := &RateHistory{Base: s.base, Quote: s.quote, Rates: points}
	if n := len(points); n > 0 {
		out.CurrentRate = decimal.NewNullDecimal(points[n-1].Rate)
		return out, nil
	}
	r, err := s.rate(ctx)
	if err != nil {
		return nil, s.external(err)
	}
	out.CurrentRate = decimal.NewNullDecimal(r)
	return out, nil
}

func (s *Service) rate(ctx context.Context) (decimal.Decimal, error) {
	if s.rates == nil {
		return decimal.Zero, apperror.ErrRateUnavailable
	}
	return s.rates.Rate(ctx, s.base, s.quote)
}

func (s *Service) external(err error) error {
	if apperror.KindOf(err) == apperror.KindExternal {
		return err
	}
	return apperror.External(apperror.ErrRateUnavailable.Code, err)
}
