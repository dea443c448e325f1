package savings

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"flexvest/config"
	"flexvest/utils/apperror"
	"flexvest/utils/money"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

// RateTier applies Rate (annual %) to durations up to MaxMonths. MaxMonths 0
// is the open-ended top tier.
type RateTier struct {
	MaxMonths int
	Rate      decimal.Decimal
}

// Policy collects the product tunables every savings component shares.
type Policy struct {
	DefaultCurrency         money.Currency
	ReferralBonus           decimal.Decimal
	ReferralCodeLength      int
	RateTiers               []RateTier
	MinDurationMonths       int
	MaxDurationMonths       int
	InterestNotifyThreshold decimal.Decimal
	InterestRetentionDays   int
	InterestPurgeBelow      decimal.Decimal
	TransferTimeout         time.Duration
	SweepWorkers            int
	// Location defines calendar-day boundaries for accrual.
	Location *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultCurrency:    money.USDT,
		ReferralBonus:      decimal.NewFromInt(10),
		ReferralCodeLength: 6,
		RateTiers: []RateTier{
			{MaxMonths: 3, Rate: decimal.NewFromInt(8)},
			{MaxMonths: 6, Rate: decimal.NewFromInt(10)},
			{MaxMonths: 12, Rate: decimal.NewFromInt(12)},
			{MaxMonths: 0, Rate: decimal.NewFromInt(15)},
		},
		MinDurationMonths:       1,
		MaxDurationMonths:       24,
		InterestNotifyThreshold: decimal.NewFromInt(1),
		InterestRetentionDays:   30,
		InterestPurgeBelow:      decimal.NewFromInt(1),
		TransferTimeout:         30 * time.Second,
		SweepWorkers:            4,
		Location:                time.UTC,
	}
}

// PolicyFromConfig overlays cfg on the defaults.
func PolicyFromConfig(cfg *config.Config) (Policy, error) {
	p := DefaultPolicy()
	if cfg == nil {
		return p, nil
	}

	cur, err := money.ParseCurrency(cfg.DefaultCurrency, money.USDT)
	if err != nil {
		return p, err
	}
	p.DefaultCurrency = cur

	tiers, err := ParseRateTiers(cfg.RateTiers)
	if err != nil {
		return p, err
	}
	if len(tiers) > 0 {
		p.RateTiers = tiers
	}

	if cfg.ReferralBonus.IsPositive() {
		p.ReferralBonus = cfg.ReferralBonus
	}
	if cfg.ReferralCodeLength >= 4 {
		p.ReferralCodeLength = cfg.ReferralCodeLength
	}
	if cfg.MinDurationMonths > 0 {
		p.MinDurationMonths = cfg.MinDurationMonths
	}
	if cfg.MaxDurationMonths >= p.MinDurationMonths {
		p.MaxDurationMonths = cfg.MaxDurationMonths
	}
	if !cfg.InterestNotifyThreshold.IsNegative() {
		p.InterestNotifyThreshold = cfg.InterestNotifyThreshold
	}
	if cfg.InterestRetentionDays > 0 {
		p.InterestRetentionDays = cfg.InterestRetentionDays
	}
	if cfg.InterestPurgeBelow.IsPositive() {
		p.InterestPurgeBelow = cfg.InterestPurgeBelow
	}
	if cfg.TransferTimeout > 0 {
		p.TransferTimeout = cfg.TransferTimeout
	}
	if cfg.SweepWorkers > 0 {
		p.SweepWorkers = cfg.SweepWorkers
	}
	if cfg.CronTimezone != "" {
		loc, err := time.LoadLocation(cfg.CronTimezone)
		if err != nil {
			return p, fmt.Errorf("CRON_TIMEZONE: %w", err)
		}
		p.Location = loc
	}
	return p, nil
}

// ParseRateTiers reads "3:8,6:10,12:12,0:15".
func ParseRateTiers(s string) ([]RateTier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var tiers []RateTier
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("rate tier %q: want months:rate", part)
		}
		months, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil || months < 0 {
			return nil, fmt.Errorf("rate tier %q: bad months", part)
		}
		r, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil || r.IsNegative() {
			return nil, fmt.Errorf("rate tier %q: bad rate", part)
		}
		tiers = append(tiers, RateTier{MaxMonths: months, Rate: r})
	}
	// Bounded tiers ascending, open-ended tier last.
	sort.SliceStable(tiers, func(i, j int) bool {
		a, b := tiers[i].MaxMonths, tiers[j].MaxMonths
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
	return tiers, nil
}

// RateFor returns the annual rate for a term of months, or
// ErrInvalidDuration outside [MinDurationMonths, MaxDurationMonths].
func (p Policy) RateFor(months int) (decimal.Decimal, error) {
	if months < p.MinDurationMonths || months > p.MaxDurationMonths {
		return decimal.Zero, apperror.ErrInvalidDuration
	}
	for _, tier := range p.RateTiers {
		if tier.MaxMonths == 0 || months <= tier.MaxMonths {
			return tier.Rate, nil
		}
	}
	return decimal.Zero, apperror.ErrInvalidDuration
}

// Day truncates t to the start of its calendar day in the policy location.
func (p Policy) Day(t time.Time) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return now.With(t.In(loc)).BeginningOfDay()
}

// DaysRemaining rounds the time from asOf to deadline up to whole days. A
// deadline less than a day past gives 0; older ones go negative.
func DaysRemaining(deadline, asOf time.Time) int {
	return int(math.Ceil(deadline.Sub(asOf).Hours() / 24))
}
