package engine

import (
	"context"
	"time"

	"flexvest/services/ledger"

	"github.com/sirupsen/logrus"
)

// RunRetention deletes immaterial interest records older than the retention
// window. Storage hygiene only; balances are unaffected.
func (e *Engine) RunRetention(ctx context.Context, asOf time.Time) (int64, error) {
	cutoff := asOf.AddDate(0, 0, -e.policy.InterestRetentionDays)
	n, err := ledger.PurgeInterest(ctx, e.accounts.DB(), cutoff, e.policy.InterestPurgeBelow)
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"below":   e.policy.InterestPurgeBelow.String(),
		"removed": n,
	}).Info("[SAVINGS-SCHEDULER] interest retention sweep completed")
	return n, nil
}
