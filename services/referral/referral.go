// Package referral links users to the account that referred them and pays the
// referrer a fixed bonus.
package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"flexvest/metrics"
	"flexvest/models"
	"flexvest/services/ledger"
	"flexvest/services/notify"
	"flexvest/services/savings"
	"flexvest/utils/apperror"
	"flexvest/utils/logger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts = 5
)

// RandomCode returns n uppercase alphanumerics from crypto/rand.
func RandomCode(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand: %v", err))
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String()
}

type Service struct {
	accounts *savings.Accounts
	policy   savings.Policy
	notifier notify.Dispatcher
	log      logrus.FieldLogger
	codegen  func(n int) string
	now      func() time.Time
}

func New(accounts *savings.Accounts, policy savings.Policy, notifier notify.Dispatcher, log logrus.FieldLogger) *Service {
	if notifier == nil {
		notifier = savings.NopDispatcher{}
	}
	return &Service{
		accounts: accounts,
		policy:   policy,
		notifier: notifier,
		log:      logger.Component(log, "referral"),
		codegen:  RandomCode,
		now:      time.Now,
	}
}

// ApplyResult reports both steps of a referral.
type ApplyResult struct {
	ReferrerID    uint            `json:"referrerId"`
	Bonus         decimal.Decimal `json:"bonus"`
	BonusCredited bool            `json:"bonusCredited"`
}

// ApplyReferralCode records that userID was referred by the owner of code,
// then credits the referrer. The two steps commit separately; a failed
// credit is left for ReconcileReferralBonuses and does not fail the call.
func (s *Service) ApplyReferralCode(ctx context.Context, userID uint, code string) (*ApplyResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperror.Invalid("referral code is required")
	}

	var (
		referrer models.User
		referred models.User
	)
	err := s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		if u.ReferredBy != nil {
			return apperror.ErrAlreadyReferred
		}
		err := tx.Select("id", "email").Where("referral_code = ?", code).First(&referrer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("referral code")
		}
		if err != nil {
			return err
		}
		if referrer.ID == u.ID {
			return apperror.ErrSelfReferral
		}

		ts := s.now().UTC()
		u.ReferredBy = &referrer.ID
		u.ReferredAt = &ts
		referred = *u
		return tx.Model(&models.User{}).Where("id = ? AND referred_by IS NULL", u.ID).Updates(map[string]interface{}{
			"referred_by": referrer.ID,
			"referred_at": ts,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, userID, notify.ReferralApplied{ReferrerID: referrer.ID, Code: code})

	result := &ApplyResult{ReferrerID: referrer.ID, Bonus: s.policy.ReferralBonus}
	credited, err := s.creditReferrer(ctx, referrer.ID, referred.ID, referred.Email)
	if err != nil {
		s.log.WithFields(logrus.Fields{"referrer_id": referrer.ID, "user_id": userID}).
			WithError(err).Error("referral bonus credit failed, will be reconciled")
		return result, nil
	}
	result.BonusCredited = credited
	return result, nil
}

// creditReferrer pays the bonus for referredID once. The referred user's
// ReferralBonusPaid flag is claimed in the same transaction as the credit.
func (s *Service) creditReferrer(ctx context.Context, referrerID, referredID uint, referredEmail string) (bool, error) {
	bonus := s.policy.ReferralBonus
	var t *models.Transaction

	err := s.accounts.Mutate(ctx, referrerID, false, func(tx *gorm.DB, u *models.User) error {
		claim := tx.Model(&models.User{}).
			Where("id = ? AND referred_by = ? AND referral_bonus_paid = ?", referredID, referrerID, false).
			Update("referral_bonus_paid", true)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return nil
		}

		u.ReferralCount++
		u.ReferralEarnings = u.ReferralEarnings.Add(bonus)
		u.TotalBalance = u.TotalBalance.Add(bonus)
		if err := savings.SaveBalances(tx, u); err != nil {
			return err
		}
		t = &models.Transaction{
			UserID:      referrerID,
			Type:        models.TransactionTypeReferralBonus,
			Amount:      bonus,
			Currency:    string(s.policy.DefaultCurrency),
			Status:      models.TransactionStatusCompleted,
			Method:      models.MethodInternal,
			Description: "Referral bonus for referring " + referredEmail,
		}
		return ledger.Append(tx, t)
	})
	if err != nil || t == nil {
		return false, err
	}

	metrics.RecordTransaction(string(t.Type), string(t.Status))
	s.notifier.Notify(ctx, referrerID, notify.ReferralBonus{TransactionID: t.ID, Amount: bonus, ReferredEmail: referredEmail})
	return true, nil
}

// ReconcileReferralBonuses credits referrers whose bonus was never paid.
// Returns the number of bonuses credited.
func (s *Service) ReconcileReferralBonuses(ctx context.Context) (int, error) {
	var pending []models.User
	err := s.accounts.DB().WithContext(ctx).
		Select("id", "email", "referred_by").
		Where("referred_by IS NOT NULL AND referral_bonus_paid = ?", false).
		Order("id").
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	credited := 0
	for _, u := range pending {
		ok, err := s.creditReferrer(ctx, *u.ReferredBy, u.ID, u.Email)
		if err != nil {
			s.log.WithField("user_id", u.ID).WithError(err).Error("referral reconciliation failed")
			continue
		}
		if ok {
			credited++
		}
	}
	if credited > 0 {
		s.log.WithField("credited", credited).Info("referral bonuses reconciled")
	}
	return credited, nil
}

// GenerateReferralCode replaces userID's code with a fresh unique one,
// retrying on collision and failing with ErrCodeCollision when every
// attempt collides.
func (s *Service) GenerateReferralCode(ctx context.Context, userID uint) (string, error) {
	var code string
	err := s.accounts.Mutate(ctx, userID, true, func(tx *gorm.DB, u *models.User) error {
		for attempt := 0; attempt < codeAttempts; attempt++ {
			candidate := s.codegen(s.policy.ReferralCodeLength)
			taken, err := codeTaken(tx, candidate)
			if err != nil {
				return err
			}
			if taken {
				continue
			}

			tx.SavePoint("referral_code")
			err = tx.Model(&models.User{}).Where("id = ?", u.ID).Update("referral_code", candidate).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				tx.RollbackTo("referral_code")
				continue
			}
			if err != nil {
				return err
			}
			code = candidate
			return nil
		}
		return apperror.ErrCodeCollision
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// NewUniqueCode picks an unused code for a new account. Uniqueness is
// finally enforced by the unique index on insert.
func (s *Service) NewUniqueCode(ctx context.Context, db *gorm.DB) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate := s.codegen(s.policy.ReferralCodeLength)
		taken, err := codeTaken(db.WithContext(ctx), candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperror.ErrCodeCollision
}

// WithCodeGenerator replaces the source of candidate referral codes.
func (s *Service) WithCodeGenerator(gen func(n int) string) *Service {
	s.codegen = gen
	return s
}

// codeTaken includes soft-deleted accounts since they still hold the index.
func codeTaken(db *gorm.DB, code string) (bool, error) {
	var n int64
	err := db.Unscoped().Model(&models.User{}).Where("referral_code = ?", code).Count(&n).Error
	return n > 0, err
}

// ReferredUser is the public view of someone a user referred.
type ReferredUser struct {
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"createdAt"`
}

type Stats struct {
	ReferralCode     string          `json:"referralCode"`
	ReferralCount    int             `json:"referralCount"`
	ReferralEarnings decimal.Decimal `json:"referralEarnings"`
	ReferredUsers    []ReferredUser  `json:"referredUsers"`
}

func (s *Service) Stats(ctx context.Context, userID uint) (*Stats, error) {
	db := s.accounts.DB().WithContext(ctx)

	var u models.User
	err := db.Select("id", "referral_code", "referral_count", "referral_earnings").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, err
	}

	var referred []models.User
	err = db.Select("email", "created_at").
		Where("referred_by = ?", userID).
		Order("created_at DESC").
		Find(&referred).Error
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ReferralCode:     u.ReferralCode,
		ReferralCount:    u.ReferralCount,
		ReferralEarnings: u.ReferralEarnings,
		ReferredUsers:    make([]ReferredUser, 0, len(referred)),
	}
	for _, r := range referred {
		stats.ReferredUsers = append(stats.ReferredUsers, ReferredUser{Email: r.Email, JoinedAt: r.CreatedAt})
	}
	return stats, nil
}

// History pages through userID's referral_bonus transactions.
func (s *Service) History(ctx context.Context, userID uint, page, limit int) (*ledger.Page, error) {
	if limit <= 0 {
		limit = 10
	}
	return ledger.List(s.accounts.DB().WithContext(ctx), ledger.Query{
		UserID: userID,
		Type:   models.TransactionTypeReferralBonus,
		Page:   page,
		Limit:  limit,
	})
}
