// Package services assembles the savings components from configuration.
package services

import (
	"flexvest/config"
	"flexvest/services/analytics"
	"flexvest/services/engine"
	"flexvest/services/exchange"
	"flexvest/services/notify"
	"flexvest/services/referral"
	"flexvest/services/savings"
	"flexvest/services/transfer"
	"flexvest/utils/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Services struct {
	DB        *gorm.DB
	Policy    savings.Policy
	Notify    *notify.Service
	Savings   *savings.Service
	Engine    *engine.Engine
	Referrals *referral.Service
	Analytics *analytics.Service

	closers []func() error
}

// Build wires every component against db. Optional collaborators fall back
// when their settings are empty: no email without a SendGrid key, an
// in-process rate cache without REDIS_URL, and rejected withdrawals without
// a transfer API.
func Build(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) (*Services, error) {
	wlog := logger.Component(log, "wire")
	policy, err := savings.PolicyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	s := &Services{DB: db, Policy: policy}

	var mailer notify.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailFromName)
	}
	s.Notify = notify.NewService(db, mailer, log)

	var cache exchange.Cache = exchange.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := exchange.NewRedisCache(cfg.RedisURL)
		if err != nil {
			wlog.WithError(err).Warn("redis unavailable, using in-process rate cache")
		} else {
			cache = rc
			s.closers = append(s.closers, rc.Close)
		}
	}
	rates := exchange.NewClient(exchange.Options{
		BaseURL:  cfg.ExchangeRateAPIURL,
		APIKey:   cfg.ExchangeRateAPIKey,
		Cache:    cache,
		CacheTTL: cfg.ExchangeRateCacheTTL,
	})

	var transfers transfer.Executor = transfer.Unconfigured{}
	if cfg.TransferAPIURL != "" {
		transfers = transfer.NewHTTPExecutor(cfg.TransferAPIURL, cfg.TransferAPIKey, cfg.TransferTimeout)
	} else {
		wlog.Warn("TRANSFER_API_URL not set, withdrawals will be rejected")
	}

	accounts := savings.NewAccounts(db)
	s.Savings = savings.New(savings.Options{
		Accounts:  accounts,
		Policy:    policy,
		Notifier:  s.Notify,
		Transfers: transfers,
		Rates:     rates,
		RateBase:  cfg.ExchangeRateBase,
		RateQuote: cfg.ExchangeRateQuote,
		Logger:    log,
	})
	s.Engine = engine.New(accounts, policy, s.Notify, log)
	s.Referrals = referral.New(accounts, policy, s.Notify, log)
	s.Analytics = analytics.New(accounts, rates, cfg.ExchangeRateBase, cfg.ExchangeRateQuote, log)
	return s, nil
}

// Close waits for queued notifications and releases external clients.
func (s *Services) Close() {
	s.Notify.Wait()
	for _, c := range s.closers {
		_ = c()
	}
}
