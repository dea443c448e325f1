package main

import (
	"context"
	"flag"
	"time"

	"flexvest/config"
	"flexvest/database"
	"flexvest/services"
	"flexvest/utils/logger"
)

// Runs one accrual and maturity sweep outside the scheduler, optionally
// followed by the goal reminders, referral reconciliation and retention purge.
func main() {
	asOfFlag := flag.String("as-of", "", "sweep date as YYYY-MM-DD or RFC3339 (default now)")
	reminders := flag.Bool("reminders", false, "also run the goal reminder pass")
	reconcile := flag.Bool("reconcile", false, "also credit unpaid referral bonuses")
	purge := flag.Bool("purge", false, "also purge small interest records past retention")
	flag.Parse()

	config.LoadConfig()
	cfg := config.AppConfig
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	database.ConnectDb()

	svc, err := services.Build(cfg, database.Database.Db, log)
	if err != nil {
		log.WithError(err).Fatal("invalid savings configuration")
	}
	defer svc.Close()

	asOf := time.Now()
	if *asOfFlag != "" {
		asOf, err = parseAsOf(*asOfFlag, svc.Policy.Location)
		if err != nil {
			log.WithError(err).Fatal("bad -as-of")
		}
	}
	ctx := context.Background()

	report, err := svc.Engine.RunDailyAccrualAndMaturitySweep(ctx, asOf)
	if err != nil {
		log.WithError(err).Fatal("sweep failed")
	}
	log.Infof("sweep %s: accounts=%d accrued=%d matured=%d skipped=%d failed=%d interest=%s",
		asOf.Format(time.RFC3339), report.Accounts, report.Accrued, report.Matured,
		report.Skipped, report.Failed, report.InterestTotal)

	if *reminders {
		r, err := svc.Engine.RunGoalReminders(ctx, asOf)
		if err != nil {
			log.WithError(err).Error("goal reminders failed")
		} else {
			log.Infof("goal reminders: %+v", *r)
		}
	}
	if *reconcile {
		n, err := svc.Referrals.ReconcileReferralBonuses(ctx)
		if err != nil {
			log.WithError(err).Error("referral reconciliation failed")
		} else {
			log.Infof("referral bonuses credited: %d", n)
		}
	}
	if *purge {
		n, err := svc.Engine.RunRetention(ctx, asOf)
		if err != nil {
			log.WithError(err).Fatal("purge failed")
		}
		log.Infof("purged %d interest records", n)
	}
}

func parseAsOf(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
