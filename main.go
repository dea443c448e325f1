package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flexvest/config"
	"flexvest/database"
	"flexvest/routers"
	"flexvest/services"
	"flexvest/services/engine"
	"flexvest/utils/logger"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	database.ConnectDb()

	svc, err := services.Build(cfg, database.Database.Db, log)
	if err != nil {
		log.WithError(err).Fatal("invalid savings configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := svc.Engine.StartScheduler(ctx, engine.Schedules{
		Sweep:     cfg.SweepSchedule,
		Reminders: cfg.ReminderSchedule,
		Retention: cfg.RetentionSchedule,
	}, svc.Referrals)
	if err != nil {
		log.WithError(err).Fatal("invalid cron schedule")
	}

	app := routers.NewApp(svc, routers.Options{
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		WebhookSecret:      cfg.TransferAPIKey,
		AccessLog:          true,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("http shutdown")
		}
	}()

	log.Infof("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped")
	}
	svc.Close()
}
