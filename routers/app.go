// Package routers builds the fiber application and mounts every route group.
package routers

import (
	analyticsController "flexvest/controllers/analytics"
	authController "flexvest/controllers/auth"
	notificationController "flexvest/controllers/notification"
	referralController "flexvest/controllers/referral"
	savingsController "flexvest/controllers/savings"
	userProfileController "flexvest/controllers/userControllers"
	"flexvest/metrics"
	"flexvest/middleware"
	"flexvest/routers/analyticsRoutes"
	"flexvest/routers/authRoutes"
	"flexvest/routers/notificationRoutes"
	"flexvest/routers/referralRoutes"
	"flexvest/routers/savingsRoutes"
	userProfileRoutes "flexvest/routers/userRoutes"
	"flexvest/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

type Options struct {
	RateLimitPerSecond int
	RateLimitBurst     int
	WebhookSecret      string
	// AccessLog enables the request log line.
	AccessLog bool
}

func NewApp(s *services.Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return middleware.JsonResponse(c, e.Code, false, e.Message, nil)
			}
			return middleware.ErrorResponse(c, err)
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}
	app.Use(metrics.Middleware())

	app.Get("/metrics", metrics.Handler())
	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	limiter := middleware.NewRateLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst)
	guards := []fiber.Handler{
		middleware.JWTMiddleware,
		middleware.RequireActiveAccount(s.DB),
		limiter.Handler(),
	}

	savings := savingsController.New(s.Savings)

	authRoutes.SetupAuthRoutes(app, authController.New(s.DB, s.Referrals))
	savingsRoutes.SetupSavingsRoutes(app, savings, guards...)
	savingsRoutes.SetupWebhookRoutes(app, savings, middleware.WebhookKey(opts.WebhookSecret))
	analyticsRoutes.SetupAnalyticsRoutes(app, analyticsController.New(s.Analytics), guards...)
	referralRoutes.SetupReferralRoutes(app, referralController.New(s.Referrals), guards...)
	notificationRoutes.SetupNotificationRoutes(app, notificationController.New(s.DB), guards...)
	userProfileRoutes.SetupUserRoutes(app, userProfileController.New(s.DB), guards...)

	return app
}
