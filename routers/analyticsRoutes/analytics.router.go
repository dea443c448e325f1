package analyticsRoutes

import (
	analyticsController "flexvest/controllers/analytics"
	analyticsValidator "flexvest/validators/analytics"

	"github.com/gofiber/fiber/v2"
)

func SetupAnalyticsRoutes(app fiber.Router, h *analyticsController.Controller, guards ...fiber.Handler) {
	analyticsGroup := app.Group("/analytics", guards...)

	analyticsGroup.Get("/growth", analyticsValidator.Growth(), h.Growth)
	analyticsGroup.Get("/goals-progress", h.GoalsProgress)
	analyticsGroup.Get("/fixed-savings", h.FixedSavings)
	analyticsGroup.Get("/exchange-rates", analyticsValidator.ExchangeRates(), h.ExchangeRates)
}
