package savingsRoutes

import (
	savingsController "flexvest/controllers/savings"
	savingsValidator "flexvest/validators/savings"

	"github.com/gofiber/fiber/v2"
)

// SetupSavingsRoutes mounts the savings endpoints behind guards (JWT, active
// account, rate limit).
func SetupSavingsRoutes(app fiber.Router, h *savingsController.Controller, guards ...fiber.Handler) {
	savingsGroup := app.Group("/savings", guards...)

	savingsGroup.Get("/summary", h.Summary)
	savingsGroup.Get("/history", savingsValidator.History(), h.History)
	savingsGroup.Post("/flex/deposit", savingsValidator.Deposit(), h.DepositFlex)
	savingsGroup.Post("/flex/withdraw", savingsValidator.Withdraw(), h.WithdrawFlex)
	savingsGroup.Post("/goals", savingsValidator.CreateGoal(), h.CreateGoal)
	savingsGroup.Post("/goals/:goalId/deposit", savingsValidator.GoalDeposit(), h.DepositGoal)
	savingsGroup.Post("/fixed", savingsValidator.CreateFixedTerm(), h.CreateFixedTerm)
}

// SetupWebhookRoutes mounts the transfer provider callback.
func SetupWebhookRoutes(app fiber.Router, h *savingsController.Controller, auth fiber.Handler) {
	app.Group("/webhooks", auth).Post("/transfers", savingsValidator.Resolve(), h.ResolveTransfer)
}
