package referralRoutes

import (
	referralController "flexvest/controllers/referral"
	referralValidator "flexvest/validators/referral"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app fiber.Router, h *referralController.Controller, guards ...fiber.Handler) {
	referralGroup := app.Group("/referral", guards...)

	referralGroup.Get("/stats", h.Stats)
	referralGroup.Post("/apply", referralValidator.Apply(), h.Apply)
	referralGroup.Post("/generate-code", h.GenerateCode)
	referralGroup.Get("/history", referralValidator.History(), h.History)
}
