package userProfileRoutes

import (
	userProfileController "flexvest/controllers/userControllers"
	userValidator "flexvest/validators/userValidator"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app fiber.Router, h *userProfileController.Controller, guards ...fiber.Handler) {
	userGroup := app.Group("/user", guards...)

	userGroup.Patch("/profile", userValidator.UpdateProfile(), h.UpdateProfile)
}
