package notificationRoutes

import (
	notificationController "flexvest/controllers/notification"
	notificationValidator "flexvest/validators/notification"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app fiber.Router, h *notificationController.Controller, guards ...fiber.Handler) {
	notificationGroup := app.Group("/notifications", guards...)

	notificationGroup.Get("/", notificationValidator.List(), h.List)
	notificationGroup.Patch("/:id/read", h.MarkRead)
}
