package authRoutes

import (
	authController "flexvest/controllers/auth"
	"flexvest/middleware"
	authValidator "flexvest/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app fiber.Router, h *authController.Controller) {
	authGroup := app.Group("/auth")

	authGroup.Post("/register", authValidator.Register(), h.Register)
	authGroup.Post("/login", authValidator.Login(), h.Login)
	authGroup.Get("/profile", middleware.JWTMiddleware, h.Profile)
}
