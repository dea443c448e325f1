package middleware

import (
	"errors"

	"flexvest/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireActiveAccount rejects callers whose account is missing or not
// active. Must run after JWTMiddleware.
func RequireActiveAccount(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get user ID from JWT middleware
		userID := UserID(c)
		if userID == 0 {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		// Load only the status column
		var user models.User
		err := db.WithContext(c.UserContext()).Select("id", "status").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Account not found!", nil)
		}
		if err != nil {
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking account!", nil)
		}
		// Check if account is active
		if !user.IsActive() {
			return JsonResponse(c, fiber.StatusForbidden, false, "Account is not active!", nil)
		}
		return c.Next()
	}
}
