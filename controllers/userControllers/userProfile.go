package userProfileController

import (
	"errors"

	"flexvest/middleware"
	"flexvest/models"
	"flexvest/utils/apperror"
	userValidator "flexvest/validators/userValidator"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

// UpdateProfile changes contact details and notification preferences. Balance
// columns are never touched here.
func (h *Controller) UpdateProfile(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	userID := middleware.UserID(c)
	db := h.db.WithContext(c.UserContext())

	// Collect only the fields that were sent
	updates := map[string]interface{}{}
	if reqData.Phone != nil {
		updates["phone"] = nullable(*reqData.Phone)
	}
	if reqData.WalletAddress != nil {
		updates["wallet_address"] = nullable(*reqData.WalletAddress)
	}
	if reqData.EmailNotifications != nil {
		updates["email_notifications"] = *reqData.EmailNotifications
	}
	if reqData.PushNotifications != nil {
		updates["push_notifications"] = *reqData.PushNotifications
	}

	// Update User
	res := db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Phone or wallet address already in use!", nil)
	}
	if res.Error != nil {
		return middleware.ErrorResponse(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return middleware.ErrorResponse(c, apperror.NotFound("user"))
	}

	// Fetch updated user
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated.", user)
}

// empty clears the column so the unique index ignores it
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
