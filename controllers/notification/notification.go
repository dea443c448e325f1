package notificationController

import (
	"strconv"

	"flexvest/middleware"
	"flexvest/services/notify"
	"flexvest/utils/apperror"
	notificationValidator "flexvest/validators/notification"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (h *Controller) List(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedNotifications").(*notificationValidator.ListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	items, err := notify.List(h.db.WithContext(c.UserContext()), middleware.UserID(c), reqData.Unread, reqData.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notifications fetched.", items)
}

func (h *Controller) MarkRead(c *fiber.Ctx) error {
	// Parse notification ID from params
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return middleware.ErrorResponse(c, apperror.NotFound("notification"))
	}
	// Only the owner's row is updated
	if err := notify.MarkRead(h.db.WithContext(c.UserContext()), middleware.UserID(c), uint(id)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification marked as read.", nil)
}
