package notificationValidator

import (
	"flexvest/middleware"
	"flexvest/validators"

	"github.com/gofiber/fiber/v2"
)

type ListQuery struct {
	Unread bool `query:"unread"`
	Limit  int  `query:"limit" validate:"gte=0,lte=100"`
}

// List validator middleware
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedNotifications", reqData)
		return c.Next()
	}
}
