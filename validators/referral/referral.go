package referralValidator

import (
	"strings"

	"flexvest/middleware"
	"flexvest/validators"

	"github.com/gofiber/fiber/v2"
)

type ApplyRequest struct {
	Code string `json:"referralCode" validate:"required,alphanum,max=16"`
}

type HistoryQuery struct {
	Page  int `query:"page" validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

// Apply validator middleware
func Apply() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ApplyRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Code = strings.ToUpper(strings.TrimSpace(reqData.Code))
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedReferral", reqData)
		return c.Next()
	}
}

// History validator middleware
func History() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(HistoryQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("validatedHistory", reqData)
		return c.Next()
	}
}
