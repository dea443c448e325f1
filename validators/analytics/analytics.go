package analyticsValidator

import (
	"flexvest/middleware"
	"flexvest/validators"

	"github.com/gofiber/fiber/v2"
)

type GrowthQuery struct {
	Period string `query:"period" validate:"omitempty,oneof=1m 3m 6m 1y"`
}

type RatesQuery struct {
	Days int `query:"days" validate:"gte=0,lte=365"`
}

func query[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Growth validator middleware
func Growth() fiber.Handler { return query[GrowthQuery]("validatedGrowth") }

// ExchangeRates validator middleware
func ExchangeRates() fiber.Handler { return query[RatesQuery]("validatedRates") }
