package analyticsController

import (
	"flexvest/middleware"
	"flexvest/services/analytics"
	analyticsValidator "flexvest/validators/analytics"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	analytics *analytics.Service
}

func New(svc *analytics.Service) *Controller {
	return &Controller{analytics: svc}
}

func (h *Controller) Growth(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedGrowth").(*analyticsValidator.GrowthQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	growth, err := h.analytics.Growth(c.UserContext(), middleware.UserID(c), reqData.Period)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Savings growth fetched.", growth)
}

func (h *Controller) GoalsProgress(c *fiber.Ctx) error {
	goals, err := h.analytics.GoalsProgress(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Goals progress fetched.", goals)
}

func (h *Controller) FixedSavings(c *fiber.Ctx) error {
	terms, err := h.analytics.FixedSavings(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Fixed savings fetched.", terms)
}

func (h *Controller) ExchangeRates(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRates").(*analyticsValidator.RatesQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	// Fetch rate history for the requested window
	rates, err := h.analytics.ExchangeRates(c.UserContext(), reqData.Days)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exchange rates fetched.", rates)
}
