package referralController

import (
	"flexvest/middleware"
	"flexvest/services/referral"
	referralValidator "flexvest/validators/referral"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	referrals *referral.Service
}

func New(svc *referral.Service) *Controller {
	return &Controller{referrals: svc}
}

func (h *Controller) Stats(c *fiber.Ctx) error {
	stats, err := h.referrals.Stats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Referral stats fetched.", stats)
}

func (h *Controller) Apply(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedReferral").(*referralValidator.ApplyRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	res, err := h.referrals.ApplyReferralCode(c.UserContext(), middleware.UserID(c), reqData.Code)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Referral code applied successfully.", res)
}

func (h *Controller) GenerateCode(c *fiber.Ctx) error {
	code, err := h.referrals.GenerateReferralCode(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Referral code generated.", fiber.Map{"referralCode": code})
}

func (h *Controller) History(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedHistory").(*referralValidator.HistoryQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, err := h.referrals.History(c.UserContext(), middleware.UserID(c), reqData.Page, reqData.Limit)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Referral history fetched.", page)
}
