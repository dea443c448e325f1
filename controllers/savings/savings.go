package savingsController

import (
	"strconv"

	"flexvest/middleware"
	"flexvest/models"
	"flexvest/services/ledger"
	"flexvest/services/savings"
	"flexvest/utils/apperror"
	savingsValidator "flexvest/validators/savings"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	savings *savings.Service
}

func New(svc *savings.Service) *Controller {
	return &Controller{savings: svc}
}

func (h *Controller) Summary(c *fiber.Ctx) error {
	summary, err := h.savings.Summary(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Savings summary fetched.", summary)
}

func (h *Controller) DepositFlex(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedDeposit").(*savingsValidator.DepositRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	// Credit flex balance and record the deposit
	tx, err := h.savings.DepositFlex(c.UserContext(), middleware.UserID(c), savings.DepositRequest{
		Amount:          reqData.Amount,
		Currency:        reqData.Currency,
		Method:          models.TransactionMethod(reqData.Method),
		TransactionHash: reqData.TransactionHash,
		WalletAddress:   reqData.WalletAddress,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Deposit successful.", tx)
}

// WithdrawFlex answers 202 while the transfer outcome is still unknown.
func (h *Controller) WithdrawFlex(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedWithdraw").(*savingsValidator.WithdrawRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	// Reserve the amount and hand it to the transfer service
	tx, err := h.savings.WithdrawFlex(c.UserContext(), middleware.UserID(c), savings.WithdrawRequest{
		Amount:      reqData.Amount,
		Currency:    reqData.Currency,
		Destination: reqData.Destination,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	// Outcome unknown, the callback settles it
	if tx.Status == models.TransactionStatusPending {
		return middleware.JsonResponse(c, fiber.StatusAccepted, true, "Withdrawal is processing.", tx)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Withdrawal successful.", tx)
}

func (h *Controller) CreateGoal(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedGoal").(*savingsValidator.GoalRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	goal, err := h.savings.CreateGoal(c.UserContext(), middleware.UserID(c), savings.GoalRequest{
		Name:         reqData.Name,
		TargetAmount: reqData.TargetAmount,
		Deadline:     reqData.Deadline,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Savings goal created.", goal)
}

func (h *Controller) DepositGoal(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedDeposit").(*savingsValidator.GoalDepositRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	// Parse goal ID from params
	goalID, err := strconv.ParseUint(c.Params("goalId"), 10, 64)
	if err != nil || goalID == 0 {
		return middleware.ErrorResponse(c, apperror.NotFound("goal"))
	}
	tx, goal, err := h.savings.DepositGoal(c.UserContext(), middleware.UserID(c), uint(goalID), savings.DepositRequest{
		Amount:   reqData.Amount,
		Currency: reqData.Currency,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Goal deposit successful.", fiber.Map{
		"transaction": tx,
		"goal":        goal,
	})
}

func (h *Controller) CreateFixedTerm(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedFixedTerm").(*savingsValidator.FixedTermRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	// Lock principal from flex into a fixed term
	fixed, tx, err := h.savings.CreateFixedTerm(c.UserContext(), middleware.UserID(c), savings.FixedTermRequest{
		Amount:         reqData.Amount,
		DurationMonths: reqData.DurationMonths,
		Currency:       reqData.Currency,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Fixed savings created.", fiber.Map{
		"fixedSave":   fixed,
		"transaction": tx,
	})
}

func (h *Controller) History(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedHistory").(*savingsValidator.HistoryQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, err := h.savings.History(c.UserContext(), middleware.UserID(c), ledger.Query{
		Type:        reqData.TransactionType(),
		SavingsType: models.SavingsType(reqData.SavingsType),
		Status:      models.TransactionStatus(reqData.Status),
		Page:        reqData.Page,
		Limit:       reqData.Limit,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction history fetched.", page)
}

// ResolveTransfer is the transfer provider's callback for withdrawals left
// pending.
func (h *Controller) ResolveTransfer(c *fiber.Ctx) error {
	// Retrieve validated request data
	reqData, ok := c.Locals("validatedResolve").(*savingsValidator.ResolveRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	tx, err := h.savings.ResolveTransaction(c.UserContext(), reqData.TransactionID, savings.Outcome{
		Success:         *reqData.Success,
		TransactionHash: reqData.TransactionHash,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction resolved.", tx)
}
