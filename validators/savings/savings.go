package savingsValidator

import (
	"time"

	"flexvest/middleware"
	"flexvest/models"
	"flexvest/validators"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DepositRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency        string          `json:"currency" validate:"omitempty,oneof=USDT USDC usdt usdc"`
	Method          string          `json:"method" validate:"omitempty,oneof=wallet bank_transfer"`
	TransactionHash string          `json:"transactionHash" validate:"max=128"`
	WalletAddress   string          `json:"walletAddress" validate:"max=128"`
}

type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency    string          `json:"currency" validate:"omitempty,oneof=USDT USDC usdt usdc"`
	Destination string          `json:"walletAddress" validate:"required,max=128"`
}

type GoalRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	TargetAmount decimal.Decimal `json:"targetAmount" validate:"gt=0"`
	Deadline     time.Time       `json:"deadline" validate:"required"`
}

type GoalDepositRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency string          `json:"currency" validate:"omitempty,oneof=USDT USDC usdt usdc"`
}

type FixedTermRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	DurationMonths int             `json:"duration" validate:"required"`
	Currency       string          `json:"currency" validate:"omitempty,oneof=USDT USDC usdt usdc"`
}

type HistoryQuery struct {
	SavingsType string `query:"savingsType" validate:"omitempty,oneof=flex goal fixed"`
	Type        string `query:"type" validate:"omitempty,oneof=deposit withdrawal interest referral_bonus transfer"`
	Status      string `query:"status" validate:"omitempty,oneof=pending completed failed"`
	Page        int    `query:"page" validate:"gte=0"`
	Limit       int    `query:"limit" validate:"gte=0,lte=100"`
}

type ResolveRequest struct {
	TransactionID   uint   `json:"transactionId" validate:"required"`
	Success         *bool  `json:"success" validate:"required"`
	TransactionHash string `json:"transactionHash" validate:"max=128"`
}

func body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Deposit validator middleware
func Deposit() fiber.Handler { return body[DepositRequest]("validatedDeposit") }

// Withdraw validator middleware
func Withdraw() fiber.Handler { return body[WithdrawRequest]("validatedWithdraw") }

// CreateGoal validator middleware
func CreateGoal() fiber.Handler { return body[GoalRequest]("validatedGoal") }

// GoalDeposit validator middleware
func GoalDeposit() fiber.Handler { return body[GoalDepositRequest]("validatedDeposit") }

// CreateFixedTerm validator middleware
func CreateFixedTerm() fiber.Handler { return body[FixedTermRequest]("validatedFixedTerm") }

// Resolve validator middleware
func Resolve() fiber.Handler { return body[ResolveRequest]("validatedResolve") }

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

// TransactionType converts the validated query value.
func (q *HistoryQuery) TransactionType() models.TransactionType {
	return models.TransactionType(q.Type)
}
