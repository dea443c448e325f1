// Package notify delivers account events to users as in-app notifications and
// email. Delivery is fire-and-forget: callers never see a notification error.
package notify

import (
	"fmt"
	"time"

	"flexvest/models"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventDepositConfirmed    EventType = "deposit_confirmed"
	EventWithdrawalConfirmed EventType = "withdrawal_confirmed"
	EventGoalAchieved        EventType = "goal_achieved"
	EventFixedSaveCreated    EventType = "fixed_save_created"
	EventInterestEarned      EventType = "interest_earned"
	EventMaturityAlert       EventType = "maturity_alert"
	EventSavingsReminder     EventType = "savings_reminder"
	EventGoalDeadline        EventType = "goal_deadline"
	EventReferralBonus       EventType = "referral_bonus"
	EventReferralApplied     EventType = "referral_applied"
)

// Event is one member of the notification union. The concrete struct is the
// payload stored with the in-app notification.
type Event interface {
	Type() EventType
	Title() string
	Message() string
	Priority() models.NotificationPriority
}

type DepositConfirmed struct {
	TransactionID uint            `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SavingsType   string          `json:"savingsType"`
}

func (DepositConfirmed) Type() EventType                       { return EventDepositConfirmed }
func (DepositConfirmed) Title() string                         { return "Deposit Confirmed" }
func (DepositConfirmed) Priority() models.NotificationPriority { return models.PriorityMedium }
func (e DepositConfirmed) Message() string {
	return fmt.Sprintf("Your %s deposit of %s %s has been credited.", e.SavingsType, e.Amount.StringFixed(2), e.Currency)
}

type WithdrawalConfirmed struct {
	TransactionID   uint            `json:"transactionId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Destination     string          `json:"destination"`
	TransactionHash string          `json:"transactionHash"`
}

func (WithdrawalConfirmed) Type() EventType                       { return EventWithdrawalConfirmed }
func (WithdrawalConfirmed) Title() string                         { return "Withdrawal Confirmed" }
func (WithdrawalConfirmed) Priority() models.NotificationPriority { return models.PriorityHigh }
func (e WithdrawalConfirmed) Message() string {
	return fmt.Sprintf("%s %s was sent to %s.", e.Amount.StringFixed(2), e.Currency, e.Destination)
}

type GoalAchieved struct {
	GoalID        uint            `json:"goalId"`
	GoalName      string          `json:"goalName"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
}

func (GoalAchieved) Type() EventType                       { return EventGoalAchieved }
func (GoalAchieved) Title() string                         { return "Goal Achieved" }
func (GoalAchieved) Priority() models.NotificationPriority { return models.PriorityHigh }
func (e GoalAchieved) Message() string {
	return fmt.Sprintf("Congratulations! You reached your goal %q of %s.", e.GoalName, e.TargetAmount.StringFixed(2))
}

type FixedSaveCreated struct {
	FixedSaveID  uint            `json:"fixedSaveId"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	InterestRate decimal.Decimal `json:"interestRate"`
	MaturityDate time.Time       `json:"maturityDate"`
}

func (FixedSaveCreated) Type() EventType                       { return EventFixedSaveCreated }
func (FixedSaveCreated) Title() string                         { return "Fixed Savings Created" }
func (FixedSaveCreated) Priority() models.NotificationPriority { return models.PriorityMedium }
func (e FixedSaveCreated) Message() string {
	return fmt.Sprintf("%s %s locked at %s%% until %s.", e.Amount.StringFixed(2), e.Currency,
		e.InterestRate.String(), e.MaturityDate.Format("Jan 2, 2006"))
}

type InterestEarned struct {
	FixedSaveID  uint            `json:"fixedSaveId"`
	Amount       decimal.Decimal `json:"amount"`
	Principal    decimal.Decimal `json:"principal"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

func (InterestEarned) Type() EventType                       { return EventInterestEarned }
func (InterestEarned) Title() string                         { return "Interest Earned" }
func (InterestEarned) Priority() models.NotificationPriority { return models.PriorityLow }
func (e InterestEarned) Message() string {
	return fmt.Sprintf("You earned %s on your %s fixed savings.", e.Amount.StringFixed(2), e.Principal.StringFixed(2))
}

type MaturityAlert struct {
	FixedSaveID     uint            `json:"fixedSaveId"`
	Amount          decimal.Decimal `json:"amount"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	AccruedInterest decimal.Decimal `json:"accruedInterest"`
	MaturityDate    time.Time       `json:"maturityDate"`
}

func (MaturityAlert) Type() EventType                       { return EventMaturityAlert }
func (MaturityAlert) Title() string                         { return "Fixed Savings Matured" }
func (MaturityAlert) Priority() models.NotificationPriority { return models.PriorityHigh }
func (e MaturityAlert) Message() string {
	return fmt.Sprintf("Your fixed savings of %s matured on %s.", e.Amount.StringFixed(2), e.MaturityDate.Format("Jan 2, 2006"))
}

type SavingsReminder struct {
	GoalID        uint            `json:"goalId"`
	GoalName      string          `json:"goalName"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	DaysRemaining int             `json:"daysRemaining"`
	RequiredDaily decimal.Decimal `json:"requiredDaily"`
}

func (SavingsReminder) Type() EventType                       { return EventSavingsReminder }
func (SavingsReminder) Title() string                         { return "Savings Goal Reminder" }
func (SavingsReminder) Priority() models.NotificationPriority { return models.PriorityMedium }
func (e SavingsReminder) Message() string {
	return fmt.Sprintf("%q is behind schedule. Save %s a day for the next %d days to reach it.",
		e.GoalName, e.RequiredDaily.StringFixed(2), e.DaysRemaining)
}

type GoalDeadline struct {
	GoalID        uint            `json:"goalId"`
	GoalName      string          `json:"goalName"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	Achieved      bool            `json:"achieved"`
}

func (GoalDeadline) Type() EventType                       { return EventGoalDeadline }
func (GoalDeadline) Title() string                         { return "Goal Deadline Reached" }
func (GoalDeadline) Priority() models.NotificationPriority { return models.PriorityHigh }
func (e GoalDeadline) Message() string {
	if e.Achieved {
		return fmt.Sprintf("Your goal %q reached its deadline fully funded.", e.GoalName)
	}
	return fmt.Sprintf("Your goal %q reached its deadline at %s of %s.", e.GoalName,
		e.CurrentAmount.StringFixed(2), e.TargetAmount.StringFixed(2))
}

type ReferralBonus struct {
	TransactionID uint            `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	ReferredEmail string          `json:"referredEmail"`
}

func (ReferralBonus) Type() EventType                       { return EventReferralBonus }
func (ReferralBonus) Title() string                         { return "Referral Bonus" }
func (ReferralBonus) Priority() models.NotificationPriority { return models.PriorityMedium }
func (e ReferralBonus) Message() string {
	return fmt.Sprintf("You earned %s because %s joined with your code.", e.Amount.StringFixed(2), e.ReferredEmail)
}

type ReferralApplied struct {
	ReferrerID uint   `json:"referrerId"`
	Code       string `json:"code"`
}

func (ReferralApplied) Type() EventType                       { return EventReferralApplied }
func (ReferralApplied) Title() string                         { return "Referral Code Applied" }
func (ReferralApplied) Priority() models.NotificationPriority { return models.PriorityLow }
func (e ReferralApplied) Message() string {
	return fmt.Sprintf("Referral code %s was applied to your account.", e.Code)
}
