// Package apperror is the error taxonomy shared by the savings core and the
// HTTP layer. Every error carries a Kind that decides the response status and
// whether the message may be shown to the caller.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindStateConflict
	KindAccountInactive
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStateConflict:
		return "state_conflict"
	case KindAccountInactive:
		return "account_inactive"
	case KindExternal:
		return "external_service"
	default:
		return "internal"
	}
}

// Error is a classified error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so that NotFound("goal") satisfies errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap classifies err under kind/code, keeping it in the chain.
func Wrap(kind Kind, code string, err error) *Error {
	msg := code
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

var (
	ErrInvalidAmount       = New(KindValidation, "INVALID_AMOUNT", "amount must be greater than zero")
	ErrInvalidDate         = New(KindValidation, "INVALID_DATE", "deadline must be in the future")
	ErrInvalidDuration     = New(KindValidation, "INVALID_DURATION", "duration is outside the allowed range")
	ErrInvalidCurrency     = New(KindValidation, "INVALID_CURRENCY", "unsupported currency")
	ErrInvalidInput        = New(KindValidation, "INVALID_INPUT", "invalid input")
	ErrSelfReferral        = New(KindValidation, "SELF_REFERRAL", "cannot apply your own referral code")
	ErrNotFound            = New(KindNotFound, "NOT_FOUND", "resource not found")
	ErrInsufficientBalance = New(KindStateConflict, "INSUFFICIENT_BALANCE", "insufficient balance")
	ErrAlreadyReferred     = New(KindStateConflict, "ALREADY_REFERRED", "referral already applied")
	ErrCodeCollision       = New(KindStateConflict, "CODE_COLLISION", "could not allocate a unique referral code")
	ErrAlreadyResolved     = New(KindStateConflict, "ALREADY_RESOLVED", "transaction already resolved with a different outcome")
	ErrAccountInactive     = New(KindAccountInactive, "ACCOUNT_INACTIVE", "account is not active")
	ErrTransferFailed      = New(KindExternal, "TRANSFER_FAILED", "transfer was rejected")
	ErrRateUnavailable     = New(KindExternal, "RATE_UNAVAILABLE", "exchange rate unavailable")
)

// NotFound returns an ErrNotFound variant naming the missing entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: ErrNotFound.Code, Message: entity + " not found"}
}

// Invalid returns an ErrInvalidInput variant with a specific message.
func Invalid(message string) *Error {
	return &Error{Kind: KindValidation, Code: ErrInvalidInput.Code, Message: message}
}

// External wraps a collaborator failure.
func External(code string, err error) *Error {
	return Wrap(KindExternal, code, err)
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first classified error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// PublicMessage is what may be shown to API callers: the message for
// caller-side failures, a generic text otherwise.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong!"
	}
	switch e.Kind {
	case KindInternal:
		return "Something went wrong!"
	case KindExternal:
		return "Upstream service unavailable, please try again later."
	default:
		return e.Message
	}
}
