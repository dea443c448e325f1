// Package transfer is the client side of the on-chain payout service. The
// savings core only sees Executor; success, rejection and "unknown" are
// distinct outcomes.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrUnresolved means the outcome is unknown (timeout, transport failure,
// 5xx). The caller must leave the transaction pending.
var ErrUnresolved = errors.New("transfer outcome unresolved")

type Request struct {
	Reference   string          `json:"reference"`
	Destination string          `json:"destinationAddress"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type Result struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash"`
	Reason          string `json:"reason,omitempty"`
}

// Executor moves funds out. Calls with the same Reference must be idempotent
// on the remote side.
type Executor interface {
	Transfer(ctx context.Context, req Request) (*Result, error)
}

// HTTPExecutor posts transfers to a payout API.
type HTTPExecutor struct {
	client *resty.Client
}

func NewHTTPExecutor(baseURL, apiKey string, timeout time.Duration) *HTTPExecutor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)
	return &HTTPExecutor{client: client}
}

func (e *HTTPExecutor) Transfer(ctx context.Context, req Request) (*Result, error) {
	var result Result
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.Reference).
		SetBody(req).
		SetResult(&result).
		Post("/transfers")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		if !isRejection(resp.StatusCode()) {
			return nil, fmt.Errorf("%w: status %d", ErrUnresolved, resp.StatusCode())
		}
		// The payout service rejected the request outright.
		return &Result{Success: false, Reason: resp.String()}, nil
	}
	return &result, nil
}

// isRejection reports whether status means the payout was refused and will
// not happen. Conflicts, throttling and locks leave the outcome open.
func isRejection(status int) bool {
	switch status {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusPaymentRequired,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusGone,
		http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// Unconfigured rejects every transfer. Used when no payout API is set so
// withdrawals fail cleanly and restore the reserved balance.
type Unconfigured struct{}

func (Unconfigured) Transfer(context.Context, Request) (*Result, error) {
	return &Result{Success: false, Reason: "transfer service not configured"}, nil
}
