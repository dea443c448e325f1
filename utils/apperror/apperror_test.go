package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("load goal: %w", NotFound("goal"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "NOT_FOUND", CodeOf(err))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "INTERNAL", CodeOf(err))
	assert.Equal(t, "Something went wrong!", PublicMessage(err))
}

func TestPublicMessageHidesExternalDetail(t *testing.T) {
	err := External("TRANSFER_FAILED", errors.New("rpc node 10.0.0.3 refused"))
	assert.NotContains(t, PublicMessage(err), "10.0.0.3")
	assert.Contains(t, err.Error(), "10.0.0.3")
	assert.True(t, errors.Is(err, ErrTransferFailed))

	assert.Equal(t, "insufficient balance", PublicMessage(ErrInsufficientBalance))
}
