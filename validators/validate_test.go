package validators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"short1!":      false,
		"longenough1":  false,
		"longenough!":  false,
		"12345678!":    false,
		"s3cure!pass":  true,
		"Pa$$w0rdPlus": true,
	}
	for in, want := range cases {
		assert.Equal(t, want, StrongPassword(in), in)
	}
}

func TestStructUsesJSONNamesAndDecimals(t *testing.T) {
	type req struct {
		Email  string          `json:"email" validate:"required,email"`
		Amount decimal.Decimal `json:"amount" validate:"gt=0"`
		Months int             `json:"durationMonths" validate:"gte=1,lte=24"`
	}

	errs := Struct(req{Email: "nope", Amount: decimal.NewFromInt(-1), Months: 30})
	assert.Equal(t, "must be a valid email", errs["email"])
	assert.Equal(t, "must be greater than 0", errs["amount"])
	assert.Equal(t, "must be at most 24", errs["durationMonths"])

	assert.Nil(t, Struct(req{Email: "a@b.io", Amount: decimal.RequireFromString("0.01"), Months: 3}))
}
