package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("REFERRAL_BONUS", "")
	LoadConfig()

	assert.Equal(t, "3000", AppConfig.Port)
	assert.Equal(t, time.Hour, AppConfig.JWTTTL)
	assert.Equal(t, "10", AppConfig.ReferralBonus.String())
	assert.Equal(t, "UTC", AppConfig.CronTimezone)
	assert.Equal(t, 4, AppConfig.SweepWorkers)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("REFERRAL_BONUS", "12.5")
	t.Setenv("SWEEP_WORKERS", "8")
	LoadConfig()

	assert.Equal(t, "8080", AppConfig.Port)
	assert.Equal(t, "sqlite", AppConfig.DBDriver)
	assert.Equal(t, 15*time.Minute, AppConfig.JWTTTL)
	assert.Equal(t, "12.5", AppConfig.ReferralBonus.String())
	assert.Equal(t, 8, AppConfig.SweepWorkers)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SWEEP_WORKERS", "many")
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("REFERRAL_BONUS", "ten")

	assert.Equal(t, 4, getEnvInt("SWEEP_WORKERS", 4))
	assert.Equal(t, time.Hour, getEnvDuration("JWT_TTL", time.Hour))
	assert.Equal(t, "10", getEnvDecimal("REFERRAL_BONUS", decimal.NewFromInt(10)).String())
}
