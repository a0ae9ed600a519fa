package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{URL: "postgres://localhost/esusu"},
		Scheduler: SchedulerConfig{
			ReminderSpec:   "0 0 9 * * *",
			ReminderWindow: "24h",
		},
		Business: BusinessConfig{
			PlatformFeeRate:      "0.015",
			MinDeadlineBuffer:    "24h",
			MinGroupSize:         3,
			CommissionMinPercent: "1",
			CommissionMaxPercent: "10",
			CommissionMinAmount:  "100",
			ReservedGroupNames:   "admin, Esusu ,support,,system",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"group size below two", func(c *Config) { c.Business.MinGroupSize = 1 }},
		{"fee rate not a decimal", func(c *Config) { c.Business.PlatformFeeRate = "one percent" }},
		{"fee rate at or above one", func(c *Config) { c.Business.PlatformFeeRate = "1.0" }},
		{"negative fee rate", func(c *Config) { c.Business.PlatformFeeRate = "-0.01" }},
		{"bad deadline buffer", func(c *Config) { c.Business.MinDeadlineBuffer = "tomorrow" }},
		{"bad commission bound", func(c *Config) { c.Business.CommissionMaxPercent = "ten" }},
		{"bad reminder window", func(c *Config) { c.Scheduler.ReminderWindow = "soon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigGetters(t *testing.T) {
	cfg := validConfig()

	assert.True(t, cfg.GetPlatformFeeRate().Equal(decimal.RequireFromString("0.015")))
	assert.Equal(t, 24*time.Hour, cfg.GetMinDeadlineBuffer())
	assert.Equal(t, 24*time.Hour, cfg.GetReminderWindow())
	assert.True(t, cfg.GetCommissionMinPercent().Equal(decimal.NewFromInt(1)))
	assert.True(t, cfg.GetCommissionMaxPercent().Equal(decimal.NewFromInt(10)))
	assert.True(t, cfg.GetCommissionMinAmount().Equal(decimal.NewFromInt(100)))
}

func TestGetReservedGroupNames(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, []string{"admin", "esusu", "support", "system"}, cfg.GetReservedGroupNames())
}
