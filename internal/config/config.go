package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	ReminderSpec   string `mapstructure:"REMINDER_CRON_SPEC"`
	ReminderWindow string `mapstructure:"REMINDER_WINDOW"`
}

type LoggingConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
}

// BusinessConfig carries the esusu formation policy.
type BusinessConfig struct {
	PlatformFeeRate      string `mapstructure:"PLATFORM_FEE_RATE"`
	MinDeadlineBuffer    string `mapstructure:"MIN_DEADLINE_BUFFER"`
	MinGroupSize         int    `mapstructure:"MIN_GROUP_SIZE"`
	CommissionMinPercent string `mapstructure:"COMMISSION_MIN_PERCENT"`
	CommissionMaxPercent string `mapstructure:"COMMISSION_MAX_PERCENT"`
	CommissionMinAmount  string `mapstructure:"COMMISSION_MIN_AMOUNT"`
	ReservedGroupNames   string `mapstructure:"RESERVED_GROUP_NAMES"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PLATFORM_FEE_RATE", "0.015")
	viper.SetDefault("MIN_DEADLINE_BUFFER", "24h")
	viper.SetDefault("MIN_GROUP_SIZE", 3)
	viper.SetDefault("COMMISSION_MIN_PERCENT", "1")
	viper.SetDefault("COMMISSION_MAX_PERCENT", "10")
	viper.SetDefault("COMMISSION_MIN_AMOUNT", "100")
	viper.SetDefault("RESERVED_GROUP_NAMES", "admin,esusu,support,system")
	viper.SetDefault("REMINDER_CRON_SPEC", "0 0 9 * * *")
	viper.SetDefault("REMINDER_WINDOW", "24h")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.MinGroupSize < 2 {
		return fmt.Errorf("MIN_GROUP_SIZE must be at least 2")
	}

	rate, err := decimal.NewFromString(c.Business.PlatformFeeRate)
	if err != nil {
		return fmt.Errorf("PLATFORM_FEE_RATE must be a valid decimal: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1)")
	}

	if _, err := time.ParseDuration(c.Business.MinDeadlineBuffer); err != nil {
		return fmt.Errorf("MIN_DEADLINE_BUFFER must be a valid duration: %w", err)
	}

	for _, key := range []string{c.Business.CommissionMinPercent, c.Business.CommissionMaxPercent, c.Business.CommissionMinAmount} {
		if _, err := decimal.NewFromString(key); err != nil {
			return fmt.Errorf("commission bounds must be valid decimals: %w", err)
		}
	}

	if _, err := time.ParseDuration(c.Scheduler.ReminderWindow); err != nil {
		return fmt.Errorf("REMINDER_WINDOW must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetPlatformFeeRate returns the platform fee rate as decimal
func (c *Config) GetPlatformFeeRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.PlatformFeeRate)
	return rate
}

// GetMinDeadlineBuffer returns the minimum deadline-to-collection buffer
func (c *Config) GetMinDeadlineBuffer() time.Duration {
	buffer, _ := time.ParseDuration(c.Business.MinDeadlineBuffer)
	return buffer
}

// GetCommissionMinPercent returns the lower commission percentage bound
func (c *Config) GetCommissionMinPercent() decimal.Decimal {
	v, _ := decimal.NewFromString(c.Business.CommissionMinPercent)
	return v
}

// GetCommissionMaxPercent returns the upper commission percentage bound
func (c *Config) GetCommissionMaxPercent() decimal.Decimal {
	v, _ := decimal.NewFromString(c.Business.CommissionMaxPercent)
	return v
}

// GetCommissionMinAmount returns the minimum flat commission amount
func (c *Config) GetCommissionMinAmount() decimal.Decimal {
	v, _ := decimal.NewFromString(c.Business.CommissionMinAmount)
	return v
}

// GetReservedGroupNames returns the blocklisted group names, lowercased.
func (c *Config) GetReservedGroupNames() []string {
	parts := strings.Split(c.Business.ReservedGroupNames, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// GetReminderWindow returns how far ahead of the deadline reminders go out.
func (c *Config) GetReminderWindow() time.Duration {
	window, _ := time.ParseDuration(c.Scheduler.ReminderWindow)
	return window
}
