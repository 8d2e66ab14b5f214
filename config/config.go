package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	API      APIConfig
	Invest   InvestConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Name        string
	Environment string
	Port        string
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxIdle  int
	MaxOpen  int
	MaxLife  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// AuthConfig holds authentication related configuration
type AuthConfig struct {
	AccessSecret   string
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
}

// APIConfig holds API configuration
type APIConfig struct {
	RateLimitPerMinute int
	TimeoutSeconds     int
	MaxRequestSize     int64
}

// InvestConfig holds investment engine configuration
type InvestConfig struct {
	// EntryPlanID is the only plan purchasable through the API. The rest
	// of the catalog is visible but locked.
	EntryPlanID string
	// EntryPlanLimit caps how many times a user can hold the entry plan.
	EntryPlanLimit int
	// WithdrawalHold debits the balance when a withdrawal request is
	// submitted instead of when it is approved.
	WithdrawalHold bool
	// AccrualPollInterval is how often the accrual worker polls its queue.
	AccrualPollInterval time.Duration
	// AccrualScanInterval is how often active investments are enqueued
	// for accrual.
	AccrualScanInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// .env file not found, continue with environment variables
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Apso"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Debug:       getEnvBool("APP_DEBUG", true),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "apso_db"),
			User:     getEnv("DB_USER", "apso_user"),
			Password: getEnv("DB_PASSWORD", "apso_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxIdle:  getEnvInt("DB_MAX_IDLE", 10),
			MaxOpen:  getEnvInt("DB_MAX_OPEN", 100),
			MaxLife:  getEnvDuration("DB_MAX_LIFE", time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Auth: AuthConfig{
			AccessSecret:   getEnv("AUTH_ACCESS_SECRET", "your-secret-key"),
			Issuer:         getEnv("AUTH_ISSUER", "apso"),
			Audience:       getEnv("AUTH_AUDIENCE", "apso-clients"),
			AccessTokenTTL: getEnvDuration("AUTH_ACCESS_TTL", 24*time.Hour),
		},
		API: APIConfig{
			RateLimitPerMinute: getEnvInt("API_RATE_LIMIT", 100),
			TimeoutSeconds:     getEnvInt("API_TIMEOUT", 30),
			MaxRequestSize:     getEnvInt64("API_MAX_REQUEST_SIZE", 1048576), // 1MB
		},
		Invest: InvestConfig{
			EntryPlanID:         getEnv("INVEST_ENTRY_PLAN_ID", "p1"),
			EntryPlanLimit:      getEnvInt("INVEST_ENTRY_PLAN_LIMIT", 5),
			WithdrawalHold:      getEnvBool("INVEST_WITHDRAWAL_HOLD", false),
			AccrualPollInterval: getEnvDuration("INVEST_ACCRUAL_POLL_INTERVAL", 10*time.Second),
			AccrualScanInterval: getEnvDuration("INVEST_ACCRUAL_SCAN_INTERVAL", time.Hour),
		},
	}

	return config, nil
}

// GetDSN returns database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// GetRedisAddr returns Redis connection address
func (r *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsDevelopment returns true if environment is development
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if environment is production
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.App.IsProduction() && c.Auth.AccessSecret == "your-secret-key" {
		return fmt.Errorf("auth secret must be set and not use default value")
	}
	if c.Invest.EntryPlanID == "" {
		return fmt.Errorf("entry plan id is required")
	}
	if c.Invest.EntryPlanLimit <= 0 {
		return fmt.Errorf("entry plan limit must be positive")
	}

	return nil
}

// Print prints configuration (excluding sensitive data)
func (c *Config) Print() {
	fmt.Printf("=== Configuration ===\n")
	fmt.Printf("App Name: %s\n", c.App.Name)
	fmt.Printf("Environment: %s\n", c.App.Environment)
	fmt.Printf("Port: %s\n", c.App.Port)
	fmt.Printf("Debug: %v\n", c.App.Debug)
	fmt.Printf("Database: %s:%s/%s\n", c.Database.Host, c.Database.Port, c.Database.Name)
	fmt.Printf("Redis: %s:%s/%d\n", c.Redis.Host, c.Redis.Port, c.Redis.DB)
	fmt.Printf("Entry Plan: %s (limit %d)\n", c.Invest.EntryPlanID, c.Invest.EntryPlanLimit)
	fmt.Printf("Withdrawal Hold: %v\n", c.Invest.WithdrawalHold)
	fmt.Printf("====================\n")
}
