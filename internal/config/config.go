package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	CORS       CORSConfig
	Attendance AttendanceConfig
	Cron       CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Version  string
	Port     int
	Env      string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AttendanceConfig holds the organisation-wide time-accounting rules.
type AttendanceConfig struct {
	Timezone            string
	StandardStartTime   string
	StandardWorkHours   decimal.Decimal
	DefaultWage         decimal.Decimal
	DefaultOvertimeRate decimal.Decimal
	WorkingDaysPerMonth int
}

type CronConfig struct {
	Enabled       bool
	AbsentJobTick time.Duration
}

func Load() (*Config, error) {
	// .env is optional in containers where the environment is injected directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "attendance-api"),
		Version:  getEnv("APP_VERSION", "v1.0.0"),
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// Attendance rules
	standardHours, err := decimal.NewFromString(getEnv("STANDARD_WORK_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid STANDARD_WORK_HOURS: %w", err)
	}
	defaultWage, err := decimal.NewFromString(getEnv("DEFAULT_WAGE", "15.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_WAGE: %w", err)
	}
	defaultOvertimeRate, err := decimal.NewFromString(getEnv("DEFAULT_OVERTIME_RATE", "1.5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_OVERTIME_RATE: %w", err)
	}
	workingDays, err := strconv.Atoi(getEnv("WORKING_DAYS_PER_MONTH", "22"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKING_DAYS_PER_MONTH: %w", err)
	}

	config.Attendance = AttendanceConfig{
		Timezone:            getEnv("TIMEZONE", "Asia/Manila"),
		StandardStartTime:   getEnv("STANDARD_START_TIME", "09:00:00"),
		StandardWorkHours:   standardHours,
		DefaultWage:         defaultWage,
		DefaultOvertimeRate: defaultOvertimeRate,
		WorkingDaysPerMonth: workingDays,
	}

	// Background jobs
	cronEnabled, err := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ENABLED: %w", err)
	}
	absentTick, err := time.ParseDuration(getEnv("CRON_ABSENT_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_ABSENT_INTERVAL: %w", err)
	}

	config.Cron = CronConfig{
		Enabled:       cronEnabled,
		AbsentJobTick: absentTick,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if _, err := time.LoadLocation(c.Attendance.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if _, err := time.Parse("15:04:05", c.Attendance.StandardStartTime); err != nil {
		return errors.New("STANDARD_START_TIME must be in HH:MM:SS format")
	}
	if !c.Attendance.StandardWorkHours.IsPositive() {
		return errors.New("STANDARD_WORK_HOURS must be positive")
	}
	if c.Attendance.DefaultWage.IsNegative() {
		return errors.New("DEFAULT_WAGE must not be negative")
	}
	if c.Attendance.DefaultOvertimeRate.IsNegative() {
		return errors.New("DEFAULT_OVERTIME_RATE must not be negative")
	}
	if c.Attendance.WorkingDaysPerMonth <= 0 {
		return errors.New("WORKING_DAYS_PER_MONTH must be positive")
	}
	if c.Cron.Enabled && c.Cron.AbsentJobTick <= 0 {
		return errors.New("CRON_ABSENT_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
