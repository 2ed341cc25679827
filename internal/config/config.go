package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rentchain-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Escrow    EscrowConfig    `yaml:"escrow"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains gRPC server settings. The HTTP server listens on
// HTTPPort, or on Port+1 when unset.
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	HTTPPort int    `yaml:"http_port"`
}

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects the store. The memory driver ignores the rest.
type DatabaseConfig struct {
	Driver              string `yaml:"driver"` // "memory" or "postgres"
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	User                string `yaml:"user"`
	Password            string `yaml:"password"`
	Database            string `yaml:"database"`
	SSLMode             string `yaml:"ssl_mode"`
	ConnectRetrySeconds int    `yaml:"connect_retry_seconds"`
	CreateSchema        bool   `yaml:"create_schema"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// EscrowConfig holds the fee constants. They are fixed for the lifetime of a
// deployment.
type EscrowConfig struct {
	ProtectionFee        int64  `yaml:"protection_fee"`
	VoterReward          int64  `yaml:"voter_reward"`
	VotePrice            int64  `yaml:"vote_price"`
	MinimumVotes         int    `yaml:"minimum_votes"`
	DisputeWindowHours   int    `yaml:"dispute_window_hours"`
	CreditsPerNativeUnit int64  `yaml:"credits_per_native_unit"`
	TreasuryAccount      string `yaml:"treasury_account"`
}

// EmailConfig contains SendGrid settings. An empty API key disables sending.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ResolveExpiredDisputes string `yaml:"resolve_expired_disputes"`
	ReconcileLedger        string `yaml:"reconcile_ledger"`
}

// Load reads configuration from a YAML file. Any .env files next to it are
// loaded into the environment before overrides are applied.
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	loadEnv(filepath.Dir(configPath))

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnv(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(filepath.Join(dir, name)) // later files win
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Escrow
	if val := os.Getenv("ESCROW_PROTECTION_FEE"); val != "" {
		fmt.Sscanf(val, "%d", &c.Escrow.ProtectionFee)
	}
	if val := os.Getenv("ESCROW_VOTER_REWARD"); val != "" {
		fmt.Sscanf(val, "%d", &c.Escrow.VoterReward)
	}
	if val := os.Getenv("ESCROW_VOTE_PRICE"); val != "" {
		fmt.Sscanf(val, "%d", &c.Escrow.VotePrice)
	}
	if val := os.Getenv("ESCROW_TREASURY_ACCOUNT"); val != "" {
		c.Escrow.TreasuryAccount = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.FromEmail = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = c.Server.Port + 1
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.ConnectRetrySeconds == 0 {
			c.Database.ConnectRetrySeconds = 30
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Escrow defaults
	defaults := domain.DefaultFeeSchedule()
	if c.Escrow.ProtectionFee == 0 {
		c.Escrow.ProtectionFee = defaults.ProtectionFee
	}
	if c.Escrow.VoterReward == 0 {
		c.Escrow.VoterReward = defaults.VoterReward
	}
	if c.Escrow.VotePrice == 0 {
		c.Escrow.VotePrice = defaults.VotePrice
	}
	if c.Escrow.MinimumVotes == 0 {
		c.Escrow.MinimumVotes = defaults.MinimumVotes
	}
	if c.Escrow.DisputeWindowHours == 0 {
		c.Escrow.DisputeWindowHours = int(defaults.DisputeWindow / time.Hour)
	}
	if c.Escrow.CreditsPerNativeUnit == 0 {
		c.Escrow.CreditsPerNativeUnit = defaults.CreditsPerNativeUnit
	}
	if c.Escrow.TreasuryAccount == "" {
		c.Escrow.TreasuryAccount = defaults.TreasuryAccount
	}
	if c.Escrow.ProtectionFee < 0 || c.Escrow.VoterReward < 0 || c.Escrow.VotePrice < 0 {
		return fmt.Errorf("escrow fees must not be negative")
	}
	if c.Escrow.MinimumVotes < 1 {
		return fmt.Errorf("minimum votes must be at least 1")
	}

	// Email defaults
	if c.Email.FromName == "" {
		c.Email.FromName = "RentChain"
	}
	if c.Email.SendGridAPIKey != "" && c.Email.FromEmail == "" {
		return fmt.Errorf("email from address is required when SendGrid is enabled")
	}

	// Scheduler defaults
	if c.Scheduler.ResolveExpiredDisputes == "" {
		c.Scheduler.ResolveExpiredDisputes = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.ReconcileLedger == "" {
		c.Scheduler.ReconcileLedger = "0 0 * * * *" // hourly
	}

	return nil
}

// FeeSchedule converts the escrow section to the domain fee schedule.
func (c *Config) FeeSchedule() domain.FeeSchedule {
	return domain.FeeSchedule{
		ProtectionFee:        c.Escrow.ProtectionFee,
		VoterReward:          c.Escrow.VoterReward,
		VotePrice:            c.Escrow.VotePrice,
		MinimumVotes:         c.Escrow.MinimumVotes,
		DisputeWindow:        time.Duration(c.Escrow.DisputeWindowHours) * time.Hour,
		CreditsPerNativeUnit: c.Escrow.CreditsPerNativeUnit,
		TreasuryAccount:      c.Escrow.TreasuryAccount,
	}
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the HTTP server address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
