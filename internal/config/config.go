package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Storage      StorageConfig      `yaml:"storage"`
	Log          LogConfig          `yaml:"log"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Lock         LockConfig         `yaml:"lock"`
	Penalty      PenaltyConfig      `yaml:"penalty"`
	PlatformBank PlatformBankConfig `yaml:"platform_bank"`
	Redis        RedisConfig        `yaml:"redis"`
	Cron         CronConfig         `yaml:"cron"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

// JWTConfig contains settings for validating identity-provider tokens
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// StorageConfig contains deposit proof storage settings
type StorageConfig struct {
	Type            string        `yaml:"type"`       // "mock" or "s3"
	UploadDir       string        `yaml:"upload_dir"` // For mock storage
	BaseURL         string        `yaml:"base_url"`   // Server base URL for mock URLs
	Bucket          string        `yaml:"bucket"`
	Endpoint        string        `yaml:"endpoint"` // S3-compatible endpoint, e.g. R2
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	PresignExpiry   time.Duration `yaml:"presign_expiry"`
	AllowedTypes    []string      `yaml:"allowed_types"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ROIPayout         string `yaml:"roi_payout"`
	MatureInvestments string `yaml:"mature_investments"`
}

// LockConfig selects the payout mutual-exclusion backend
type LockConfig struct {
	Backend string        `yaml:"backend"` // "postgres" or "redis"
	Name    string        `yaml:"name"`
	TTL     time.Duration `yaml:"ttl"`
}

// PenaltyConfig holds the platform early-withdrawal policy
type PenaltyConfig struct {
	EarlyWithdrawalRate string `yaml:"early_withdrawal_rate"` // fraction, "0.05"

	rate decimal.Decimal
}

// Rate returns the parsed early-withdrawal rate. Valid after Validate.
func (p PenaltyConfig) Rate() decimal.Decimal {
	return p.rate
}

// PlatformBankConfig is the account investors pay deposits into
type PlatformBankConfig struct {
	BankName      string `yaml:"bank_name"`
	AccountName   string `yaml:"account_name"`
	AccountNumber string `yaml:"account_number"`
}

// RedisConfig contains Redis settings for ledger events and the redis lock
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	EventsChannel string `yaml:"events_channel"`
}

// CronConfig contains the shared secret for the HTTP payout trigger
type CronConfig struct {
	TriggerKey string `yaml:"trigger_key"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a configuration from YAML bytes, environment overrides and defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envOverrides lists the environment variables that may override the file.
// Unset variables leave their pointer nil.
type envOverrides struct {
	ServerHost *string `envconfig:"SERVER_HOST"`
	ServerPort *int    `envconfig:"SERVER_PORT"`

	DBHost     *string `envconfig:"DB_HOST"`
	DBPort     *int    `envconfig:"DB_PORT"`
	DBUser     *string `envconfig:"DB_USER"`
	DBPassword *string `envconfig:"DB_PASSWORD"`
	DBName     *string `envconfig:"DB_NAME"`
	DBSSLMode  *string `envconfig:"DB_SSL_MODE"`

	JWTSecret *string `envconfig:"JWT_SECRET"`

	LogLevel  *string `envconfig:"LOG_LEVEL"`
	LogFormat *string `envconfig:"LOG_FORMAT"`

	StorageType            *string `envconfig:"STORAGE_TYPE"`
	UploadDir              *string `envconfig:"UPLOAD_DIR"`
	StorageBucket          *string `envconfig:"STORAGE_BUCKET"`
	StorageEndpoint        *string `envconfig:"STORAGE_ENDPOINT"`
	StorageAccessKeyID     *string `envconfig:"STORAGE_ACCESS_KEY_ID"`
	StorageSecretAccessKey *string `envconfig:"STORAGE_SECRET_ACCESS_KEY"`

	LockBackend *string        `envconfig:"LOCK_BACKEND"`
	LockTTL     *time.Duration `envconfig:"LOCK_TTL"`

	EarlyWithdrawalRate *string `envconfig:"PENALTY_EARLY_WITHDRAWAL_RATE"`

	RedisEnabled  *bool   `envconfig:"REDIS_ENABLED"`
	RedisAddr     *string `envconfig:"REDIS_ADDR"`
	RedisPassword *string `envconfig:"REDIS_PASSWORD"`

	CronTriggerKey *string `envconfig:"CRON_TRIGGER_KEY"`
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() error {
	var o envOverrides
	if err := envconfig.Process("", &o); err != nil {
		return err
	}

	setString(&c.Server.Host, o.ServerHost)
	setInt(&c.Server.Port, o.ServerPort)

	setString(&c.Database.Host, o.DBHost)
	setInt(&c.Database.Port, o.DBPort)
	setString(&c.Database.User, o.DBUser)
	setString(&c.Database.Password, o.DBPassword)
	setString(&c.Database.Database, o.DBName)
	setString(&c.Database.SSLMode, o.DBSSLMode)

	setString(&c.JWT.Secret, o.JWTSecret)

	setString(&c.Log.Level, o.LogLevel)
	setString(&c.Log.Format, o.LogFormat)

	setString(&c.Storage.Type, o.StorageType)
	setString(&c.Storage.UploadDir, o.UploadDir)
	setString(&c.Storage.Bucket, o.StorageBucket)
	setString(&c.Storage.Endpoint, o.StorageEndpoint)
	setString(&c.Storage.AccessKeyID, o.StorageAccessKeyID)
	setString(&c.Storage.SecretAccessKey, o.StorageSecretAccessKey)

	setString(&c.Lock.Backend, o.LockBackend)
	if o.LockTTL != nil {
		c.Lock.TTL = *o.LockTTL
	}

	setString(&c.Penalty.EarlyWithdrawalRate, o.EarlyWithdrawalRate)

	if o.RedisEnabled != nil {
		c.Redis.Enabled = *o.RedisEnabled
	}
	setString(&c.Redis.Addr, o.RedisAddr)
	setString(&c.Redis.Password, o.RedisPassword)

	setString(&c.Cron.TriggerKey, o.CronTriggerKey)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 25
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	switch c.Storage.Type {
	case "", "mock":
		c.Storage.Type = "mock"
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3 storage")
		}
		if c.Storage.Region == "" {
			c.Storage.Region = "auto"
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.PresignExpiry == 0 {
		c.Storage.PresignExpiry = 15 * time.Minute
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	}

	if c.Scheduler.ROIPayout == "" {
		c.Scheduler.ROIPayout = "0 0 1 * * *" // 1 AM UTC daily
	}
	if c.Scheduler.MatureInvestments == "" {
		c.Scheduler.MatureInvestments = "0 30 1 * * *" // 1:30 AM UTC daily
	}

	if c.Lock.Backend == "" {
		c.Lock.Backend = "postgres"
	}
	if c.Lock.Backend != "postgres" && c.Lock.Backend != "redis" {
		return fmt.Errorf("unsupported lock backend: %s", c.Lock.Backend)
	}
	if c.Lock.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("redis lock backend requires redis.enabled")
	}
	if c.Lock.Name == "" {
		c.Lock.Name = "ROI_CRON"
	}
	if c.Lock.TTL == 0 {
		c.Lock.TTL = 10 * time.Minute
	}

	if c.Penalty.EarlyWithdrawalRate == "" {
		c.Penalty.EarlyWithdrawalRate = "0.05"
	}
	rate, err := decimal.NewFromString(c.Penalty.EarlyWithdrawalRate)
	if err != nil {
		return fmt.Errorf("invalid early withdrawal rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("early withdrawal rate must be between 0 and 1: %s", rate)
	}
	c.Penalty.rate = rate

	if c.Redis.Enabled && c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.EventsChannel == "" {
		c.Redis.EventsChannel = "ledger_events"
	}

	return nil
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

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
