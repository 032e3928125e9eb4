package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LOYALTY_SERVER_PORT.
const EnvPrefix = "LOYALTY"

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Points      PointsConfig
	Admin       AdminConfig
	Bot         BotConfig
	Relay       RelayConfig
	Maintenance MaintenanceConfig
	Log         LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string
	AllowedHosts    []string
	ServiceToken    string
	RateLimit       float64
	Burst           int
	ShutdownTimeout time.Duration

	// InsecureChat serves the chat API without a service token. Local use only.
	InsecureChat bool
}

// DatabaseConfig selects and locates the datastore
type DatabaseConfig struct {
	Driver        string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// PointsConfig holds the fixed bonus amounts
type PointsConfig struct {
	WelcomeBonus  int64
	ReferrerBonus int64
	NewUserBonus  int64
}

// AdminConfig gates the administrative API
type AdminConfig struct {
	OperatorIDs []int64
	SecretHash  string
	JWTSecret   string
	TokenTTL    time.Duration
}

// BotConfig describes the chat bot the referral links point at
type BotConfig struct {
	Username string
}

// RelayConfig holds staff chat relay configuration
type RelayConfig struct {
	BaseURL     string
	Token       string
	StaffChatID int64
	Mock        bool
}

// MaintenanceConfig holds backup settings
type MaintenanceConfig struct {
	BackupDir      string
	BackupSchedule string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string
	Encoding   string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Driver names
const (
	DriverSQLite  = "sqlite"
	DriverMongoDB = "mongodb"
)

// Load loads configuration from a .env file, environment variables and config files.
// Extra search paths are tried before the defaults.
func Load(paths ...string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMongoDB:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Server.ServiceToken == "" && !c.Server.InsecureChat {
		return errors.New("server.serviceToken is required unless server.insecureChat is set")
	}
	if c.Points.WelcomeBonus < 0 || c.Points.ReferrerBonus < 0 || c.Points.NewUserBonus < 0 {
		return errors.New("bonus amounts must not be negative")
	}
	if len(c.Admin.OperatorIDs) > 0 && c.Admin.JWTSecret == "" {
		return errors.New("admin.jwtSecret is required when operators are configured")
	}
	return nil
}

// IsOperator reports whether id is on the admin allow-list.
func (c *Config) IsOperator(id int64) bool {
	for _, op := range c.Admin.OperatorIDs {
		if op == id {
			return true
		}
	}
	return false
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Server.AllowedHosts", []string{"*"})
	v.SetDefault("Server.ServiceToken", "")
	v.SetDefault("Server.InsecureChat", false)
	v.SetDefault("Server.RateLimit", 20.0)
	v.SetDefault("Server.Burst", 40)
	v.SetDefault("Server.ShutdownTimeout", "5s")

	v.SetDefault("Database.Driver", DriverSQLite)
	v.SetDefault("Database.SQLitePath", "loyalty.db")
	v.SetDefault("Database.MongoURI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("Database.MongoDatabase", "loyalty")

	v.SetDefault("Points.WelcomeBonus", 250)
	v.SetDefault("Points.ReferrerBonus", 100)
	v.SetDefault("Points.NewUserBonus", 50)

	v.SetDefault("Admin.OperatorIDs", []int64{})
	v.SetDefault("Admin.SecretHash", "")
	v.SetDefault("Admin.JWTSecret", "")
	v.SetDefault("Admin.TokenTTL", "24h")

	v.SetDefault("Bot.Username", "")

	v.SetDefault("Relay.BaseURL", "https://api.telegram.org")
	v.SetDefault("Relay.Token", "")
	v.SetDefault("Relay.StaffChatID", 0)
	v.SetDefault("Relay.Mock", true)

	v.SetDefault("Maintenance.BackupDir", "backups")
	v.SetDefault("Maintenance.BackupSchedule", "")

	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.Encoding", "json")
	v.SetDefault("Log.File", "")
	v.SetDefault("Log.MaxSizeMB", 100)
	v.SetDefault("Log.MaxBackups", 5)
	v.SetDefault("Log.MaxAgeDays", 28)
}
