package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"zoombook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Booking    BookingConfig    `yaml:"booking"`
	Users      UsersConfig      `yaml:"users"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	// SessionPolicy is "displace" (last login wins) or "reject"
	// (second login refused while a session is live).
	SessionPolicy string          `yaml:"session_policy"`
	SessionTTL    int             `yaml:"session_ttl"` // seconds
	AdminUsername string          `yaml:"admin_username"`
	AdminPassword string          `yaml:"admin_password"`
	LoginRate     LoginRateConfig `yaml:"login_rate"`
}

type LoginRateConfig struct {
	Attempts int `yaml:"attempts"`
	Window   int `yaml:"window"` // seconds
}

type BookingConfig struct {
	Rooms         []string            `yaml:"rooms"`
	BusinessHours BusinessHoursConfig `yaml:"business_hours"`
}

type BusinessHoursConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

// IsEnabled treats an omitted enabled flag as on.
func (c BusinessHoursConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

type UsersConfig struct {
	DefaultRole string `yaml:"default_role"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables may come from the host
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay out of yaml
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Auth.SessionPolicy {
	case models.SessionPolicyDisplace, models.SessionPolicyReject:
	default:
		return fmt.Errorf("unknown session policy %q", c.Auth.SessionPolicy)
	}

	if c.Auth.AdminPassword == "" {
		return errors.New("admin password is required (set ADMIN_PASSWORD)")
	}
	if strings.EqualFold(c.App.Environment, "production") && c.Auth.AdminPassword == "123456" {
		return errors.New("refusing to run in production with the default admin password")
	}

	switch c.Users.DefaultRole {
	case models.RoleAdmin, models.RoleUser:
	default:
		return fmt.Errorf("unknown default role %q", c.Users.DefaultRole)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Auth.SessionPolicy == "" {
		c.Auth.SessionPolicy = models.SessionPolicyDisplace
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = models.DefaultSessionTTL
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = "admin"
	}
	if c.Auth.LoginRate.Attempts == 0 {
		c.Auth.LoginRate.Attempts = models.DefaultLoginAttempts
	}
	if c.Auth.LoginRate.Window == 0 {
		c.Auth.LoginRate.Window = models.DefaultLoginWindow
	}
	if len(c.Booking.Rooms) == 0 {
		c.Booking.Rooms = []string{"A101", "A102", "B201", "B202"}
	}
	if c.Booking.BusinessHours.Start == "" {
		c.Booking.BusinessHours.Start = models.BusinessHoursStart
	}
	if c.Booking.BusinessHours.End == "" {
		c.Booking.BusinessHours.End = models.BusinessHoursEnd
	}
	if c.Users.DefaultRole == "" {
		c.Users.DefaultRole = models.RoleUser
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
