package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"zolver/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
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

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SchedulingConfig carries the knobs of the appointment core.
type SchedulingConfig struct {
	// DefaultJobDuration is the assumed length of a job-origin
	// appointment; jobs have no explicit duration of their own.
	DefaultJobDuration time.Duration `yaml:"default_job_duration"`

	// ASAPSentinel is the scheduled_for value meaning "start now".
	ASAPSentinel string `yaml:"asap_sentinel"`

	// StoreTimeout bounds each round trip to the appointment store.
	StoreTimeout time.Duration `yaml:"store_timeout"`

	// ScheduleCacheTTL is the lifetime of a cached projected schedule.
	ScheduleCacheTTL time.Duration `yaml:"schedule_cache_ttl"`
}

// UnmarshalYAML accepts durations in time.ParseDuration notation
// ("2h", "90m") instead of raw nanosecond integers.
func (s *SchedulingConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DefaultJobDuration string `yaml:"default_job_duration"`
		ASAPSentinel       string `yaml:"asap_sentinel"`
		StoreTimeout       string `yaml:"store_timeout"`
		ScheduleCacheTTL   string `yaml:"schedule_cache_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.ASAPSentinel = raw.ASAPSentinel

	parse := func(name, v string, dst *time.Duration) error {
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("scheduling.%s: %w", name, err)
		}
		*dst = d
		return nil
	}

	if err := parse("default_job_duration", raw.DefaultJobDuration, &s.DefaultJobDuration); err != nil {
		return err
	}
	if err := parse("store_timeout", raw.StoreTimeout, &s.StoreTimeout); err != nil {
		return err
	}
	return parse("schedule_cache_ttl", raw.ScheduleCacheTTL, &s.ScheduleCacheTTL)
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile     string `yaml:"credentials_file"`
	AppointmentsSpreadSheetID string `yaml:"appointments_spreadsheet_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; config values may reference its variables.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

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

	if c.Scheduling.DefaultJobDuration < 0 {
		return errors.New("scheduling.default_job_duration must not be negative")
	}

	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Scheduling.DefaultJobDuration == 0 {
		c.Scheduling.DefaultJobDuration = models.DefaultJobDuration
	}
	if c.Scheduling.ASAPSentinel == "" {
		c.Scheduling.ASAPSentinel = models.ASAPSentinel
	}
	if c.Scheduling.StoreTimeout == 0 {
		c.Scheduling.StoreTimeout = models.DefaultStoreTimeout
	}
	if c.Scheduling.ScheduleCacheTTL == 0 {
		c.Scheduling.ScheduleCacheTTL = models.DefaultScheduleCacheTTL
	}
}
