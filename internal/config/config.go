package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Calendar CalendarConfig `yaml:"calendar" envconfig:"CALENDAR"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
	DataDir         string        `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"20"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/salespulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// AnalysisConfig holds the defaults applied when a caller leaves an
// analysis parameter unset.
type AnalysisConfig struct {
	Clusters        int     `yaml:"clusters" envconfig:"CLUSTERS" default:"4"`
	Seed            int64   `yaml:"seed" envconfig:"SEED" default:"42"`
	ForecastPeriods int     `yaml:"forecast_periods" envconfig:"FORECAST_PERIODS" default:"6"`
	ForecastMethod  string  `yaml:"forecast_method" envconfig:"FORECAST_METHOD" default:"linear"`
	TopN            int     `yaml:"top_n" envconfig:"TOP_N" default:"10"`
	TotalTolerance  float64 `yaml:"total_tolerance" envconfig:"TOTAL_TOLERANCE" default:"0.01"`
}

// CalendarConfig points at the promotional calendar file. An empty path
// selects DefaultCalendar.
type CalendarConfig struct {
	Path string `yaml:"path" envconfig:"FILE"`
}

// ExportConfig controls where derived tables are written
type ExportConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" default:"reports"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// pick returns the file value when it is set and the environment did not
// set the variable explicitly.
func pick[T comparable](envKey string, envVal, fileVal T) T {
	var zero T
	if _, ok := os.LookupEnv(EnvPrefix + "_" + envKey); ok || fileVal == zero {
		return envVal
	}
	return fileVal
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	out := envConfig

	out.Server.Port = pick("SERVER_PORT", envConfig.Server.Port, fileConfig.Server.Port)
	out.Server.ReadTimeout = pick("SERVER_READ_TIMEOUT", envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	out.Server.WriteTimeout = pick("SERVER_WRITE_TIMEOUT", envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	out.Server.IdleTimeout = pick("SERVER_IDLE_TIMEOUT", envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout)
	out.Server.ShutdownTimeout = pick("SERVER_SHUTDOWN_TIMEOUT", envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)
	out.Server.RequestTimeout = pick("SERVER_REQUEST_TIMEOUT", envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout)
	out.Server.DataDir = pick("SERVER_DATA_DIR", envConfig.Server.DataDir, fileConfig.Server.DataDir)

	if _, ok := os.LookupEnv(EnvPrefix + "_SECURITY_ALLOWED_ORIGINS"); !ok && len(fileConfig.Security.AllowedOrigins) > 0 {
		out.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	out.Security.RateLimit.RPS = pick("SECURITY_RATE_LIMIT_RPS", envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS)
	out.Security.RateLimit.Burst = pick("SECURITY_RATE_LIMIT_BURST", envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst)

	out.Logging.Level = pick("LOGGING_LEVEL", envConfig.Logging.Level, fileConfig.Logging.Level)
	out.Logging.Output = pick("LOGGING_OUTPUT", envConfig.Logging.Output, fileConfig.Logging.Output)
	out.Logging.FilePath = pick("LOGGING_FILE_PATH", envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	out.Analysis.Clusters = pick("ANALYSIS_CLUSTERS", envConfig.Analysis.Clusters, fileConfig.Analysis.Clusters)
	out.Analysis.Seed = pick("ANALYSIS_SEED", envConfig.Analysis.Seed, fileConfig.Analysis.Seed)
	out.Analysis.ForecastPeriods = pick("ANALYSIS_FORECAST_PERIODS", envConfig.Analysis.ForecastPeriods, fileConfig.Analysis.ForecastPeriods)
	out.Analysis.ForecastMethod = pick("ANALYSIS_FORECAST_METHOD", envConfig.Analysis.ForecastMethod, fileConfig.Analysis.ForecastMethod)
	out.Analysis.TopN = pick("ANALYSIS_TOP_N", envConfig.Analysis.TopN, fileConfig.Analysis.TopN)
	out.Analysis.TotalTolerance = pick("ANALYSIS_TOTAL_TOLERANCE", envConfig.Analysis.TotalTolerance, fileConfig.Analysis.TotalTolerance)

	out.Calendar.Path = pick("CALENDAR_FILE", envConfig.Calendar.Path, fileConfig.Calendar.Path)
	out.Export.Dir = pick("EXPORT_DIR", envConfig.Export.Dir, fileConfig.Export.Dir)

	return out
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Analysis.Clusters < 1 {
		return fmt.Errorf("analysis clusters must be at least 1, got %d", c.Analysis.Clusters)
	}

	if c.Analysis.ForecastPeriods < MinForecastPeriods || c.Analysis.ForecastPeriods > MaxForecastPeriods {
		return fmt.Errorf("analysis forecast periods must be between %d and %d", MinForecastPeriods, MaxForecastPeriods)
	}

	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis top_n must be at least 1")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/salespulse.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
			DataDir:         "data",
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/salespulse.log",
		},
		Analysis: AnalysisConfig{
			Clusters:        DefaultClusters,
			Seed:            DefaultSeed,
			ForecastPeriods: 6,
			ForecastMethod:  "linear",
			TopN:            10,
			TotalTolerance:  0.01,
		},
		Export: ExportConfig{
			Dir: "reports",
		},
	}
}
