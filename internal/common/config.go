package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	Geocode     GeocodeConfig `toml:"geocode"`
	Dedup       DedupConfig   `toml:"dedup"`
	Matching    MatchingConfig `toml:"matching"`
	Seeds       SeedsConfig   `toml:"seeds"`
	Logging     LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=0,max=65535"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Blob   BlobConfig   `toml:"blob"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// BlobConfig points at the filesystem blob root holding raw message payloads
type BlobConfig struct {
	Path string `toml:"path"`
}

type PipelineConfig struct {
	Enabled            bool   `toml:"enabled"`
	PollInterval       string `toml:"poll_interval"`        // e.g. "5s"
	BatchSize          int    `toml:"batch_size" validate:"min=1,max=500"`
	Concurrency        int    `toml:"concurrency" validate:"min=1,max=64"` // per-batch bounded parallelism
	MaxAttempts        int    `toml:"max_attempts" validate:"min=1"`
	StepTimeout        string `toml:"step_timeout"`         // timeout per external call
	StaleThreshold     string `toml:"stale_threshold"`      // processing items older than this are reclaimed
	StaleSweepSchedule string `toml:"stale_sweep_schedule"` // cron schedule format
}

type GeocodeConfig struct {
	BaseURL        string `toml:"base_url"`
	AccessToken    string `toml:"access_token"`
	RequestTimeout string `toml:"request_timeout"`
	RateLimit      int    `toml:"rate_limit"` // requests per second
	MemoryTTL      string `toml:"memory_ttl"` // in-memory cache tier TTL
}

type DedupConfig struct {
	FingerprintWindow string `toml:"fingerprint_window"` // strict duplicate lookback
	LegacyWindow      string `toml:"legacy_window"`      // loose update lookback
	GraceWindow       string `toml:"grace_window"`       // expiration correction window
}

type MatchingConfig struct {
	DefaultCooldownSeconds int    `toml:"default_cooldown_seconds" validate:"min=0"`
	CreditCheckEnabled     bool   `toml:"credit_check_enabled"`
	NotifyTimeout          string `toml:"notify_timeout"`
}

// SeedsConfig points at directories scanned on startup for tenants, hunt
// plans (TOML) and parser hint packs (YAML)
type SeedsConfig struct {
	TenantsDir string `toml:"tenants_dir"`
	HuntsDir   string `toml:"hunts_dir"`
	HintsDir   string `toml:"hints_dir"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Output     []string `toml:"output"` // "stdout", "file"
	TimeFormat string   `toml:"time_format"`
}

// NewDefaultConfig returns the default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8085,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/loadscout",
				ResetOnStartup: false,
			},
			Blob: BlobConfig{
				Path: "./data/blobs",
			},
		},
		Pipeline: PipelineConfig{
			Enabled:            true,
			PollInterval:       "5s",
			BatchSize:          DefaultBatchSize,
			Concurrency:        DefaultConcurrency,
			MaxAttempts:        DefaultMaxAttempts,
			StepTimeout:        "30s",
			StaleThreshold:     "5m",
			StaleSweepSchedule: DefaultStaleSweepSchedule,
		},
		Geocode: GeocodeConfig{
			BaseURL:        "https://api.mapbox.com",
			AccessToken:    "", // user must provide token in config file
			RequestTimeout: "15s",
			RateLimit:      DefaultGeocodeRateLimit,
			MemoryTTL:      "30m",
		},
		Dedup: DedupConfig{
			FingerprintWindow: "168h",
			LegacyWindow:      "48h",
			GraceWindow:       "6h",
		},
		Matching: MatchingConfig{
			DefaultCooldownSeconds: DefaultCooldownSeconds,
			CreditCheckEnabled:     false,
			NotifyTimeout:          "10s",
		},
		Seeds: SeedsConfig{
			TenantsDir: "./seeds/tenants",
			HuntsDir:   "./seeds/hunts",
			HintsDir:   "./seeds/hints",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// CLI flag overrides are applied by the caller after loading.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies LOADSCOUT_* environment variables over file values
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LOADSCOUT_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("LOADSCOUT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LOADSCOUT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if path := os.Getenv("LOADSCOUT_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if path := os.Getenv("LOADSCOUT_BLOB_PATH"); path != "" {
		config.Storage.Blob.Path = path
	}
	if interval := os.Getenv("LOADSCOUT_POLL_INTERVAL"); interval != "" {
		config.Pipeline.PollInterval = interval
	}
	if concurrency := os.Getenv("LOADSCOUT_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Pipeline.Concurrency = c
		}
	}
	if token := os.Getenv("LOADSCOUT_GEOCODE_TOKEN"); token != "" {
		config.Geocode.AccessToken = token
	}
	if url := os.Getenv("LOADSCOUT_GEOCODE_URL"); url != "" {
		config.Geocode.BaseURL = url
	}
	if level := os.Getenv("LOADSCOUT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// Duration accessors with defaults for string-typed config values

func (c PipelineConfig) PollIntervalDuration() time.Duration {
	return ParseDurationOr(c.PollInterval, DefaultPollInterval)
}

func (c PipelineConfig) StepTimeoutDuration() time.Duration {
	return ParseDurationOr(c.StepTimeout, DefaultStepTimeout)
}

func (c PipelineConfig) StaleThresholdDuration() time.Duration {
	return ParseDurationOr(c.StaleThreshold, DefaultStaleThreshold)
}

func (c GeocodeConfig) RequestTimeoutDuration() time.Duration {
	return ParseDurationOr(c.RequestTimeout, DefaultGeocodeTimeout)
}

func (c GeocodeConfig) MemoryTTLDuration() time.Duration {
	return ParseDurationOr(c.MemoryTTL, DefaultGeocodeMemTTL)
}

func (c DedupConfig) FingerprintWindowDuration() time.Duration {
	return ParseDurationOr(c.FingerprintWindow, DefaultFingerprintWindow)
}

func (c DedupConfig) LegacyWindowDuration() time.Duration {
	return ParseDurationOr(c.LegacyWindow, DefaultLegacyHashWindow)
}

func (c DedupConfig) GraceWindowDuration() time.Duration {
	return ParseDurationOr(c.GraceWindow, DefaultGraceWindow)
}

func (c MatchingConfig) NotifyTimeoutDuration() time.Duration {
	return ParseDurationOr(c.NotifyTimeout, 10*time.Second)
}
