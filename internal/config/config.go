package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces all environment overrides, e.g. NEPSE_INDICATORS_RSI_WINDOW.
const EnvPrefix = "NEPSE"

// Config represents the complete application configuration
type Config struct {
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
	Paths        PathsConfig        `yaml:"paths" envconfig:"PATHS"`
	Standardizer StandardizerConfig `yaml:"standardizer" envconfig:"STANDARDIZER"`
	Indicators   IndicatorConfig    `yaml:"indicators" envconfig:"INDICATORS"`
	Server       ServerConfig       `yaml:"server" envconfig:"SERVER"`
	Schedule     ScheduleConfig     `yaml:"schedule" envconfig:"SCHEDULE"`
	Watch        WatchConfig        `yaml:"watch" envconfig:"WATCH"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output     string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath   string `yaml:"file_path" envconfig:"FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS" validate:"gte=0"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	MetadataFile string `yaml:"metadata_file" envconfig:"METADATA_FILE"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// StandardizerConfig controls the in-place schema standardization of raw files.
type StandardizerConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
}

// IndicatorConfig holds the windows and spans used by the feature pipeline.
type IndicatorConfig struct {
	SMAWindow  int `yaml:"sma_window" envconfig:"SMA_WINDOW" validate:"gte=1"`
	RSIWindow  int `yaml:"rsi_window" envconfig:"RSI_WINDOW" validate:"gte=1"`
	FastSpan   int `yaml:"fast_span" envconfig:"FAST_SPAN" validate:"gte=1"`
	SlowSpan   int `yaml:"slow_span" envconfig:"SLOW_SPAN" validate:"gte=1"`
	SignalSpan int `yaml:"signal_span" envconfig:"SIGNAL_SPAN" validate:"gte=1"`
	Workers    int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	CacheSize       int             `yaml:"cache_size" envconfig:"CACHE_SIZE" validate:"gte=1"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// ScheduleConfig drives the periodic standardize-then-enrich batch.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Cron    string `yaml:"cron" envconfig:"CRON" validate:"required_if=Enabled true"`
}

// WatchConfig controls standardization of files as they land in the data directory.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED"`
	Debounce time.Duration `yaml:"debounce" envconfig:"DEBOUNCE" validate:"gte=0"`
}

// TelemetryConfig toggles OpenTelemetry metrics and tracing.
type TelemetryConfig struct {
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// NEPSE_* environment variables, in that order of precedence (last wins).
// An empty path searches the usual locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable are left untouched, so file values survive.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Indicators.FastSpan >= c.Indicators.SlowSpan {
		return fmt.Errorf("indicators.fast_span (%d) must be less than indicators.slow_span (%d)",
			c.Indicators.FastSpan, c.Indicators.SlowSpan)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
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
		Logging: LoggingConfig{
			Level:      DefaultLogLevel,
			Output:     "console",
			FilePath:   DefaultLogFile,
			MaxSizeMB:  MaxLogFileSizeMB,
			MaxBackups: MaxLogFileBackups,
			MaxAgeDays: MaxLogFileAge,
		},
		Paths: PathsConfig{
			DataDir:      DefaultDataDir,
			OutputDir:    DefaultOutputDir,
			MetadataFile: DefaultMetadataFile,
			LogsDir:      DefaultLogsDir,
		},
		Standardizer: StandardizerConfig{
			Workers: DefaultWorkers,
		},
		Indicators: IndicatorConfig{
			SMAWindow:  DefaultSMAWindow,
			RSIWindow:  DefaultRSIWindow,
			FastSpan:   DefaultFastSpan,
			SlowSpan:   DefaultSlowSpan,
			SignalSpan: DefaultSignalSpan,
			Workers:    DefaultWorkers,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CacheSize:       DefaultCacheSize,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    DefaultScheduleCron,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: DefaultWatchDebounce,
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			EnableTracing: false,
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}
