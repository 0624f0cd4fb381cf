package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for a horizon scan
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Search    SearchConfig    `mapstructure:"search"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Index     IndexConfig     `mapstructure:"index"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogJSON   bool   `mapstructure:"log_json"`
	OutputDir string `mapstructure:"output_dir"`
}

// LLMConfig configures the generative service
type LLMConfig struct {
	Provider string        `mapstructure:"provider"` // openai
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model required")
	}
	if l.Timeout < 0 {
		return fmt.Errorf("llm.timeout cannot be negative")
	}
	return nil
}

// PollingConfig controls how long-running generative jobs are awaited
type PollingConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	MaxCycles int           `mapstructure:"max_cycles"`
	Debug     bool          `mapstructure:"debug"`
	DebugFile string        `mapstructure:"debug_file"`
}

// Normalize fills unset polling values with defaults. Negative intervals fall
// back to the default; zero means poll back to back.
func (p PollingConfig) Normalize() PollingConfig {
	if p.Interval < 0 {
		p.Interval = DefaultPollInterval
	}
	if p.MaxCycles <= 0 {
		p.MaxCycles = DefaultMaxPollCycles
	}
	if strings.TrimSpace(p.DebugFile) == "" {
		p.DebugFile = DefaultDebugFile
	}
	return p
}

// SearchConfig configures the web search provider
type SearchConfig struct {
	Provider          string        `mapstructure:"provider"` // parallel, serper, brave
	APIKey            string        `mapstructure:"api_key"`
	BraveAPIKey       string        `mapstructure:"brave_api_key"`
	SerperAPIKey      string        `mapstructure:"serper_api_key"`
	MaxRetries        int           `mapstructure:"max_retries"`
	MaxResults        int           `mapstructure:"max_results"`
	MaxCharsPerResult int           `mapstructure:"max_chars_per_result"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

func (s SearchConfig) Validate() error {
	switch s.Provider {
	case "parallel", "serper", "brave":
	default:
		return fmt.Errorf("search.provider %q not supported", s.Provider)
	}
	if s.MaxRetries < 0 || s.MaxRetries > MaxSearchRetries {
		return fmt.Errorf("search.max_retries must be between 0 and %d", MaxSearchRetries)
	}
	if s.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be > 0")
	}
	return nil
}

// CacheConfig selects where report artifacts are cached
type CacheConfig struct {
	Backend string      `mapstructure:"backend"` // file, redis, none
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "file":
		if strings.TrimSpace(c.Dir) == "" {
			return fmt.Errorf("cache.dir required for file backend")
		}
	case "redis":
		return c.Redis.Validate()
	case "none":
	default:
		return fmt.Errorf("cache.backend %q not supported", c.Backend)
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("cache.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("cache.redis.port required")
	}
	return nil
}

// IndexConfig controls the local signal index
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

const (
	DefaultModel         = "o4-mini-deep-research"
	DefaultPollInterval  = 8 * time.Second
	DefaultMaxPollCycles = 120
	DefaultDebugFile     = "dr_debug_last_status.json"
	MaxSearchRetries     = 10
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "INFO")
	v.SetDefault("general.log_json", false)
	v.SetDefault("general.output_dir", ".")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com")
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("polling.interval", DefaultPollInterval)
	v.SetDefault("polling.max_cycles", DefaultMaxPollCycles)
	v.SetDefault("polling.debug", false)
	v.SetDefault("polling.debug_file", DefaultDebugFile)

	v.SetDefault("search.provider", "parallel")
	v.SetDefault("search.max_retries", 3)
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.max_chars_per_result", 1500)
	v.SetDefault("search.timeout", 15*time.Second)

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", ".cache/horizon")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", "6379")
	v.SetDefault("cache.redis.timeout", 5*time.Second)

	v.SetDefault("index.enabled", false)
	v.SetDefault("index.dir", ".cache/horizon/signals.bleve")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.metrics_port", 9464)

	v.SetDefault("server.address", ":10001")
}

// Default returns the configuration obtained with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg, decodeHook())
	cfg.Polling = cfg.Polling.Normalize()
	return &cfg
}

// LoadConfig reads .env, an optional horizon.{json,yaml} config file and
// HORIZON_* environment variables. path selects an explicit config file;
// when empty the working directory and ./config are searched and a missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("horizon")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("HORIZON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// provider-native variable names are honoured as well
	_ = v.BindEnv("llm.api_key", "HORIZON_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.model", "HORIZON_LLM_MODEL", "OPENAI_MODEL")
	_ = v.BindEnv("search.api_key", "HORIZON_SEARCH_API_KEY", "PARALLEL_AI_API_KEY")
	_ = v.BindEnv("search.serper_api_key", "HORIZON_SEARCH_SERPER_API_KEY", "SERPER_API_KEY")
	_ = v.BindEnv("search.brave_api_key", "HORIZON_SEARCH_BRAVE_API_KEY", "BRAVE_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Polling = cfg.Polling.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// secondsDurationHook reads a bare number, or a string holding one, as a
// count of seconds. Strings with a unit are left to time.ParseDuration.
func secondsDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case uint64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return data, nil
			}
			return time.Duration(n * float64(time.Second)), nil
		}
		return data, nil
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}
