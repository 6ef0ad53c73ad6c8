package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the bot configuration. Values come from an optional YAML file
// and the environment; environment variables win.
type Config struct {
	Telegram Telegram `yaml:"telegram"`
	Pricing  Pricing  `yaml:"pricing"`
	Dispatch Dispatch `yaml:"dispatch"`
	Metrics  Metrics  `yaml:"metrics"`
	Log      Log      `yaml:"log"`
}

type Telegram struct {
	Token           string `yaml:"token" env:"TELEGRAM_TOKEN"`
	TokenParameter  string `yaml:"token_parameter" env:"TELEGRAM_TOKEN_PARAMETER"`
	KeychainAccount string `yaml:"keychain_account" env:"TELEGRAM_TOKEN_KEYCHAIN_ACCOUNT" env-default:"telegram-token"`
	APIEndpoint     string `yaml:"api_endpoint" env:"TELEGRAM_API_ENDPOINT" env-default:"https://api.telegram.org/bot%s/%s"`
	PollTimeout     int    `yaml:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT" env-default:"30"`
	Handle          string `yaml:"handle" env:"TELEGRAM_HANDLE"`
	InlineCacheTime int    `yaml:"inline_cache_time" env:"TELEGRAM_INLINE_CACHE_TIME" env-default:"0"`
}

type Pricing struct {
	BaseURL string        `yaml:"base_url" env:"PRICING_BASE_URL" env-default:"https://api.coinbase.com/v2/prices"`
	Timeout time.Duration `yaml:"timeout" env:"PRICING_TIMEOUT" env-default:"10s"`

	// PartialResults keeps the quotes that did arrive when one request fails
	// instead of dropping the whole answer.
	PartialResults bool `yaml:"partial_results" env:"PRICING_PARTIAL_RESULTS"`
}

type Dispatch struct {
	MaxConcurrent int `yaml:"max_concurrent" env:"DISPATCH_MAX_CONCURRENT" env-default:"16"`
}

type Metrics struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the config file at path, if any, then the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Telegram.PollTimeout < 0 {
		return fmt.Errorf("telegram poll_timeout must not be negative")
	}
	if c.Pricing.BaseURL == "" {
		return fmt.Errorf("pricing base_url is required")
	}
	if c.Pricing.Timeout <= 0 {
		return fmt.Errorf("pricing timeout must be positive")
	}
	if c.Dispatch.MaxConcurrent <= 0 {
		return fmt.Errorf("dispatch max_concurrent must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q must be text or json", c.Log.Format)
	}
	return nil
}
