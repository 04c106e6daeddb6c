// File: internal/config/config.go
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token            string        `yaml:"token" env:"BOT_TOKEN" validate:"required"`
	Workers          int           `yaml:"workers" env:"BOT_WORKERS"` // polling workers, sharded by chat
	PollTimeout      int           `yaml:"poll_timeout"`
	AdminIDs         []int64       `yaml:"admin_ids" env:"BOT_ADMIN_IDS" envSeparator:"," validate:"min=1"`
	LoggerChannelID  int64         `yaml:"logger_channel_id" env:"TELEGRAM_LOGGER_CHANNEL_ID"`
	DefaultVLESSFlow string        `yaml:"default_vless_flow" env:"TELEGRAM_DEFAULT_VLESS_FLOW" validate:"omitempty,oneof=xtls-rprx-vision"`
	RateLimit        int           `yaml:"rate_limit"` // actions per window per admin, 0 = off
	RateWindow       time.Duration `yaml:"rate_window"`
	PageSize         int           `yaml:"page_size"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error"`
	Format   string `yaml:"format" validate:"omitempty,oneof=json console"`
	Sampling bool   `yaml:"sampling"`
}

type AdminHTTPConfig struct {
	Port int `yaml:"port" env:"ADMIN_HTTP_PORT"`
}

type DatabaseConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" validate:"required"`
}

type RedisConfig struct {
	URL      string `yaml:"url" env:"REDIS_URL"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

type SessionConfig struct {
	Backend  string        `yaml:"backend" env:"SESSION_BACKEND" validate:"omitempty,oneof=memory redis"`
	TTL      time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	Capacity int           `yaml:"capacity"`
}

type CoreConfig struct {
	XrayConfigPath string        `yaml:"xray_config_path" env:"XRAY_JSON" validate:"required"`
	APIURL         string        `yaml:"api_url" env:"CORE_API_URL" validate:"omitempty,url"`
	APIToken       string        `yaml:"api_token" env:"CORE_API_TOKEN"`
	NodeURLs       []string      `yaml:"node_urls" env:"CORE_NODE_URLS" envSeparator:","`
	PublicHost     string        `yaml:"public_host" env:"XRAY_PUBLIC_HOST"`
	Timeout        time.Duration `yaml:"timeout"`
}

type SubscriptionConfig struct {
	URLPrefix string `yaml:"url_prefix" env:"XRAY_SUBSCRIPTION_URL_PREFIX"`
	Secret    string `yaml:"secret" env:"SUBSCRIPTION_SECRET"`
}

type SchedulerConfig struct {
	StatsInterval time.Duration `yaml:"stats_interval"`
}

type Config struct {
	Bot          BotConfig          `yaml:"bot"`
	Log          LogConfig          `yaml:"log"`
	AdminHTTP    AdminHTTPConfig    `yaml:"admin_http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Session      SessionConfig      `yaml:"session"`
	Core         CoreConfig         `yaml:"core"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses flags and loads the file they point at.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

// Load reads YAML from path, applies environment overrides, fills defaults
// and validates the result.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.applyDefaults()
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Session.Backend == "redis" && cfg.Redis.URL == "" {
		return nil, fmt.Errorf("invalid config: session.backend=redis requires redis.url")
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.Bot.PollTimeout <= 0 {
		c.Bot.PollTimeout = 60
	}
	if c.Bot.RateWindow <= 0 {
		c.Bot.RateWindow = time.Minute
	}
	if c.Bot.PageSize <= 0 {
		c.Bot.PageSize = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.AdminHTTP.Port <= 0 {
		c.AdminHTTP.Port = 9090
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	c.Session.TTL = normalizeTTL(c.Session.TTL)
	if c.Session.Capacity <= 0 {
		c.Session.Capacity = 1024
	}
	if c.Core.Timeout <= 0 {
		c.Core.Timeout = 15 * time.Second
	}
	if c.Scheduler.StatsInterval <= 0 {
		c.Scheduler.StatsInterval = time.Minute
	}
}

// IsAdmin reports whether chat id belongs to a configured operator.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Bot.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Minute
	}
	return d
}
