package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"telegram-number-market/internal/domain/ports/adapter"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | webhook (future)
	Username string  `yaml:"username"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty → in-memory session store
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty → listing archive disabled
}

// MarketConfig is the static listing-market configuration: the channels a user
// must be subscribed to before publishing, and the destinations that receive
// the final post.
type MarketConfig struct {
	RequiredChannels []string `yaml:"required_channels"`
	Targets          []string `yaml:"targets"`
	PrecheckTargets  bool     `yaml:"precheck_targets"`
	Language         string   `yaml:"language"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Market   MarketConfig   `yaml:"market"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Market.Language == "" {
		cfg.Market.Language = "ru"
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if _, err := cfg.RequiredChannelRefs(); err != nil {
		return nil, fmt.Errorf("market.required_channels: %w", err)
	}
	if _, err := cfg.TargetRefs(); err != nil {
		return nil, fmt.Errorf("market.targets: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// RequiredChannelRefs parses the required-channel list, preserving order.
func (c *Config) RequiredChannelRefs() ([]adapter.ChatRef, error) {
	out := make([]adapter.ChatRef, 0, len(c.Market.RequiredChannels))
	for _, s := range c.Market.RequiredChannels {
		ref, err := adapter.ParseChatRef(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// TargetRefs parses and de-duplicates the broadcast destination list.
func (c *Config) TargetRefs() ([]adapter.ChatRef, error) {
	seen := make(map[string]struct{}, len(c.Market.Targets))
	out := make([]adapter.ChatRef, 0, len(c.Market.Targets))
	for _, s := range c.Market.Targets {
		ref, err := adapter.ParseChatRef(s)
		if err != nil {
			return nil, err
		}
		key := ref.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}
	return out, nil
}
