package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`  // e.g. http://localhost:8000/api
	ChatPath string        `yaml:"chat_path"` // appended to base_url
	Timeout  time.Duration `yaml:"timeout"`
	Token    string        `yaml:"token"` // optional static bearer token
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	JWTSecret      string        `yaml:"jwt_secret"` // empty disables auth
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type CacheConfig struct {
	Backend      string `yaml:"backend"`       // memory | redis | none
	Size         int    `yaml:"size"`          // entries kept by the memory backend
	WarmSchedule string `yaml:"warm_schedule"` // cron spec; empty disables warming
}

type ChatConfig struct {
	SessionTTL   time.Duration `yaml:"session_ttl"`
	ReapInterval time.Duration `yaml:"reap_interval"`
	Workers      int           `yaml:"workers"`
	Suggestions  []string      `yaml:"suggestions"`
}

type BotConfig struct {
	Token     string        `yaml:"token"` // empty disables the bot
	Workers   int           `yaml:"workers"`
	RateLimit int           `yaml:"rate_limit"` // messages per window per chat
	Window    time.Duration `yaml:"window"`
}

type PlannerConfig struct {
	Mode      string `yaml:"mode"` // backend | gemini | offline
	GeminiKey string `yaml:"gemini_key"`
	GeminiURL string `yaml:"gemini_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 16, 24 or 32 bytes; seals redis entries
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Chat     ChatConfig     `yaml:"chat"`
	Bot      BotConfig      `yaml:"bot"`
	Planner  PlannerConfig  `yaml:"planner"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Security SecurityConfig `yaml:"security"`
	Language string         `yaml:"language"`

	Runtime RuntimeConfig `yaml:"-"`
}

// DefaultSuggestions are the canned prompts offered before the user engages.
var DefaultSuggestions = []string{
	"I want to visit Tokyo and Kyoto for 2 weeks. I love culture, food, and gardens.",
	"Plan a 5-day trip to Thailand with beach and culture experiences",
	"I want a romantic getaway to Paris for a week",
	"Family vacation to Singapore with kids-friendly activities",
}

// LoadConfig reads the YAML file at path, applies defaults and validates it.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse is LoadConfig without the file read.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.ChatPath == "" {
		c.API.ChatPath = "/travel-system/chat"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 60 * time.Second
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8090
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 90 * time.Second
	}

	c.Redis.TTL = normalizeTTL(c.Redis.TTL)

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 64
	}

	if c.Chat.SessionTTL <= 0 {
		c.Chat.SessionTTL = 30 * time.Minute
	}
	if c.Chat.ReapInterval <= 0 {
		c.Chat.ReapInterval = time.Minute
	}
	if c.Chat.Workers <= 0 {
		c.Chat.Workers = 8
	}
	if len(c.Chat.Suggestions) == 0 {
		c.Chat.Suggestions = append([]string(nil), DefaultSuggestions...)
	}

	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 8
	}
	if c.Bot.RateLimit <= 0 {
		c.Bot.RateLimit = 20
	}
	if c.Bot.Window <= 0 {
		c.Bot.Window = time.Minute
	}

	if c.Planner.Mode == "" {
		c.Planner.Mode = "backend"
	}
	if c.Planner.Model == "" {
		c.Planner.Model = "gemini-2.0-flash"
	}
	if c.Planner.MaxTokens <= 0 {
		c.Planner.MaxTokens = 1024
	}

	if c.Language == "" {
		c.Language = "en"
	}
}

func (c *Config) validate() error {
	switch c.Planner.Mode {
	case "backend", "gemini", "offline":
	default:
		return fmt.Errorf("planner.mode %q: want backend|gemini|offline", c.Planner.Mode)
	}
	if c.Planner.Mode == "gemini" && c.Planner.GeminiKey == "" {
		return errors.New("planner.gemini_key is required when planner.mode=gemini")
	}
	// The bookings endpoints always need the backend.
	if c.API.BaseURL == "" && !c.Runtime.Dev {
		return errors.New("api.base_url is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend %q: want memory|redis|none", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Redis.URL == "" {
		return errors.New("redis.url is required when cache.backend=redis")
	}
	switch n := len(c.Security.EncryptionKey); n {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("security.encryption_key must be 16, 24 or 32 bytes; got %d", n)
	}
	if c.Cache.WarmSchedule != "" {
		if _, err := cron.ParseStandard(c.Cache.WarmSchedule); err != nil {
			return fmt.Errorf("cache.warm_schedule: %w", err)
		}
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
