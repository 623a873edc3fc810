package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "UTC"
	defaultTickInterval = time.Minute
	defaultGenTimeout   = 60 * time.Second

	configPathEnv    = "STORYPRESS_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	redisAddrEnv     = "REDIS_ADDR"
	redisPasswordEnv = "REDIS_PASSWORD"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	mailAPIKeyEnv    = "MAIL_API_KEY"
	mailToEnv        = "MAIL_TO"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Mail      MailConfig      `yaml:"mail"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN means
// the in-memory stores are used instead.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the view-invalidation cache. An empty Addr
// disables invalidation fan-out.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SchedulerConfig defines how often the reconciler runs and in which
// timezone schedule entries are interpreted.
type SchedulerConfig struct {
	TickInterval string         `yaml:"tickInterval"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Interval resolves the tick-interval string to a duration.
func (s SchedulerConfig) Interval() time.Duration {
	if d, err := time.ParseDuration(s.TickInterval); err == nil && d > 0 {
		return d
	}
	return defaultTickInterval
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OpenAIConfig defines how to contact the generation API.
type OpenAIConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	ImageEndpoint  string `yaml:"imageEndpoint"`
	ImageModel     string `yaml:"imageModel"`
	APIKey         string `yaml:"apiKey"`
	RequestTimeout string `yaml:"requestTimeout"`
}

// Timeout bounds a single generation call; an unbounded external call
// under scheduler control could stall the queue.
func (o OpenAIConfig) Timeout() time.Duration {
	if d, err := time.ParseDuration(o.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return defaultGenTimeout
}

// MailConfig wires the mail-webhook notification channel.
type MailConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Redis.Password = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(mailAPIKeyEnv); v != "" {
		c.Mail.APIKey = v
	}
	if v := os.Getenv(mailToEnv); v != "" {
		c.Mail.To = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.Addr != "" {
		base.Redis.Addr = override.Redis.Addr
	}
	if override.Redis.Password != "" {
		base.Redis.Password = override.Redis.Password
	}
	if override.Redis.DB != 0 {
		base.Redis.DB = override.Redis.DB
	}

	if override.Scheduler.TickInterval != "" {
		base.Scheduler.TickInterval = override.Scheduler.TickInterval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.ImageEndpoint != "" {
		base.OpenAI.ImageEndpoint = override.OpenAI.ImageEndpoint
	}
	if override.OpenAI.ImageModel != "" {
		base.OpenAI.ImageModel = override.OpenAI.ImageModel
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.RequestTimeout != "" {
		base.OpenAI.RequestTimeout = override.OpenAI.RequestTimeout
	}

	if override.Mail.Endpoint != "" {
		base.Mail.Endpoint = override.Mail.Endpoint
	}
	if override.Mail.APIKey != "" {
		base.Mail.APIKey = override.Mail.APIKey
	}
	if override.Mail.From != "" {
		base.Mail.From = override.Mail.From
	}
	if override.Mail.To != "" {
		base.Mail.To = override.Mail.To
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Redis:    RedisConfig{Addr: "", DB: 0},
		Scheduler: SchedulerConfig{
			TickInterval: defaultTickInterval.String(),
			Timezone:     defaultTimezone,
			location:     tz,
		},
		OpenAI: OpenAIConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			ImageEndpoint:  "https://api.openai.com/v1/images/generations",
			ImageModel:     "dall-e-3",
			APIKey:         "",
			RequestTimeout: defaultGenTimeout.String(),
		},
		Mail: MailConfig{
			Endpoint: "",
			From:     "stories@storypress.local",
		},
	}
}
