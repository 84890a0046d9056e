package config

import (
	"fmt"
	"math"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is grouped by concern. Each group is read on its own with no
// prefix, so every field is bound to exactly the variable in its tag.
type Config struct {
	App struct {
		ENV string `envconfig:"APP_ENV" default:"development"`
	}

	Log struct {
		Level     string `envconfig:"LOG_LEVEL" default:"info"`
		Format    string `envconfig:"LOG_FORMAT" default:"text"`
		Component string `envconfig:"LOG_COMPONENT" default:"grpc_server"`
		Source    bool   `envconfig:"LOG_SOURCE" default:"false"`
	}

	DB struct {
		Driver     string `envconfig:"DB_DRIVER" default:"mysql"`
		DSN        string `envconfig:"MYSQL_DSN"`
		Host       string `envconfig:"DB_HOST" default:"localhost"`
		Port       string `envconfig:"DB_PORT" default:"3306"`
		User       string `envconfig:"DB_USER" default:"root"`
		Password   string `envconfig:"DB_PASSWORD" default:"root"`
		Name       string `envconfig:"DB_NAME" default:"songmatch"`
		SQLitePath string `envconfig:"SQLITE_PATH" default:"songmatch.db"`
		LogQueries bool   `envconfig:"DB_LOG_QUERIES" default:"false"`
	}

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	GRPC struct {
		Host string `envconfig:"GRPC_HOST" default:"127.0.0.1"`
		Port string `envconfig:"GRPC_PORT" default:"50051"`
	}

	HTTP struct {
		// Serves /metrics and /healthz; empty disables it.
		Addr string `envconfig:"HTTP_ADDR" default:":9090"`
	}

	Window struct {
		Hour     int    `envconfig:"WINDOW_HOUR" default:"9"`
		Timezone string `envconfig:"WINDOW_TIMEZONE" default:"America/New_York"`
	}

	Feed struct {
		ResultCap int           `envconfig:"FEED_RESULT_CAP" default:"15"`
		FetchCap  int           `envconfig:"FEED_FETCH_CAP" default:"100"`
		CacheTTL  time.Duration `envconfig:"FEED_CACHE_TTL" default:"2m"`
	}

	Preferences struct {
		SampleSize       int           `envconfig:"PREFERENCES_SAMPLE_SIZE" default:"20"`
		BreakerFailures  uint32        `envconfig:"PREFERENCES_BREAKER_FAILURES" default:"5"`
		BreakerOpenDelay time.Duration `envconfig:"PREFERENCES_BREAKER_OPEN_DELAY" default:"30s"`
	}

	Scoring struct {
		Questionnaire float64 `envconfig:"SCORING_QUESTIONNAIRE_WEIGHT" default:"0.40"`
		Audio         float64 `envconfig:"SCORING_AUDIO_WEIGHT" default:"0.30"`
		Mood          float64 `envconfig:"SCORING_MOOD_WEIGHT" default:"0.20"`
		Engagement    float64 `envconfig:"SCORING_ENGAGEMENT_WEIGHT" default:"0.10"`
	}

	Events struct {
		MatchChannel string `envconfig:"EVENTS_MATCH_CHANNEL" default:"songmatch.match.created"`
	}
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	for _, section := range cfg.sections() {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if cfg.DB.DSN == "" {
		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) sections() []any {
	return []any{
		&c.App, &c.Log, &c.DB, &c.Redis, &c.GRPC, &c.HTTP,
		&c.Window, &c.Feed, &c.Preferences, &c.Scoring, &c.Events,
	}
}

// New is Load for process entry points and tests; it panics on bad config.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the tunables the core depends on.
func (c *Config) Validate() error {
	if c.Window.Hour < 0 || c.Window.Hour > 23 {
		return fmt.Errorf("WINDOW_HOUR must be within 0..23, got %d", c.Window.Hour)
	}
	if c.Window.Timezone == "" {
		return fmt.Errorf("WINDOW_TIMEZONE is required")
	}
	if c.Feed.ResultCap <= 0 {
		return fmt.Errorf("FEED_RESULT_CAP must be positive")
	}
	if c.Feed.FetchCap < c.Feed.ResultCap {
		return fmt.Errorf("FEED_FETCH_CAP (%d) must be at least FEED_RESULT_CAP (%d)", c.Feed.FetchCap, c.Feed.ResultCap)
	}
	if c.Preferences.SampleSize <= 0 {
		return fmt.Errorf("PREFERENCES_SAMPLE_SIZE must be positive")
	}
	sum := c.Scoring.Questionnaire + c.Scoring.Audio + c.Scoring.Mood + c.Scoring.Engagement
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}
	return nil
}
