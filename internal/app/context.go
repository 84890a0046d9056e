package app

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/songmatch/internal/cache"
	"github.com/oggyb/songmatch/internal/config"
	"github.com/oggyb/songmatch/internal/events"
	"github.com/oggyb/songmatch/internal/scoring"
	"github.com/oggyb/songmatch/internal/window"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Publisher  events.Publisher
	Window     *window.Window
	Scorer     *scoring.Scorer
	Logger     *slog.Logger
}

// New creates a new AppContext. rdb may be nil, in which case feeds are not
// cached and match events are dropped.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) (*AppContext, error) {
	w, err := window.New(cfg.Window.Hour, cfg.Window.Timezone)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	scorer, err := scoring.NewScorer(scoring.Weights{
		Questionnaire: cfg.Scoring.Questionnaire,
		Audio:         cfg.Scoring.Audio,
		Mood:          cfg.Scoring.Mood,
		Engagement:    cfg.Scoring.Engagement,
	})
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	var pub events.Publisher = events.Nop{}
	if rdb != nil {
		pub = events.NewRedisPublisher(rdb.Client, cfg.Events.MatchChannel)
	}

	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Publisher:  pub,
		Window:     w,
		Scorer:     scorer,
		Logger:     logger,
	}, nil
}

// DBPinger adapts the pool under gorm to server.Pinger.
type DBPinger struct {
	DB *gorm.DB
}

func (p DBPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
