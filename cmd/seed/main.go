package main

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/oggyb/songmatch/internal/config"
	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/logger"
	"github.com/oggyb/songmatch/internal/window"
)

func main() {
	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.With("component", "seed")

	w, err := window.New(cfg.Window.Hour, cfg.Window.Timezone)
	if err != nil {
		log.Error("invalid window config", "err", err)
		os.Exit(1)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	now := time.Now()
	if err := db.SeedTestData(database, w.CurrentStart(now), now); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed")
}
