// Command cleanup deletes posts from elapsed windows together with the
// swipes that reference them. Run it from cron shortly after each rollover.
package main

import (
	"context"
	"flag"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/oggyb/songmatch/internal/config"
	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/logger"
	"github.com/oggyb/songmatch/internal/repository"
	"github.com/oggyb/songmatch/internal/window"
)

func main() {
	keep := flag.Int("keep-windows", 1, "number of windows to keep, the current one included")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.With("component", "cleanup")

	if *keep < 1 {
		log.Error("keep-windows must be at least 1", "value", *keep)
		os.Exit(2)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// the oldest window start we still keep; everything at or before it goes
	cutoff := w.CurrentStart(time.Now())
	for i := 1; i < *keep; i++ {
		cutoff = w.CurrentStart(cutoff.Add(-time.Nanosecond))
	}

	removed, err := repository.NewPostRepository(database).DeleteExpired(ctx, cutoff)
	if err != nil {
		log.Error("cleanup failed", "cutoff", cutoff, "err", err)
		os.Exit(1)
	}
	log.Info("cleanup finished", "cutoff", cutoff, "posts_removed", removed)
}
