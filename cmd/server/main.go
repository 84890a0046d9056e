package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/songmatch/internal/app"
	"github.com/oggyb/songmatch/internal/cache"
	"github.com/oggyb/songmatch/internal/config"
	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/logger"
	"github.com/oggyb/songmatch/internal/server"
	"github.com/oggyb/songmatch/internal/service/explore"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// Inject logger into app context
	appCtx, err := app.New(cfg, database, redisCache, log)
	if err != nil {
		log.Error("failed to build app context", "err", err)
		os.Exit(1)
	}

	if cfg.App.ENV == "development" {
		now := time.Now()
		if err := db.SeedTestData(database, appCtx.Window.CurrentStart(now), now); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registrars := []server.Registrar{
		explore.NewRegistrar(appCtx),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gctx, cfg, log, registrars...)
	})
	if cfg.HTTP.Addr != "" {
		handler := server.NewHTTPHandler(map[string]server.Pinger{
			"db":    app.DBPinger{DB: database},
			"redis": redisCache,
		})
		g.Go(func() error {
			return server.StartHTTPServer(gctx, cfg.HTTP.Addr, handler, log)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
