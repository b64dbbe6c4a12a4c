package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/zskroll/internal/app"
	"github.com/dropDatabas3/zskroll/internal/config"
	"github.com/dropDatabas3/zskroll/internal/daemon"
	"github.com/dropDatabas3/zskroll/internal/httpapi"
	"github.com/dropDatabas3/zskroll/internal/observability/logger"
)

var version = "dev"

func main() {
	var (
		flagConfig  = flag.String("config", "", "ruta a config.yaml")
		flagEnvFile = flag.String("env-file", ".env", "ruta a .env")
		flagEnvOnly = flag.Bool("env", false, "usar SOLO env (ignora config.yaml)")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		_ = godotenv.Load(*flagEnvFile)
	}

	var cfg *config.Config
	var err error
	switch {
	case *flagEnvOnly:
		cfg, err = config.Default()
	case *flagConfig != "":
		cfg, err = config.Load(*flagConfig)
	default:
		cfg, err = config.Load("configs/config.yaml")
	}
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "zskrolld",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal("wiring failed", logger.Err(err))
	}
	defer func() { _ = c.Close() }()

	srv := httpapi.New(c.Runner, cfg.Server.APIKey)
	if hs := c.History(); hs != nil {
		srv.History = hs
	}
	loop := &daemon.Loop{
		Runner:   c.Runner,
		Interval: cfg.Interval(),
		OnReport: srv.RecordReport,
	}

	log.Info("zskrolld starting",
		logger.Domain(cfg.Platform.Domain),
		logger.String("addr", cfg.Server.Addr),
		logger.Duration(cfg.Interval()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, cfg.Server.Addr) })
	g.Go(func() error { return loop.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("daemon exited with error", logger.Err(err))
		os.Exit(1)
	}
	log.Info("zskrolld stopped")
}
