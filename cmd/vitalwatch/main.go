package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/report"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	daemon := flag.Bool("daemon", false, "keep running and report on the configured interval")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Local runs keep secrets in a .env file; scheduled runs get them from
	// the environment directly, so a missing file is fine.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	slog.Info("vitalwatch starting", "config", *configPath, "daemon", *daemon)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"origin", cfg.Report.Origin,
		"lookback_weeks", cfg.Report.LookbackWeeks,
		"history", cfg.Report.HistoryPath,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*daemon {
		if err := report.New(cfg).Run(ctx); err != nil {
			slog.Error("report run failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// Daemon mode: report immediately, then on every interval tick.
	// Config changes are picked up between runs, never mid-run.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			current.Store(updated)
			slog.Info("config hot-reloaded", "origin", updated.Report.Origin)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	runOnce := func() {
		if err := report.New(current.Load()).Run(ctx); err != nil {
			slog.Error("report run failed", "err", err)
		}
	}
	runOnce()

	interval := cfg.Report.Interval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("vitalwatch shutting down")
			return
		case <-ticker.C:
			runOnce()
			// A hot-reloaded interval takes effect for the next tick.
			if cur := current.Load().Report.Interval; cur != interval {
				interval = cur
				ticker.Reset(interval)
				slog.Info("report interval updated", "interval", interval.String())
			}
		}
	}
}
