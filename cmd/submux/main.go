// Command submux watches a download folder, normalizes finished video files
// to the target codec, and burns in matching-language subtitles on the way
// to the to-watch folder.
//
// It parses flags, loads and validates configuration, verifies the external
// tools, and runs either a single cycle (-once) or the scheduling daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"submux/internal/check"
	"submux/internal/config"
	"submux/internal/daemon"
	"submux/internal/ffmpeg"
	"submux/internal/logging"
	"submux/internal/pipeline"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file (default: $SUBMUX_CONFIG)")
	once := flag.Bool("once", false, "run a single cycle and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Fprintln(os.Stdout, "submux "+version)
		return 0
	}

	// Configuration errors are fatal and happen before the logger exists,
	// so they go straight to stderr.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submux: %v\n", err)
		return 1
	}

	logging.Configure(logging.Config{Level: cfg.LogLevel})
	log := logging.WithComponent("main")

	if err := check.Deps(cfg); err != nil {
		log.Error().Err(err).Str("event", "startup.check_failed").Msg("dependency check failed")
		return 1
	}

	log.Info().
		Str("event", "startup").
		Str("version", version).
		Str("downloading", cfg.DownloadingFolder).
		Str("to_watch", cfg.ToWatchFolder).
		Str("encoder", string(cfg.Encoder)).
		Int("max_concurrent", cfg.MaxConcurrent).
		Msg("submux starting")

	// SIGINT/SIGTERM cancel the context; in-flight ffmpeg processes receive
	// the stop signal through it and the batch drains cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, ffmpeg.NewRunner(ffmpeg.OptionsFromConfig(cfg)))

	if *once {
		stats := runner.RunAll(ctx)
		if stats.Failed > 0 {
			return 1
		}
		return 0
	}

	if err := daemon.New(cfg, runner).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("event", "shutdown.error").Msg("daemon exited with error")
		return 1
	}
	log.Info().Str("event", "shutdown").Msg("submux stopped")
	return 0
}
