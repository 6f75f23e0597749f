// Package daemon owns the recurring trigger: one cycle at startup, a
// fixed-interval timer, and optional filesystem wake-ups on the inbound
// folder. Cycles run strictly one at a time, so a slow batch can never
// overlap the next trigger.
package daemon

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"submux/internal/config"
	"submux/internal/logging"
	"submux/internal/pipeline"
)

// CycleRunner is the work a trigger fires; pipeline.Runner.RunAll in
// production.
type CycleRunner interface {
	RunAll(ctx context.Context) pipeline.Stats
}

// App ties the trigger sources to the batch runner.
type App struct {
	cfg    *config.Config
	runner CycleRunner
	log    zerolog.Logger
}

// New builds the daemon around a validated config and a cycle runner.
func New(cfg *config.Config, runner CycleRunner) *App {
	return &App{
		cfg:    cfg,
		runner: runner,
		log:    logging.WithComponent("daemon"),
	}
}

// Run blocks until ctx is cancelled. Trigger sources (timer, watcher) feed a
// single-slot coalescing channel; the dispatch loop drains it sequentially.
// A trigger arriving while a cycle runs is folded into the next cycle rather
// than queued, which is the overlap prevention the batch relies on.
func (a *App) Run(ctx context.Context) error {
	trigger := make(chan struct{}, 1)
	kick := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.ScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				kick()
			}
		}
	})

	if a.cfg.Watch {
		if err := a.watchInbound(ctx, g, kick); err != nil {
			// Watcher setup failure degrades to timer-only operation.
			a.log.Warn().Err(err).
				Str("event", "watch.unavailable").
				Msg("inbound folder watch disabled, relying on timer")
		}
	}

	g.Go(func() error {
		// Immediate run at process start; scheduled and watch-driven runs
		// follow.
		kick()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-trigger:
				a.runner.RunAll(ctx)
			}
		}
	})

	return g.Wait()
}

// watchInbound forwards create/rename events in the downloading folder to
// the trigger. Event storms collapse into at most one pending trigger.
func (a *App) watchInbound(ctx context.Context, g *errgroup.Group, kick func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(a.cfg.DownloadingFolder); err != nil {
		watcher.Close()
		return err
	}

	a.log.Info().
		Str("event", "watch.start").
		Str("path", a.cfg.DownloadingFolder).
		Msg("watching inbound folder")

	g.Go(func() error {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
					kick()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				a.log.Warn().Err(err).Str("event", "watch.error").Msg("inbound watch error")
			}
		}
	})
	return nil
}
