// Package pipeline orchestrates batch runs: scan the inbound folder,
// classify each file, and execute transformations under a concurrency cap
// with per-file failure isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"submux/internal/config"
	"submux/internal/display"
	"submux/internal/ffmpeg"
	"submux/internal/fsutil"
	"submux/internal/logging"
	"submux/internal/naming"
	"submux/internal/planner"
	"submux/internal/probe"
	"submux/internal/subtitle"
)

// Executor is what the batch needs from the external media tool: probing,
// lossless subtitle extraction, and transcoding, all cancellable. The
// ffmpeg.Runner satisfies it in production; tests substitute a fake.
type Executor interface {
	Probe(ctx context.Context, path string) (*probe.Result, error)
	ExtractSubtitle(ctx context.Context, input string, track int, output string) error
	Transcode(ctx context.Context, job ffmpeg.Job) error
}

// Runner executes batch runs against one inbound/outbound folder pair.
type Runner struct {
	cfg  *config.Config
	exec Executor
	log  zerolog.Logger
}

// NewRunner builds a Runner from validated configuration and an executor.
func NewRunner(cfg *config.Config, exec Executor) *Runner {
	return &Runner{
		cfg:  cfg,
		exec: exec,
		log:  logging.WithComponent("pipeline"),
	}
}

// RunAll performs one full cycle: the stable pass followed by the unpacked
// pass, two complementary scans of the same folder.
func (r *Runner) RunAll(ctx context.Context) Stats {
	start := time.Now()

	// One resolver spans both passes: a stable "movie.mkv" and an unpacked
	// "_UNPACK_movie.mkv" collide on the same outbound name.
	resolver := naming.NewCollisionResolver()
	stats := r.runBatch(ctx, ModeStable, resolver)
	stats.Add(r.runBatch(ctx, ModeUnpacked, resolver))

	if stats.Total > 0 {
		r.log.Info().
			Str("event", "cycle.done").
			Int("total", stats.Total).
			Int("moved", stats.Moved).
			Int("transcoded", stats.Transcoded).
			Int("skipped", stats.Skipped).
			Int("failed", stats.Failed).
			Str("input", display.FormatBytes(stats.InputBytes)).
			Str("output", display.FormatBytes(stats.OutputBytes)).
			Str("saved", display.FormatBytes(stats.SpaceSaved())).
			Str("took", display.FormatDuration(time.Since(start))).
			Msg("cycle finished")
	}
	return stats
}

// RunBatch scans the inbound folder under the given mode and processes every
// eligible candidate in listing order. Transformations run concurrently, at
// most MaxConcurrent in flight; direct moves happen synchronously without a
// slot. The method does not return until every launched task has completed,
// which covers the case where the candidate list ends with fewer tasks than
// the cap. One bad file never aborts the batch; cancellation stops dispatch
// at the next checkpoint and drains what is already running.
func (r *Runner) RunBatch(ctx context.Context, mode Mode) Stats {
	return r.runBatch(ctx, mode, naming.NewCollisionResolver())
}

func (r *Runner) runBatch(ctx context.Context, mode Mode, resolver *naming.CollisionResolver) Stats {
	log := r.log.With().Str("mode", mode.String()).Logger()

	candidates, err := Scan(r.cfg.DownloadingFolder, mode, r.cfg.UnpackSettle)
	if err != nil {
		log.Error().Err(err).Str("event", "batch.scan_failed").Msg("cannot list inbound folder")
		return Stats{}
	}
	if len(candidates) == 0 {
		return Stats{}
	}

	log.Info().
		Str("event", "batch.start").
		Int("files", len(candidates)).
		Msg("batch started")

	var (
		mu    sync.Mutex
		stats = Stats{Total: len(candidates)}
		wg    sync.WaitGroup
		sem   = semaphore.NewWeighted(int64(r.cfg.MaxConcurrent))
	)
	record := func(f func(*Stats)) {
		mu.Lock()
		f(&stats)
		mu.Unlock()
	}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			log.Warn().Str("event", "batch.cancelled").Msg("cancellation raised, dispatch stopped")
			break
		}

		pr, err := r.exec.Probe(ctx, cand.Path)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).
				Str("event", "probe.failed").
				Str("file", cand.Name).
				Msg("cannot probe file, skipping")
			record(func(s *Stats) { s.Failed++ })
			continue
		}

		log.Debug().
			Str("event", "probe.done").
			Str("file", cand.Name).
			Str("codec", pr.VideoCodec).
			Str("length", display.FormatDuration(time.Duration(pr.Duration*float64(time.Second)))).
			Int("subtitles", len(pr.Subtitles)).
			Msg("probed")

		plan := planner.Build(pr, r.cfg.TargetCodec, r.cfg.SubtitleLang)
		outPath := resolver.Resolve(cand.Path,
			filepath.Join(r.cfg.ToWatchFolder, naming.StripUnpackPrefix(cand.Name)))

		if plan.Kind == planner.DirectMove {
			r.moveDirect(log, cand, outPath, record)
			continue
		}

		// Concurrency-wait checkpoint: blocks while MaxConcurrent tasks are
		// in flight and honors cancellation raised during the wait.
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Str("event", "batch.cancelled").Msg("cancellation raised while waiting for a slot")
			break
		}

		wg.Add(1)
		go func(cand Candidate, pr *probe.Result, plan planner.Plan, outPath string) {
			defer wg.Done()
			defer sem.Release(1)
			r.transform(ctx, cand, pr, plan, outPath, record)
		}(cand, pr, plan, outPath)
	}

	// Drain barrier: the batch is only done once every launched task is.
	wg.Wait()

	mu.Lock()
	final := stats
	mu.Unlock()

	log.Info().
		Str("event", "batch.done").
		Int("moved", final.Moved).
		Int("transcoded", final.Transcoded).
		Int("skipped", final.Skipped).
		Int("failed", final.Failed).
		Msg("batch finished")
	return final
}

// moveDirect relocates an already-conforming file synchronously. It runs in
// the dispatch loop and never occupies a concurrency slot.
func (r *Runner) moveDirect(log zerolog.Logger, cand Candidate, outPath string, record func(func(*Stats))) {
	size := fileSize(cand.Path)
	if err := fsutil.Move(cand.Path, outPath); err != nil {
		log.Error().Err(err).
			Str("event", "move.failed").
			Str("file", cand.Name).
			Msg("direct move failed")
		record(func(s *Stats) { s.Failed++ })
		return
	}
	log.Info().
		Str("event", "move.done").
		Str("file", cand.Name).
		Str("size", display.FormatBytes(size)).
		Msg("moved without re-encode")
	record(func(s *Stats) {
		s.Moved++
		s.InputBytes += size
		s.OutputBytes += size
	})
}

// transform runs one transformation task to completion. Every error is
// absorbed here: logged with the file identity, never propagated to sibling
// tasks. On success the inbound source is deleted; on failure the partial
// output is removed and the source retained for the next scheduled run.
func (r *Runner) transform(ctx context.Context, cand Candidate, pr *probe.Result, plan planner.Plan, outPath string, record func(func(*Stats))) {
	log := r.log.With().
		Str("file", cand.Name).
		Str("plan", plan.Kind.String()).
		Logger()
	start := time.Now()
	inSize := fileSize(cand.Path)

	if err := r.execute(ctx, cand, pr, plan, outPath); err != nil {
		_ = os.Remove(outPath)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Str("event", "task.cancelled").Msg("transformation cancelled, source retained")
			record(func(s *Stats) { s.Skipped++ })
			return
		}
		log.Error().Err(err).
			Str("event", "task.failed").
			Msg("transformation failed, source retained")
		record(func(s *Stats) { s.Failed++ })
		return
	}

	outSize := fileSize(outPath)
	if err := os.Remove(cand.Path); err != nil {
		log.Warn().Err(err).Str("event", "task.cleanup_failed").Msg("cannot remove consumed source")
	}

	log.Info().
		Str("event", "task.done").
		Str("input", display.FormatBytes(inSize)).
		Str("output", display.FormatBytes(outSize)).
		Str("took", display.FormatDuration(time.Since(start))).
		Msg("transformed")
	record(func(s *Stats) {
		s.Transcoded++
		s.InputBytes += inSize
		s.OutputBytes += outSize
	})
}

// execute performs the plan-specific work. For the merge path, all matching
// tracks are extracted into a per-invocation scratch directory, merged, and
// written as the burn source; the scratch directory is removed when the
// transcode finishes, success or failure.
func (r *Runner) execute(ctx context.Context, cand Candidate, pr *probe.Result, plan planner.Plan, outPath string) error {
	job := ffmpeg.Job{
		Input:      cand.Path,
		Output:     outPath,
		BurnTrack:  -1,
		Interlaced: pr.Interlaced,
	}

	switch plan.Kind {
	case planner.BurnTrack:
		job.BurnTrack = plan.Track

	case planner.BurnMerged:
		scratch, err := fsutil.ScratchDir(r.cfg.ScratchRoot)
		if err != nil {
			return err
		}
		defer os.RemoveAll(scratch)

		trackFiles := make([]string, 0, len(plan.Tracks))
		for _, idx := range plan.Tracks {
			dst := filepath.Join(scratch, fmt.Sprintf("track_%d.ass", idx))
			if err := r.exec.ExtractSubtitle(ctx, cand.Path, idx, dst); err != nil {
				return fmt.Errorf("extract subtitle track %d: %w", idx, err)
			}
			trackFiles = append(trackFiles, dst)
		}

		merged, err := subtitle.Merge(trackFiles)
		if err != nil {
			return err
		}
		combined := filepath.Join(scratch, "merged.ass")
		if err := subtitle.Write(merged, combined); err != nil {
			return err
		}
		job.BurnFile = combined
	}

	return r.exec.Transcode(ctx, job)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
