// Package ffmpeg invokes the external ffmpeg/ffprobe tools for probing,
// subtitle extraction, and transcoding. Every operation is cancellable:
// cancel delivers SIGTERM so ffmpeg can finalize, and the process is killed
// after a grace period if it ignores the signal.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"submux/internal/config"
	"submux/internal/probe"
)

// stderrTailLines bounds how much ffmpeg stderr is attached to errors.
const stderrTailLines = 20

// Options configure a Runner. Values come straight from the validated
// process configuration.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	KillTimeout time.Duration

	Encoder     config.EncoderMode
	VaapiDevice string
	VaapiQP     int
	CpuPreset   string
	CpuCRF      int
}

// Runner executes ffmpeg and ffprobe subprocesses.
type Runner struct {
	opts Options
}

// NewRunner returns a Runner for the given options.
func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts}
}

// OptionsFromConfig maps the process configuration onto runner options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		KillTimeout: cfg.KillTimeout,
		Encoder:     cfg.Encoder,
		VaapiDevice: cfg.VaapiDevice,
		VaapiQP:     cfg.VaapiQP,
		CpuPreset:   cfg.CpuPreset,
		CpuCRF:      cfg.CpuCRF,
	}
}

// Job describes one transcode invocation. Exactly one of BurnTrack/BurnFile
// may be active; both inactive means a plain transcode.
type Job struct {
	Input  string
	Output string

	// BurnTrack is the subtitle-relative track index to burn from the input
	// container, or -1 for none.
	BurnTrack int
	// BurnFile is a standalone subtitle file to burn, or "" for none.
	BurnFile string

	Interlaced bool
}

// Probe runs a single ffprobe JSON call against path and returns the parsed
// result.
func (r *Runner) Probe(ctx context.Context, path string) (*probe.Result, error) {
	cmd := r.command(ctx, r.opts.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return probe.ParseJSON(out)
}

// ExtractSubtitle copies one subtitle stream losslessly into a standalone
// .ass file. track is the subtitle-relative index (0:s:<track>).
func (r *Runner) ExtractSubtitle(ctx context.Context, input string, track int, output string) error {
	args := buildExtractArgs(input, track, output)
	return r.runFFmpeg(ctx, args)
}

// Transcode re-encodes the job's video with the configured encoder, copies
// all audio, and drops soft subtitle streams from the output. When the job
// carries a burn source, the subtitles filter is added to the video chain.
func (r *Runner) Transcode(ctx context.Context, job Job) error {
	args := buildTranscodeArgs(&r.opts, &job)
	return r.runFFmpeg(ctx, args)
}

// runFFmpeg executes ffmpeg with captured stderr; on failure the tail of
// stderr is folded into the returned error so batch logs carry the actual
// tool diagnostics.
func (r *Runner) runFFmpeg(ctx context.Context, args []string) error {
	cmd := r.command(ctx, r.opts.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Cancellation is not a tool failure; propagate it undecorated
			// so callers can distinguish it from a real error.
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(stderr.String()))
	}
	return nil
}

// command builds an exec.Cmd with cooperative shutdown: context cancellation
// sends SIGTERM, and WaitDelay hard-kills the process if it has not exited
// within the configured grace period.
func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.opts.KillTimeout
	return cmd
}

// stderrTail returns the last few lines of stderr, joined for single-line
// structured logging.
func stderrTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}
	return strings.Join(lines, " | ")
}
