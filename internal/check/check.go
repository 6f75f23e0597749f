// Package check runs startup diagnostics: external tools on PATH and the
// configured folders usable. Any failure here is fatal; a process that
// cannot transform files should not start its scheduler.
package check

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"submux/internal/config"
)

// Sentinel errors for missing external tools.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
)

// Deps validates everything the batch needs before the first run: both
// ffmpeg binaries resolvable, the downloading folder present, and the
// to-watch and scratch folders created if absent.
func Deps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return ErrFfprobeNotFound
	}

	info, err := os.Stat(cfg.DownloadingFolder)
	if err != nil {
		return fmt.Errorf("downloading folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("downloading folder %s is not a directory", cfg.DownloadingFolder)
	}

	if err := os.MkdirAll(cfg.ToWatchFolder, 0o755); err != nil {
		return fmt.Errorf("create to-watch folder: %w", err)
	}
	if err := os.MkdirAll(cfg.ScratchRoot, 0o755); err != nil {
		return fmt.Errorf("create scratch root: %w", err)
	}
	return nil
}
