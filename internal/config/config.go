// Package config holds runtime configuration: defaults, optional YAML file
// loading, environment overrides, and validation. The resulting Config is
// built once at startup and treated as immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EncoderMode selects the encoding backend.
type EncoderMode string

const (
	EncoderVAAPI EncoderMode = "vaapi" // Hardware encoding via VAAPI (default).
	EncoderCPU   EncoderMode = "cpu"   // Software encoding via libx265.
)

// Config holds all runtime settings. It is assembled by [Load]
// (defaults → config file → environment) and then passed by pointer to the
// packages that need it; nothing mutates it after Validate succeeds.
type Config struct {
	// Folders.
	DownloadingFolder string // Inbound scan folder (required).
	ToWatchFolder     string // Outbound folder (required).
	ScratchRoot       string // Root for subtitle merge artifacts.

	// Classification targets.
	TargetCodec  string // Default: "hevc".
	SubtitleLang string // Default: "eng".

	// Encoder settings. Quality values are fixed per run, not per file.
	Encoder     EncoderMode // Default: "vaapi".
	VaapiDevice string      // Default: "/dev/dri/renderD128".
	VaapiQP     int         // Default: 23.
	CpuPreset   string      // Default: "medium".
	CpuCRF      int         // Default: 23.

	// Batch behavior.
	MaxConcurrent int           // Default: 2 simultaneous transforms.
	ScanInterval  time.Duration // Default: 1m.
	UnpackSettle  time.Duration // Default: 10m. Age before an _UNPACK_ file counts as complete.
	Watch         bool          // Default: true. fsnotify wake-ups on the inbound folder.

	// External tools.
	FFmpegPath  string        // Default: "ffmpeg".
	FFprobePath string        // Default: "ffprobe".
	KillTimeout time.Duration // Default: 5s. SIGTERM→SIGKILL grace on cancel.

	// Logging.
	LogLevel string // Default: "info".
}

// Default returns a Config with every optional field at its default value.
// The two required folder paths are left empty and must come from the config
// file or the environment.
func Default() Config {
	return Config{
		ScratchRoot:   filepath.Join(os.TempDir(), "submux"),
		TargetCodec:   "hevc",
		SubtitleLang:  "eng",
		Encoder:       EncoderVAAPI,
		VaapiDevice:   "/dev/dri/renderD128",
		VaapiQP:       23,
		CpuPreset:     "medium",
		CpuCRF:        23,
		MaxConcurrent: 2,
		ScanInterval:  time.Minute,
		UnpackSettle:  10 * time.Minute,
		Watch:         true,
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
		KillTimeout:   5 * time.Second,
		LogLevel:      "info",
	}
}

// Load assembles the effective configuration. Precedence, lowest first:
// defaults, the YAML file (filePath argument, falling back to SUBMUX_CONFIG),
// then environment variables. The result is validated before being returned,
// so a non-nil Config is ready for use.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = os.Getenv("SUBMUX_CONFIG")
	}
	if filePath != "" {
		if err := applyFile(&cfg, filePath); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields, enum values, and numeric ranges.
// It fails fast so a misconfigured process never reaches its first batch.
func (c *Config) Validate() error {
	if c.DownloadingFolder == "" {
		return errors.New("downloading folder is required (set SUBMUX_DOWNLOADING_FOLDER)")
	}
	if c.ToWatchFolder == "" {
		return errors.New("to-watch folder is required (set SUBMUX_TO_WATCH_FOLDER)")
	}
	if err := validateFolderPair(c.DownloadingFolder, c.ToWatchFolder); err != nil {
		return err
	}

	switch c.Encoder {
	case EncoderVAAPI, EncoderCPU:
		// valid
	default:
		return fmt.Errorf("invalid encoder %q (use 'vaapi' or 'cpu')", c.Encoder)
	}

	if c.TargetCodec == "" {
		return errors.New("target codec must not be empty")
	}
	if c.SubtitleLang == "" {
		return errors.New("subtitle language must not be empty")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1 (got %d)", c.MaxConcurrent)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive (got %s)", c.ScanInterval)
	}
	if c.UnpackSettle < 0 {
		return fmt.Errorf("unpack settle must not be negative (got %s)", c.UnpackSettle)
	}
	if c.KillTimeout <= 0 {
		return fmt.Errorf("kill timeout must be positive (got %s)", c.KillTimeout)
	}
	if c.VaapiQP < 1 || c.VaapiQP > 51 {
		return fmt.Errorf("VAAPI QP out of range 1-51 (got %d)", c.VaapiQP)
	}
	if c.CpuCRF < 0 || c.CpuCRF > 51 {
		return fmt.Errorf("CPU CRF out of range 0-51 (got %d)", c.CpuCRF)
	}
	return nil
}

// validateFolderPair rejects an outbound folder equal to or nested inside the
// inbound folder (and vice versa), which would make a batch rediscover its
// own output. Comparison is on cleaned paths; symlinks are not resolved here
// because the folders may not exist yet at validation time.
func validateFolderPair(in, out string) error {
	inClean := filepath.Clean(in)
	outClean := filepath.Clean(out)
	sep := string(filepath.Separator)
	if inClean == outClean {
		return errors.New("downloading and to-watch folders must differ")
	}
	if strings.HasPrefix(outClean+sep, inClean+sep) || strings.HasPrefix(inClean+sep, outClean+sep) {
		return errors.New("downloading and to-watch folders must not be nested")
	}
	return nil
}
