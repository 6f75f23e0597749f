package config

// Environment overrides. Every recognized variable carries the SUBMUX_
// prefix; unset variables leave the file/default value in place.

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func applyEnv(cfg *Config) error {
	envString("SUBMUX_DOWNLOADING_FOLDER", &cfg.DownloadingFolder)
	envString("SUBMUX_TO_WATCH_FOLDER", &cfg.ToWatchFolder)
	envString("SUBMUX_SCRATCH_ROOT", &cfg.ScratchRoot)
	envString("SUBMUX_TARGET_CODEC", &cfg.TargetCodec)
	envString("SUBMUX_SUBTITLE_LANG", &cfg.SubtitleLang)
	envString("SUBMUX_VAAPI_DEVICE", &cfg.VaapiDevice)
	envString("SUBMUX_CPU_PRESET", &cfg.CpuPreset)
	envString("SUBMUX_FFMPEG_PATH", &cfg.FFmpegPath)
	envString("SUBMUX_FFPROBE_PATH", &cfg.FFprobePath)
	envString("SUBMUX_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := os.LookupEnv("SUBMUX_ENCODER"); ok {
		cfg.Encoder = EncoderMode(v)
	}

	if err := envInt("SUBMUX_VAAPI_QP", &cfg.VaapiQP); err != nil {
		return err
	}
	if err := envInt("SUBMUX_CPU_CRF", &cfg.CpuCRF); err != nil {
		return err
	}
	if err := envInt("SUBMUX_MAX_CONCURRENT", &cfg.MaxConcurrent); err != nil {
		return err
	}
	if err := envDuration("SUBMUX_SCAN_INTERVAL", &cfg.ScanInterval); err != nil {
		return err
	}
	if err := envDuration("SUBMUX_UNPACK_SETTLE", &cfg.UnpackSettle); err != nil {
		return err
	}
	if err := envDuration("SUBMUX_KILL_TIMEOUT", &cfg.KillTimeout); err != nil {
		return err
	}
	return envBool("SUBMUX_WATCH", &cfg.Watch)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}
