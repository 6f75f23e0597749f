package config

// YAML file loading. The file is decoded into a mirror struct of pointers so
// that only keys actually present override the running config, and duration
// values can be written in the natural "90s" / "10m" form.

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DownloadingFolder *string `yaml:"downloading_folder"`
	ToWatchFolder     *string `yaml:"to_watch_folder"`
	ScratchRoot       *string `yaml:"scratch_root"`
	TargetCodec       *string `yaml:"target_codec"`
	SubtitleLang      *string `yaml:"subtitle_lang"`
	Encoder           *string `yaml:"encoder"`
	VaapiDevice       *string `yaml:"vaapi_device"`
	VaapiQP           *int    `yaml:"vaapi_qp"`
	CpuPreset         *string `yaml:"cpu_preset"`
	CpuCRF            *int    `yaml:"cpu_crf"`
	MaxConcurrent     *int    `yaml:"max_concurrent"`
	ScanInterval      *string `yaml:"scan_interval"`
	UnpackSettle      *string `yaml:"unpack_settle"`
	Watch             *bool   `yaml:"watch"`
	FFmpegPath        *string `yaml:"ffmpeg_path"`
	FFprobePath       *string `yaml:"ffprobe_path"`
	KillTimeout       *string `yaml:"kill_timeout"`
	LogLevel          *string `yaml:"log_level"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(fc.DownloadingFolder, &cfg.DownloadingFolder)
	setString(fc.ToWatchFolder, &cfg.ToWatchFolder)
	setString(fc.ScratchRoot, &cfg.ScratchRoot)
	setString(fc.TargetCodec, &cfg.TargetCodec)
	setString(fc.SubtitleLang, &cfg.SubtitleLang)
	setString(fc.VaapiDevice, &cfg.VaapiDevice)
	setString(fc.CpuPreset, &cfg.CpuPreset)
	setString(fc.FFmpegPath, &cfg.FFmpegPath)
	setString(fc.FFprobePath, &cfg.FFprobePath)
	setString(fc.LogLevel, &cfg.LogLevel)

	if fc.Encoder != nil {
		cfg.Encoder = EncoderMode(*fc.Encoder)
	}
	if fc.VaapiQP != nil {
		cfg.VaapiQP = *fc.VaapiQP
	}
	if fc.CpuCRF != nil {
		cfg.CpuCRF = *fc.CpuCRF
	}
	if fc.MaxConcurrent != nil {
		cfg.MaxConcurrent = *fc.MaxConcurrent
	}
	if fc.Watch != nil {
		cfg.Watch = *fc.Watch
	}

	if err := setDuration(fc.ScanInterval, &cfg.ScanInterval, "scan_interval"); err != nil {
		return err
	}
	if err := setDuration(fc.UnpackSettle, &cfg.UnpackSettle, "unpack_settle"); err != nil {
		return err
	}
	return setDuration(fc.KillTimeout, &cfg.KillTimeout, "kill_timeout")
}

func setString(src *string, dst *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(src *string, dst *time.Duration, key string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, *src)
	}
	*dst = d
	return nil
}
