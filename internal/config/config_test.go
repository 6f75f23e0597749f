package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withFolders returns a Config whose required folder fields are populated
// with distinct paths, leaving everything else at defaults.
func withFolders() Config {
	cfg := Default()
	cfg.DownloadingFolder = "/srv/downloading"
	cfg.ToWatchFolder = "/srv/towatch"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := withFolders()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RequiredFolders(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "missing downloading folder must fail")

	cfg.DownloadingFolder = "/srv/downloading"
	assert.Error(t, cfg.Validate(), "missing to-watch folder must fail")
}

func TestValidate_NestedFolders(t *testing.T) {
	cfg := withFolders()
	cfg.ToWatchFolder = filepath.Join(cfg.DownloadingFolder, "done")
	assert.Error(t, cfg.Validate())

	cfg = withFolders()
	cfg.ToWatchFolder = cfg.DownloadingFolder
	assert.Error(t, cfg.Validate())
}

func TestValidate_Ranges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.MaxConcurrent = 0 }},
		{"zero interval", func(c *Config) { c.ScanInterval = 0 }},
		{"negative settle", func(c *Config) { c.UnpackSettle = -time.Second }},
		{"zero kill timeout", func(c *Config) { c.KillTimeout = 0 }},
		{"qp too high", func(c *Config) { c.VaapiQP = 99 }},
		{"crf negative", func(c *Config) { c.CpuCRF = -1 }},
		{"bad encoder", func(c *Config) { c.Encoder = "quantum" }},
		{"empty codec", func(c *Config) { c.TargetCodec = "" }},
		{"empty lang", func(c *Config) { c.SubtitleLang = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := withFolders()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "submux.yaml")
	body := `
downloading_folder: /srv/downloading
to_watch_folder: /srv/towatch
subtitle_lang: ger
max_concurrent: 4
scan_interval: 30s
`
	require.NoError(t, os.WriteFile(file, []byte(body), 0o644))

	t.Setenv("SUBMUX_SUBTITLE_LANG", "jpn")
	t.Setenv("SUBMUX_KILL_TIMEOUT", "9s")

	cfg, err := Load(file)
	require.NoError(t, err)

	// File overrides defaults; environment overrides file.
	assert.Equal(t, "jpn", cfg.SubtitleLang)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.ScanInterval)
	assert.Equal(t, 9*time.Second, cfg.KillTimeout)
	assert.Equal(t, "hevc", cfg.TargetCodec)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("SUBMUX_DOWNLOADING_FOLDER", "/srv/in")
	t.Setenv("SUBMUX_TO_WATCH_FOLDER", "/srv/out")
	t.Setenv("SUBMUX_ENCODER", "cpu")
	t.Setenv("SUBMUX_WATCH", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/in", cfg.DownloadingFolder)
	assert.Equal(t, EncoderCPU, cfg.Encoder)
	assert.False(t, cfg.Watch)
}

func TestLoad_MissingRequiredFailsFast(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SUBMUX_DOWNLOADING_FOLDER", "/srv/in")
	t.Setenv("SUBMUX_TO_WATCH_FOLDER", "/srv/out")
	t.Setenv("SUBMUX_MAX_CONCURRENT", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBMUX_MAX_CONCURRENT")
}
