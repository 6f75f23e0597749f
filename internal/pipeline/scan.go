package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"submux/internal/naming"
)

// Mode selects which half of the inbound folder a batch sees. The two modes
// partition the folder: stable files in one pass, settled _UNPACK_ files in
// the other, so a single cycle covers everything exactly once.
type Mode int

const (
	// ModeStable processes files without the in-progress marker.
	ModeStable Mode = iota
	// ModeUnpacked processes only marker-prefixed files that have not been
	// modified for the settle window, meaning the unpacker is done with them.
	ModeUnpacked
)

func (m Mode) String() string {
	if m == ModeUnpacked {
		return "unpacked"
	}
	return "stable"
}

// Candidate is one eligible inbound file.
type Candidate struct {
	Path string
	Name string
}

// Extensions eligible for processing (lowercase, with leading dot).
var allowedExtensions = map[string]bool{
	".mkv": true,
	".mp4": true,
}

// Scan lists dir (flat, name-sorted by os.ReadDir) and filters to the files
// eligible under the given mode. Subdirectories are ignored; the upstream
// downloader delivers flat files.
func Scan(dir string, mode Mode, settle time.Duration) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	now := time.Now()
	var out []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		unpacking := strings.HasPrefix(name, naming.UnpackPrefix)
		switch mode {
		case ModeStable:
			if unpacking {
				continue
			}
		case ModeUnpacked:
			if !unpacking {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) < settle {
				continue
			}
		}

		out = append(out, Candidate{Path: filepath.Join(dir, name), Name: name})
	}
	return out, nil
}
