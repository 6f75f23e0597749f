package subtitle

import (
	"bufio"
	"fmt"

	"github.com/google/renameio/v2"
	"golang.org/x/text/encoding/unicode"
)

// Write serializes a merged track to path: header lines first, then events
// in their sorted order. The output is UTF-8 with a byte-order mark, which
// ffmpeg's subtitles filter requires to pick up the encoding reliably, and
// the write is atomic so a cancelled task never leaves a torn file behind.
func Write(f *File, path string) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending subtitle file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	w := bufio.NewWriter(unicode.UTF8BOM.NewEncoder().Writer(pending))
	for _, line := range f.Header {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write subtitle header: %w", err)
		}
	}
	for _, ev := range f.Events {
		if _, err := w.WriteString(ev.Line() + "\n"); err != nil {
			return fmt.Errorf("write subtitle event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush subtitle file: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace subtitle file: %w", err)
	}
	return nil
}
