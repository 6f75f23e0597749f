// Package subtitle merges several extracted ASS subtitle tracks into a
// single time-ordered track. The merge keeps the first track's header block
// (script info, styles, the [Events] format line) and interleaves every
// track's dialogue lines by start time.
package subtitle

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	eventsMarker   = "[Events]"
	dialoguePrefix = "Dialogue:"

	// ASS dialogue lines carry 10 comma-delimited fields; the last (text)
	// may itself contain commas, so splits are capped at this count.
	dialogueFieldCount = 10
)

// maxStart is the sort key for dialogue lines whose time field cannot be
// parsed. Malformed lines are kept and pushed to the end rather than being
// dropped.
const maxStart = time.Duration(math.MaxInt64)

// Event is one dialogue line. Fields holds the raw comma-split fields with
// the trailing text field intact; Start is parsed from the second field.
type Event struct {
	Fields []string
	Start  time.Duration
}

// Line reassembles the raw dialogue line.
func (e Event) Line() string {
	return strings.Join(e.Fields, ",")
}

// File is a merged subtitle track: the first input's header followed by all
// inputs' events in ascending start order.
type File struct {
	Header []string
	Events []Event
}

// Merge combines the given extracted track files. The header comes from the
// first file only; duplicate-language tracks are assumed to share compatible
// style blocks, so the other headers are discarded. Events from all files
// are stable-sorted by start time, which preserves input order among equal
// timestamps.
func Merge(paths []string) (*File, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("merge: no track files given")
	}

	merged := &File{}
	for i, path := range paths {
		lines, err := readLines(path)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		if i == 0 {
			merged.Header = headerLines(lines)
		}
		merged.Events = append(merged.Events, eventLines(lines)...)
	}

	sort.SliceStable(merged.Events, func(a, b int) bool {
		return merged.Events[a].Start < merged.Events[b].Start
	})
	return merged, nil
}

// headerLines returns every line up to (not including) the first dialogue
// line. For a track without dialogue this is the whole file.
func headerLines(lines []string) []string {
	for i, line := range lines {
		if strings.HasPrefix(line, dialoguePrefix) {
			return lines[:i]
		}
	}
	return lines
}

// eventLines extracts the dialogue lines occurring after the [Events]
// section marker. Dialogue-looking lines before the marker belong to no
// section and are ignored.
func eventLines(lines []string) []Event {
	var events []Event
	inEvents := false
	for _, line := range lines {
		if !inEvents {
			inEvents = strings.TrimSpace(line) == eventsMarker
			continue
		}
		if !strings.HasPrefix(line, dialoguePrefix) {
			continue
		}
		events = append(events, parseEvent(line))
	}
	return events
}

// parseEvent splits a dialogue line and parses its start time. Lines with
// too few fields or an unparsable time get the maxStart sentinel so they
// sort last instead of being lost.
func parseEvent(line string) Event {
	fields := strings.SplitN(line, ",", dialogueFieldCount)
	ev := Event{Fields: fields, Start: maxStart}
	if len(fields) < 2 {
		return ev
	}
	if start, err := ParseTime(strings.TrimSpace(fields[1])); err == nil {
		ev.Start = start
	}
	return ev
}

// ParseTime parses an ASS timestamp in exact H:MM:SS.cc form (unpadded
// hours, two-digit minutes, seconds, and centiseconds).
func ParseTime(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 || len(parts[1]) != 2 || len(secParts[0]) != 2 || len(secParts[1]) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	sec, err := strconv.Atoi(secParts[0])
	if err != nil || sec > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	cs, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(cs)*10*time.Millisecond, nil
}

// readLines reads a subtitle file into lines, tolerating CRLF endings and a
// leading UTF-8 BOM (extracted tracks often carry one).
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	// A trailing newline produces one empty trailing element; drop it so
	// serialization does not accumulate blank lines across merges.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}
