// Package probe owns the ffprobe JSON wire format and its conversion into
// the typed Result consumed by the classifier. The subprocess call itself
// lives in the ffmpeg package; keeping the parsing here makes it testable
// without a real ffprobe binary.
package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoVideoStream is returned when the probed container carries no usable
// video stream (cover art does not count).
var ErrNoVideoStream = errors.New("no video stream found")

// ParseJSON converts raw ffprobe JSON output into a Result.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw)
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	FieldOrder  string            `json:"field_order"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) (*Result, error) {
	r := &Result{
		Duration: parseFloat(raw.Format.Duration),
	}

	subIdx := 0
	haveVideo := false
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] == 1 || haveVideo {
				continue
			}
			haveVideo = true
			r.VideoCodec = s.CodecName
			r.Interlaced = isInterlaced(s.FieldOrder)
		case "subtitle":
			// Subtitle streams are numbered by their order of appearance
			// among subtitle-type streams, matching ffmpeg's 0:s:<n>
			// addressing. The absolute container index is irrelevant here.
			r.Subtitles = append(r.Subtitles, SubtitleTrack{
				Index:    subIdx,
				Language: strings.ToLower(s.Tags["language"]),
				Codec:    s.CodecName,
			})
			subIdx++
		}
	}

	if !haveVideo {
		return nil, ErrNoVideoStream
	}
	return r, nil
}

// isInterlaced reports whether field_order indicates interlaced content.
// Anything other than progressive/unknown/empty (tt, bb, tb, bt) counts.
func isInterlaced(fieldOrder string) bool {
	switch strings.ToLower(strings.TrimSpace(fieldOrder)) {
	case "", "progressive", "unknown":
		return false
	}
	return true
}

// ffprobe returns numbers as strings.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
