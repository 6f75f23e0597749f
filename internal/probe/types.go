package probe

// SubtitleTrack describes one subtitle stream. Index is the position within
// the container's subtitle-stream order (0-based among subtitle-type streams),
// the value ffmpeg expects in "0:s:<n>" maps and "si=<n>" burn filters.
// It is never an index into a language-filtered subset.
type SubtitleTrack struct {
	Index    int
	Language string // lowercase tag from stream metadata; "" when untagged
	Codec    string
}

// Result is the fully parsed output of a single ffprobe JSON call.
// It is an immutable snapshot: produced once per file per batch and
// never shared across files.
type Result struct {
	VideoCodec string
	Interlaced bool
	Duration   float64 // container duration in seconds, surfaced in probe logs
	Subtitles  []SubtitleTrack
}

// MatchingTracks returns the subtitle tracks whose language equals lang
// (case-insensitive via the lowercased Language field), preserving
// container order.
func (r *Result) MatchingTracks(lang string) []SubtitleTrack {
	var out []SubtitleTrack
	for _, t := range r.Subtitles {
		if t.Language == lang {
			out = append(out, t)
		}
	}
	return out
}
