// Package planner decides the transformation path for a single probed file.
// The decision is a pure function of probe data and the configured targets,
// so every branch is directly testable without touching ffmpeg or the
// filesystem.
package planner

import (
	"strings"

	"submux/internal/probe"
)

// Kind enumerates the four transformation paths.
type Kind int

const (
	// DirectMove relocates the file unchanged: the container already holds
	// the target codec and there is nothing to burn in.
	DirectMove Kind = iota
	// Transcode re-encodes video with no subtitle burn.
	Transcode
	// BurnTrack re-encodes video and burns in one subtitle track.
	BurnTrack
	// BurnMerged extracts several same-language tracks, merges them into a
	// single time-ordered file, and burns that in during the re-encode.
	BurnMerged
)

// String returns the log label for a plan kind.
func (k Kind) String() string {
	switch k {
	case DirectMove:
		return "move"
	case Transcode:
		return "transcode"
	case BurnTrack:
		return "burn"
	case BurnMerged:
		return "merge-burn"
	}
	return "unknown"
}

// Plan is the classification outcome for one file. Track and Tracks hold
// positions within the container's full subtitle-stream order, never within
// the language-filtered subset.
type Plan struct {
	Kind   Kind
	Track  int   // BurnTrack: the single matching track.
	Tracks []int // BurnMerged: all matching tracks, container order.
}

// Build classifies a probed file against the target codec and subtitle
// language:
//
//   - no matching subtitles, video already targetCodec → DirectMove
//   - no matching subtitles otherwise → Transcode
//   - exactly one match → BurnTrack with that track's container index
//   - two or more matches → BurnMerged with all matching indices in order
//
// A file with zero subtitle streams and a non-target codec therefore always
// lands on Transcode.
func Build(pr *probe.Result, targetCodec, lang string) Plan {
	matches := pr.MatchingTracks(strings.ToLower(lang))

	switch len(matches) {
	case 0:
		if pr.VideoCodec == targetCodec {
			return Plan{Kind: DirectMove}
		}
		return Plan{Kind: Transcode}
	case 1:
		return Plan{Kind: BurnTrack, Track: matches[0].Index}
	}

	indices := make([]int, len(matches))
	for i, m := range matches {
		indices[i] = m.Index
	}
	return Plan{Kind: BurnMerged, Tracks: indices}
}
