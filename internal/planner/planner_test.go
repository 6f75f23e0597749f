package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"submux/internal/probe"
)

// --- Helper builders ---

func result(codec string, langs ...string) *probe.Result {
	pr := &probe.Result{VideoCodec: codec}
	for i, lang := range langs {
		pr.Subtitles = append(pr.Subtitles, probe.SubtitleTrack{
			Index:    i,
			Language: lang,
			Codec:    "ass",
		})
	}
	return pr
}

// --- Build decision matrix ---

func TestBuild_TargetCodecNoMatchesMoves(t *testing.T) {
	plan := Build(result("hevc", "ger", "fre"), "hevc", "eng")
	assert.Equal(t, DirectMove, plan.Kind)
}

func TestBuild_TargetCodecZeroSubtitlesMoves(t *testing.T) {
	plan := Build(result("hevc"), "hevc", "eng")
	assert.Equal(t, DirectMove, plan.Kind)
}

func TestBuild_NonTargetNoMatchesTranscodes(t *testing.T) {
	plan := Build(result("h264", "ger"), "hevc", "eng")
	assert.Equal(t, Transcode, plan.Kind)
}

func TestBuild_ZeroSubtitlesNonTargetTranscodes(t *testing.T) {
	plan := Build(result("h264"), "hevc", "eng")
	assert.Equal(t, Transcode, plan.Kind)
}

func TestBuild_SingleMatchBurnsThatTrack(t *testing.T) {
	// Two non-matching tracks precede the match; the plan must carry the
	// position within the full subtitle order, not within the filtered set.
	plan := Build(result("h264", "ger", "fre", "eng"), "hevc", "eng")
	assert.Equal(t, BurnTrack, plan.Kind)
	assert.Equal(t, 2, plan.Track)
}

func TestBuild_SingleMatchOnTargetCodecStillBurns(t *testing.T) {
	// A matching subtitle forces a re-encode even when the video codec is
	// already acceptable: burn-in needs the encode pass.
	plan := Build(result("hevc", "eng"), "hevc", "eng")
	assert.Equal(t, BurnTrack, plan.Kind)
	assert.Equal(t, 0, plan.Track)
}

func TestBuild_MultipleMatchesMerge(t *testing.T) {
	plan := Build(result("h264", "eng", "ger", "eng", "eng"), "hevc", "eng")
	assert.Equal(t, BurnMerged, plan.Kind)
	assert.Equal(t, []int{0, 2, 3}, plan.Tracks)
}

func TestBuild_LanguageMatchIsCaseInsensitive(t *testing.T) {
	plan := Build(result("h264", "eng"), "hevc", "ENG")
	assert.Equal(t, BurnTrack, plan.Kind)
}

func TestBuild_UntaggedTracksNeverMatch(t *testing.T) {
	plan := Build(result("h264", "", ""), "hevc", "eng")
	assert.Equal(t, Transcode, plan.Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "move", DirectMove.String())
	assert.Equal(t, "transcode", Transcode.String())
	assert.Equal(t, "burn", BurnTrack.String())
	assert.Equal(t, "merge-burn", BurnMerged.String())
}
