package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"submux/internal/config"
)

// buildExtractArgs constructs the argument slice for a lossless subtitle
// stream extraction into a standalone ASS file.
func buildExtractArgs(input string, track int, output string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-loglevel", "error",
		"-i", input,
		"-map", fmt.Sprintf("0:s:%d", track),
		"-c:s", "ass",
		output,
	}
}

// buildTranscodeArgs constructs the complete ffmpeg argument slice for a
// transcode job. Shape:
//
//	[preamble] [hw device] -i input [-vf filters] maps codec audio -sn output
//
// Video is re-encoded with the configured backend, audio streams are copied,
// and subtitle streams are dropped from the output: matching-language tracks
// are burned into the pixels, everything else is unwanted downstream.
func buildTranscodeArgs(opts *Options, job *Job) []string {
	args := make([]string, 0, 32)
	args = append(args, "-hide_banner", "-nostdin", "-y", "-loglevel", "error")

	vaapi := opts.Encoder == config.EncoderVAAPI
	if vaapi {
		args = append(args,
			"-init_hw_device", "vaapi=va:"+opts.VaapiDevice,
			"-filter_hw_device", "va",
		)
	}

	args = append(args, "-i", job.Input)

	if vf := buildVideoFilter(job, vaapi); vf != "" {
		args = append(args, "-vf", vf)
	}

	args = append(args, "-map", "0:v:0", "-map", "0:a?")

	if vaapi {
		args = append(args,
			"-c:v", "hevc_vaapi",
			"-qp", strconv.Itoa(opts.VaapiQP),
		)
	} else {
		args = append(args,
			"-c:v", "libx265",
			"-crf", strconv.Itoa(opts.CpuCRF),
			"-preset", opts.CpuPreset,
			"-x265-params", "log-level=error",
		)
	}

	args = append(args, "-c:a", "copy", "-sn", job.Output)
	return args
}

// buildVideoFilter assembles the -vf chain: optional deinterlace, optional
// subtitle burn, and for VAAPI the software-format upload tail. Filters that
// read files (subtitles) run on software frames, so hwupload always comes
// last.
func buildVideoFilter(job *Job, vaapi bool) string {
	var chain []string

	if job.Interlaced {
		chain = append(chain, "yadif")
	}

	switch {
	case job.BurnFile != "":
		chain = append(chain, "subtitles="+escapeFilterPath(job.BurnFile))
	case job.BurnTrack >= 0:
		chain = append(chain, fmt.Sprintf("subtitles=%s:si=%d",
			escapeFilterPath(job.Input), job.BurnTrack))
	}

	if vaapi {
		chain = append(chain, "format=nv12,hwupload")
	}

	return strings.Join(chain, ",")
}

// filterEscaper escapes the characters the ffmpeg filter-graph parser treats
// specially inside a filename argument.
var filterEscaper = strings.NewReplacer(
	`\`, `\\`,
	`:`, `\:`,
	`'`, `\'`,
	`,`, `\,`,
	`[`, `\[`,
	`]`, `\]`,
	`;`, `\;`,
)

func escapeFilterPath(path string) string {
	return filterEscaper.Replace(path)
}
