package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// EncodeSettings holds the per-invocation knobs for a single-file encode.
type EncodeSettings struct {
	Scale                 string // ffmpeg scale filter argument, e.g. "1280:-1"
	Letterbox             bool
	SubtitleIndexOverride *int
	SubtitleFile          string
	Remux                 bool
	HLS                   bool
	HLSSegmentSeconds     float64
	TestClip              bool
	TargetBitrateKbps     int
	BufferDurationSeconds float64
	Overwrite             bool
}

// IsHLS reports whether the output should be an HLS playlist, either because
// the flag was set or the output name is an .m3u8 playlist.
func (s EncodeSettings) IsHLS(outfile string) bool {
	return s.HLS || strings.EqualFold(filepath.Ext(outfile), ".m3u8")
}

// HLSSegmentDir is the directory that holds the .ts chunks, kept alongside
// the playlist for convenience.
func HLSSegmentDir(outfile string) string {
	return outfile + ".ts"
}

// BuildEncodeCommand assembles the anime encode invocation: yuv420p with
// burned-in subtitles, a bitrate-capped libx264 high profile tuned for
// animation, and stereo AAC audio.
func BuildEncodeCommand(binary, infile, outfile string, sel StreamSelection, settings EncodeSettings) *Command {
	cmd := NewCommand(binary).Input(infile).Output(outfile).Overwrite(settings.Overwrite)

	subtitleIndex := sel.SubtitleIndex
	if settings.SubtitleIndexOverride != nil {
		subtitleIndex = *settings.SubtitleIndexOverride
	}

	if settings.Remux {
		cmd.Map("0")
		cmd.Option("c", "copy")
	} else {
		filters := []string{"format=yuv420p"}
		if settings.Scale != "" {
			filters = append(filters, "scale="+settings.Scale)
		}
		if settings.Letterbox {
			// Fixed 16:9 canvas capped at 1080p; pads rather than crops.
			filters = append(filters,
				"scale=1920:1080:force_original_aspect_ratio=decrease",
				"pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
				"setsar=1",
			)
		}

		switch {
		case sel.SubtitleKind == SubtitleBitmap && sel.SubtitleCount > 0:
			// Bitmap subs get scaled against the video and overlaid.
			chain := strings.Join(filters, ",")
			graph := fmt.Sprintf("[0:v]%s[vmain];[0:s:%d][vmain]scale2ref[subs][vid];[vid][subs]overlay[vout]",
				chain, subtitleIndex)
			cmd.FilterComplex(graph)
			cmd.Map("[vout]")
		case sel.SubtitleCount > 0 || settings.SubtitleFile != "":
			subfile := infile
			subSpec := fmt.Sprintf("subtitles=filename=%s:si=%d", filterEscape(subfile), subtitleIndex)
			if settings.SubtitleFile != "" {
				subSpec = "subtitles=filename=" + filterEscape(settings.SubtitleFile)
			}
			filters = append(filters, subSpec)
			cmd.VideoFilter(strings.Join(filters, ","))
			cmd.Map("0:v:0")
		default:
			cmd.VideoFilter(strings.Join(filters, ","))
			cmd.Map("0:v:0")
		}
		cmd.Map(fmt.Sprintf("0:a:%d", sel.AudioIndex))

		// Cap bufsize by expected buffer duration so bitrate spikes don't
		// cause underruns during playback.
		bufsize := int(float64(settings.TargetBitrateKbps) * settings.BufferDurationSeconds)
		cmd.Option("c:v", "libx264")
		cmd.Option("profile:v", "high")
		cmd.Option("preset", "medium")
		cmd.Option("tune", "animation")
		cmd.Option("crf", "18")
		cmd.Option("maxrate", fmt.Sprintf("%dK", settings.TargetBitrateKbps))
		cmd.Option("bufsize", fmt.Sprintf("%dK", bufsize))
		cmd.Option("c:a", "aac")
		cmd.Option("b:a", "160k")
		cmd.Option("ac", "2")
	}

	if settings.IsHLS(outfile) {
		segmentSeconds := settings.HLSSegmentSeconds
		if segmentSeconds <= 0 {
			segmentSeconds = 4
		}
		cmd.Option("f", "hls")
		cmd.Option("hls_playlist_type", "vod")
		cmd.Option("hls_time", trimFloat(segmentSeconds))
		cmd.Option("hls_list_size", "0")
		cmd.Option("hls_base_url", filepath.Base(outfile)+".ts/")
		cmd.Option("hls_segment_filename", filepath.Join(HLSSegmentDir(outfile), "%04d.ts"))
	} else if !settings.Remux {
		cmd.Option("movflags", "faststart")
	}

	if settings.TestClip {
		cmd.Option("t", "60")
	}

	return cmd
}

func trimFloat(value float64) string {
	text := fmt.Sprintf("%g", value)
	return text
}
