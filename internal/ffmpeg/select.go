package ffmpeg

import (
	"log/slog"

	"github.com/hiinaspace/animutools/internal/logging"
)

// SubtitleKind distinguishes text subtitles (rendered by the subtitles
// filter) from bitmap subtitles that must be scaled and overlaid.
type SubtitleKind int

const (
	SubtitleText SubtitleKind = iota
	SubtitleBitmap
)

// bitmap subtitle codecs that need overlay burn-in instead of libass
var bitmapSubtitleCodecs = map[string]struct{}{
	"dvd_subtitle":      {},
	"hdmv_pgs_subtitle": {},
}

// StreamSelection is the audio/subtitle track choice for one encode.
// Indexes are type-relative (a:N, s:N), matching ffmpeg stream specifiers.
type StreamSelection struct {
	AudioIndex    int
	AudioCount    int
	SubtitleIndex int
	SubtitleCount int
	SubtitleKind  SubtitleKind
}

// SelectStreams picks tracks the way the anime encodes want them: Japanese
// audio over the first track when present, and the first English subtitle
// track over the default-flagged one. English fansub tracks usually carry the
// translation rather than dubtitles, though the tagging is ambiguous.
func SelectStreams(probe *ProbeResult, logger *slog.Logger) StreamSelection {
	if logger == nil {
		logger = logging.NewNop()
	}
	sel := StreamSelection{SubtitleKind: SubtitleText}
	if probe == nil {
		return sel
	}

	foundEnglishSub := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "audio":
			if stream.Language() == "jpn" {
				sel.AudioIndex = sel.AudioCount
			}
			sel.AudioCount++
		case "subtitle":
			if stream.IsDefault() && !foundEnglishSub {
				sel.SubtitleIndex = sel.SubtitleCount
				sel.SubtitleKind = subtitleKind(stream.CodecName)
			}
			if stream.Language() == "eng" && !foundEnglishSub {
				foundEnglishSub = true
				sel.SubtitleIndex = sel.SubtitleCount
				sel.SubtitleKind = subtitleKind(stream.CodecName)
				logger.Debug("selected first english subtitle track",
					logging.Int("subtitle_index", sel.SubtitleIndex),
					logging.String("codec", stream.CodecName),
				)
			}
			sel.SubtitleCount++
		}
	}

	logger.Debug("stream selection",
		logging.Int("audio_index", sel.AudioIndex),
		logging.Int("subtitle_index", sel.SubtitleIndex),
		logging.Int("audio_count", sel.AudioCount),
		logging.Int("subtitle_count", sel.SubtitleCount),
		logging.Bool("bitmap_subtitles", sel.SubtitleKind == SubtitleBitmap),
	)
	return sel
}

func subtitleKind(codecName string) SubtitleKind {
	if _, ok := bitmapSubtitleCodecs[codecName]; ok {
		return SubtitleBitmap
	}
	return SubtitleText
}
