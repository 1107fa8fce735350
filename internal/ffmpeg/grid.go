package ffmpeg

import (
	"fmt"
	"path/filepath"
	"strings"
)

// GridColumns is the tile count per row in the multibox mosaic.
const GridColumns = 3

// BuildGridCommand tiles every input into one 1920-wide mosaic video with
// each source's audio kept as a separate loudness-normalized track. Image
// inputs (.jpg placeholders for missing episodes) contribute a tile but no
// audio.
func BuildGridCommand(binary string, inputs []string, outfile string, overwrite bool) (*Command, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("grid: need at least two inputs, got %d", len(inputs))
	}

	cellWidth := 1920 / GridColumns
	cellHeight := cellWidth * 9 / 16

	cmd := NewCommand(binary).Output(outfile).Overwrite(overwrite)
	cmd.GlobalArgs("-sn")

	var graph []string
	for i, input := range inputs {
		cmd.Input(input)
		filters := []string{
			// sample weird fansub framerates back to the usual 24000/1001
			"fps=fps=ntsc_film",
		}
		if strings.EqualFold(filepath.Ext(input), ".mkv") {
			filters = append(filters, "subtitles=filename="+filterEscape(input))
		}
		filters = append(filters,
			fmt.Sprintf("scale=%d:%d", cellWidth, cellHeight),
			"setsar=1",
			"format=yuv420p",
		)
		graph = append(graph, fmt.Sprintf("[%d:v]%s[tile%d]", i, strings.Join(filters, ","), i))
	}

	rows := 0
	for start := 0; start < len(inputs); start += GridColumns {
		end := start + GridColumns
		if end > len(inputs) {
			end = len(inputs)
		}
		var labels strings.Builder
		for i := start; i < end; i++ {
			fmt.Fprintf(&labels, "[tile%d]", i)
		}
		if end-start == 1 {
			graph = append(graph, fmt.Sprintf("%snull[row%d]", labels.String(), rows))
		} else {
			graph = append(graph, fmt.Sprintf("%shstack=inputs=%d[row%d]", labels.String(), end-start, rows))
		}
		rows++
	}

	videoLabel := "[row0]"
	if rows > 1 {
		var labels strings.Builder
		for r := 0; r < rows; r++ {
			fmt.Fprintf(&labels, "[row%d]", r)
		}
		graph = append(graph, fmt.Sprintf("%svstack=inputs=%d[grid]", labels.String(), rows))
		videoLabel = "[grid]"
	}

	audioLabels := make([]string, 0, len(inputs))
	for i, input := range inputs {
		if strings.EqualFold(filepath.Ext(input), ".jpg") {
			continue
		}
		label := fmt.Sprintf("[aud%d]", i)
		graph = append(graph, fmt.Sprintf("[%d:a]loudnorm%s", i, label))
		audioLabels = append(audioLabels, label)
	}

	cmd.FilterComplex(strings.Join(graph, ";"))
	cmd.Map(videoLabel)
	for _, label := range audioLabels {
		cmd.Map(label)
	}

	// Streaming-friendly settings; constrained bitrate with a small GOP so
	// players can join mid-stream without long buffering stalls.
	cmd.Option("map_chapters", "-1")
	cmd.Option("c:v", "libx264")
	cmd.Option("preset", "medium")
	cmd.Option("tune", "animation")
	cmd.Option("movflags", "faststart")
	cmd.Option("b:v", "2000k")
	cmd.Option("maxrate", "2000k")
	cmd.Option("bufsize", "4000k")
	cmd.Option("g", "50")
	cmd.Option("crf", "28")
	cmd.Option("c:a", "aac")
	cmd.Option("b:a", "160k")
	cmd.Option("ac", "1")

	return cmd, nil
}
