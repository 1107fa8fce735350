package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hiinaspace/animutools/internal/services"
)

var probeCommandContext = exec.CommandContext

// ProbeStream describes one stream from ffprobe -show_streams.
type ProbeStream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	Channels    int               `json:"channels,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Disposition map[string]int    `json:"disposition,omitempty"`
}

// ProbeFormat describes the container from ffprobe -show_format.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeResult is the decoded ffprobe JSON document.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// DurationSeconds parses the container duration, returning 0 when it is
// missing or unparseable. A zero duration disables progress display.
func (r *ProbeResult) DurationSeconds() float64 {
	if r == nil {
		return 0
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}

// Language returns a stream's language tag, or the empty string.
func (s ProbeStream) Language() string {
	if s.Tags == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s.Tags["language"]))
}

// IsDefault reports whether the stream carries the default disposition.
func (s ProbeStream) IsDefault() bool {
	return s.Disposition != nil && s.Disposition["default"] == 1
}

// Probe runs ffprobe against path and decodes the result.
func Probe(ctx context.Context, binary, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := probeCommandContext(ctx, binary, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", path, err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "probe", "decode ffprobe output", path, err)
	}
	return &result, nil
}
