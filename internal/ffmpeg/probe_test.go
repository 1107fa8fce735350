package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/hiinaspace/animutools/internal/services"
)

func useProbeHelper(t *testing.T, mode string, env ...string) {
	t.Helper()
	orig := probeCommandContext
	probeCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
		cmd.Env = append(cmd.Env, env...)
		return cmd
	}
	t.Cleanup(func() { probeCommandContext = orig })
}

const sampleProbeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2,
     "tags": {"language": "jpn"}},
    {"index": 2, "codec_name": "ass", "codec_type": "subtitle",
     "tags": {"language": "eng"}, "disposition": {"default": 1}}
  ],
  "format": {"filename": "in.mkv", "format_name": "matroska,webm", "duration": "1421.480000"}
}`

func TestProbeDecodesStreams(t *testing.T) {
	useProbeHelper(t, "probe", "HELPER_PROBE_JSON="+sampleProbeJSON)

	result, err := Probe(context.Background(), "ffprobe", "in.mkv")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(result.Streams) != 3 {
		t.Fatalf("streams = %d, want 3", len(result.Streams))
	}
	if got := result.DurationSeconds(); got != 1421.48 {
		t.Fatalf("DurationSeconds = %v, want 1421.48", got)
	}
	if lang := result.Streams[1].Language(); lang != "jpn" {
		t.Fatalf("Language = %q, want jpn", lang)
	}
	if !result.Streams[2].IsDefault() {
		t.Fatal("subtitle stream should be default")
	}
	if result.Streams[0].IsDefault() {
		t.Fatal("video stream should not be default")
	}
}

func TestProbeSurfacesStderrOnFailure(t *testing.T) {
	useProbeHelper(t, "probe-fail")

	_, err := Probe(context.Background(), "ffprobe", "in.mkv")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error %v is not ErrExternalTool", err)
	}
	if !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("stderr detail missing: %v", err)
	}
}

func TestProbeRejectsBadJSON(t *testing.T) {
	useProbeHelper(t, "probe", "HELPER_PROBE_JSON=not json")

	if _, err := Probe(context.Background(), "ffprobe", "in.mkv"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDurationSecondsFallsBackToZero(t *testing.T) {
	cases := []string{"", "n/a", "-5"}
	for _, raw := range cases {
		result := &ProbeResult{Format: ProbeFormat{Duration: raw}}
		if got := result.DurationSeconds(); got != 0 {
			t.Fatalf("duration %q: got %v, want 0", raw, got)
		}
	}
	var nilResult *ProbeResult
	if nilResult.DurationSeconds() != 0 {
		t.Fatal("nil result should report zero duration")
	}
}
