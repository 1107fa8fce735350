package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hiinaspace/animutools/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &buf}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "encode").Info("ffmpeg started",
		logging.String("input", "ep01.mkv"),
		logging.Int("exit_code", 0),
	)

	line := buf.String()
	if !strings.Contains(line, "[encode]") {
		t.Fatalf("expected component tag in output, got %q", line)
	}
	if !strings.Contains(line, "ffmpeg started") {
		t.Fatalf("expected message in output, got %q", line)
	}
	if !strings.Contains(line, "input=ep01.mkv") || !strings.Contains(line, "exit_code=0") {
		t.Fatalf("expected attrs in output, got %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("ffmpeg output", logging.String("line", "could not open file"))
	if !strings.Contains(buf.String(), `line="could not open file"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestJSONFormatProducesParseableRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("done", logging.Int("count", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "done" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
}
