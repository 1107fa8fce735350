package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a config pointing all paths into the test's temp
// space and returns its path. Extra TOML blocks are appended as given.
func writeTestConfig(t *testing.T, extra ...string) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[tools]
ffmpeg_binary = "ffmpeg"
ffprobe_binary = "ffprobe"

[paths]
lock_file = %q
image_cache_dir = %q
cache_db_path = %q
`,
		filepath.Join(base, "encode.lock"),
		filepath.Join(base, "images"),
		filepath.Join(base, "metadata.db"),
	)
	for _, block := range extra {
		content += "\n" + block + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootListsSubcommands(t *testing.T) {
	out, err := runCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"encode", "bulk", "concat", "grid", "search", "fetch", "probe", "config"} {
		if !strings.Contains(out, name) {
			t.Errorf("help output missing %q:\n%s", name, out)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "animutools.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output missing target path: %s", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[tools]") {
		t.Fatalf("sample config malformed:\n%s", data)
	}

	// second init without --overwrite refuses
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, cfgPath) {
		t.Fatalf("resolved path missing: %s", out)
	}
}

func TestConcatDryRunPrintsCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	stdout := captureStdout(t, func() {
		_, err := runCommand(t, "--config", cfgPath,
			"concat", "a.mp4", "b.mp4", "-o", "joined.mp4", "--dry-run")
		if err != nil {
			t.Errorf("concat dry-run: %v", err)
		}
	})
	if !strings.Contains(stdout, "concat=n=2:v=1:a=1") {
		t.Fatalf("dry-run output missing filter graph: %s", stdout)
	}
	if !strings.Contains(stdout, "joined.mp4") {
		t.Fatalf("dry-run output missing output file: %s", stdout)
	}
}

func TestGridDryRunPrintsCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	stdout := captureStdout(t, func() {
		_, err := runCommand(t, "--config", cfgPath,
			"grid", "a.mkv", "b.mkv", "c.mkv", "d.mkv", "-o", "grid.mp4", "--dry-run")
		if err != nil {
			t.Errorf("grid dry-run: %v", err)
		}
	})
	if !strings.Contains(stdout, "hstack=inputs=3") {
		t.Fatalf("dry-run output missing grid graph: %s", stdout)
	}
	if !strings.Contains(stdout, "loudnorm") {
		t.Fatalf("dry-run output missing loudnorm: %s", stdout)
	}
}

func TestConcatRejectsSingleInput(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCommand(t, "--config", cfgPath, "concat", "only.mp4", "-o", "out.mp4", "--dry-run")
	if err == nil {
		t.Fatal("expected argument error")
	}
}

func TestSearchWritesOneURLPerShow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "subsplease 480p" {
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:nyaa="https://nyaa.si/xmlns/nyaa">
 <channel><title>Nyaa</title><link>https://nyaa.si/</link><description>r</description>
  <item>
   <title>[SubsPlease] Sousou no Frieren - 01 (480p) [AAAA].mkv</title>
   <link>https://nyaa.si/download/10.torrent</link>
   <guid isPermaLink="true">https://nyaa.si/view/10</guid>
   <nyaa:seeders>300</nyaa:seeders>
  </item>
 </channel>
</rss>`)
			return
		}
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Nyaa</title><link>https://nyaa.si/</link><description>r</description></channel></rss>`)
	}))
	t.Cleanup(server.Close)

	cfgPath := writeTestConfig(t, fmt.Sprintf(`[nyaa]
rss_base_url = %q
broad_query = "subsplease 480p"
similarity_threshold = 85
query_delay_seconds = 0
resolution_preference = ["480p", "720p"]
`, server.URL+"/?page=rss&q="))

	metadataPath := filepath.Join(t.TempDir(), "metadata.json")
	metadata := `[
  {"id": 101, "title": "Sousou no Frieren", "studio": "Madhouse", "source": "Manga", "episodes": 28,
   "atlasX": 0, "atlasY": 0, "atlasW": 100, "atlasH": 150, "originalAspectRatio": 0.66},
  {"id": 102, "title": "Totally Obscure Show", "studio": "", "source": "Original", "episodes": 12,
   "atlasX": 100, "atlasY": 0, "atlasW": 100, "atlasH": 150, "originalAspectRatio": 0.66}
]`
	if err := os.WriteFile(metadataPath, []byte(metadata), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}

	stdout := captureStdout(t, func() {
		_, err := runCommand(t, "--config", cfgPath, "search", metadataPath)
		if err != nil {
			t.Errorf("search: %v", err)
		}
	})

	// one line per show in metadata order, blank where nothing matched
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d output lines, want 2:\n%s", len(lines), stdout)
	}
	if lines[0] != "https://nyaa.si/download/10.torrent" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if lines[1] != "" {
		t.Fatalf("line 1 = %q, want blank for the unmatched show", lines[1])
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{
		{"Name", false},
		{"Count", true},
	}, [][]string{
		{"full", "3"},
		{"short"},
	})
	if !strings.Contains(out, "Name") || !strings.Contains(out, "Count") {
		t.Fatalf("headers missing:\n%s", out)
	}
	if !strings.Contains(out, "short") {
		t.Fatalf("padded row missing:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("no columns should render nothing")
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	w.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	os.Stdout = orig
	return buf.String()
}
