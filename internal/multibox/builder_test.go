package multibox

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"

	"github.com/hiinaspace/animutools/internal/anilist"
	"github.com/hiinaspace/animutools/internal/config"
	"github.com/hiinaspace/animutools/internal/logging"
	"github.com/hiinaspace/animutools/internal/metacache"
)

type staticFetcher map[int]*anilist.Media

func (f staticFetcher) FetchMedia(_ context.Context, ids []int) (map[int]*anilist.Media, error) {
	result := make(map[int]*anilist.Media, len(ids))
	for _, id := range ids {
		if media, ok := f[id]; ok {
			result[id] = media
		}
	}
	return result, nil
}

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func webpBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := webp.Encode(&buf, solidImage(w, h, c), &webp.Options{Lossless: true}); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	return buf.Bytes()
}

func TestBuildAtlasEndToEnd(t *testing.T) {
	posterData := map[string][]byte{
		"/101.png":  pngBytes(t, 100, 150, color.RGBA{R: 255, A: 255}),
		"/102.webp": webpBytes(t, 100, 150, color.RGBA{B: 255, A: 255}),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := posterData[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(server.Close)

	fetcher := staticFetcher{
		101: {
			ID: 101, TitleRomaji: "Sousou no Frieren",
			TitleEnglish:  "Frieren: Beyond Journey's End",
			CoverImageURL: server.URL + "/101.png",
			Episodes:      28, Source: "MANGA",
			Studios: []string{"Madhouse"},
		},
		102: {
			ID: 102, TitleRomaji: "Bocchi the Rock",
			// CDN-style URL: the query string must not end up in the
			// cached filename's extension
			CoverImageURL: server.URL + "/102.webp?size=large",
			Episodes:      12, Source: "LIGHT_NOVEL",
			Studios: []string{"CloverWorks", "Second Studio"},
		},
	}

	tmp := t.TempDir()
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.Paths.ImageCacheDir = filepath.Join(tmp, "images")
	cfg.Atlas.MaxWidth = 400
	cfg.Atlas.MaxHeight = 400

	cache, err := metacache.Open(filepath.Join(tmp, "cache.db"))
	if err != nil {
		t.Fatalf("metacache.Open: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	builder := NewBuilder(cfg, fetcher, cache, logging.NewNop())
	outDir := filepath.Join(tmp, "out")
	result, err := builder.Build(context.Background(), []int{101, 102}, outDir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// atlas decodes and covers the 2x1 grid
	file, err := os.Open(result.PosterPath)
	if err != nil {
		t.Fatalf("open atlas: %v", err)
	}
	defer file.Close()
	atlas, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decode atlas: %v", err)
	}
	if atlas.Bounds().Dx() != 400 || atlas.Bounds().Dy() != 400 {
		t.Fatalf("atlas bounds = %v, want 400x400", atlas.Bounds())
	}

	raw, err := os.ReadFile(result.MetadataPath)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	frieren := entries[0]
	if frieren.Title != "Sousou no Frieren" || frieren.Studio != "Madhouse" {
		t.Fatalf("entry 0 = %+v", frieren)
	}
	if frieren.TitleEnglish != "Frieren: Beyond Journey's End" {
		t.Fatalf("TitleEnglish = %q", frieren.TitleEnglish)
	}
	if frieren.Source != "Manga" {
		t.Fatalf("Source = %q, want Manga", frieren.Source)
	}
	if frieren.AtlasW <= 0 || frieren.AtlasH <= 0 {
		t.Fatalf("atlas geometry missing: %+v", frieren)
	}
	wantAspect := 100.0 / 150.0
	if diff := frieren.OriginalAspectRatio - wantAspect; diff > 0.01 || diff < -0.01 {
		t.Fatalf("aspect = %v, want %v", frieren.OriginalAspectRatio, wantAspect)
	}

	bocchi := entries[1]
	if bocchi.Source != "Light Novel" {
		t.Fatalf("Source = %q, want Light Novel", bocchi.Source)
	}
	if bocchi.Studio != "CloverWorks, Second Studio" {
		t.Fatalf("Studio = %q", bocchi.Studio)
	}
	if bocchi.AtlasX == frieren.AtlasX && bocchi.AtlasY == frieren.AtlasY {
		t.Fatal("entries share an atlas cell")
	}

	// webp poster cached under its path extension despite the query string
	if _, err := os.Stat(filepath.Join(cfg.Paths.ImageCacheDir, "102.webp")); err != nil {
		t.Fatalf("cached webp poster: %v", err)
	}

	// ReadMetadata round-trips the sidecar for the torrent search
	loaded, err := ReadMetadata(result.MetadataPath)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != 101 {
		t.Fatalf("loaded entries = %+v", loaded)
	}
	titles := loaded[0].SearchTitles()
	if len(titles) != 2 || titles[0] != "Sousou no Frieren" || titles[1] != "Frieren: Beyond Journey's End" {
		t.Fatalf("SearchTitles = %v", titles)
	}

	// second build hits the poster cache and the metadata cache
	posterData["/101.png"] = nil
	posterData["/102.webp"] = nil
	if _, err := builder.Build(context.Background(), []int{101, 102}, outDir); err != nil {
		t.Fatalf("cached rebuild: %v", err)
	}
}

func TestReadMetadataRejectsEmptyAndMissing(t *testing.T) {
	if _, err := ReadMetadata(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if _, err := ReadMetadata(path); err == nil {
		t.Fatal("expected error for empty show list")
	}
}

func TestBuildMissingMetadata(t *testing.T) {
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.Paths.ImageCacheDir = t.TempDir()

	builder := NewBuilder(cfg, staticFetcher{}, nil, logging.NewNop())
	if _, err := builder.Build(context.Background(), []int{404}, t.TempDir()); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestReadShowList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shows.txt")
	content := `# fall season
https://anilist.co/anime/154587/Sousou-no-Frieren/

https://anilist.co/anime/130003/Bocchi-the-Rock/
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	ids, err := ReadShowList(path)
	if err != nil {
		t.Fatalf("ReadShowList: %v", err)
	}
	if len(ids) != 2 || ids[0] != 154587 || ids[1] != 130003 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestReadShowListRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shows.txt")
	if err := os.WriteFile(path, []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}
	if _, err := ReadShowList(path); err == nil {
		t.Fatal("expected error for empty list")
	}
}
