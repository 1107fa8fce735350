package multibox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hiinaspace/animutools/internal/anilist"
	"github.com/hiinaspace/animutools/internal/config"
	"github.com/hiinaspace/animutools/internal/logging"
	"github.com/hiinaspace/animutools/internal/metacache"
	"github.com/hiinaspace/animutools/internal/services"
)

// MetadataFetcher resolves AniList IDs to media records.
type MetadataFetcher interface {
	FetchMedia(ctx context.Context, ids []int) (map[int]*anilist.Media, error)
}

// Entry is one show's record in the atlas sidecar JSON.
type Entry struct {
	ID                  int     `json:"id"`
	Title               string  `json:"title"`
	TitleEnglish        string  `json:"titleEnglish,omitempty"`
	Studio              string  `json:"studio"`
	Source              string  `json:"source"`
	Episodes            int     `json:"episodes"`
	AtlasX              int     `json:"atlasX"`
	AtlasY              int     `json:"atlasY"`
	AtlasW              int     `json:"atlasW"`
	AtlasH              int     `json:"atlasH"`
	OriginalAspectRatio float64 `json:"originalAspectRatio"`
}

// SearchTitles returns the names a release of this show could be published
// under, primary title first.
func (e Entry) SearchTitles() []string {
	titles := []string{e.Title}
	if e.TitleEnglish != "" && e.TitleEnglish != e.Title {
		titles = append(titles, e.TitleEnglish)
	}
	return titles
}

// Result reports what Build produced.
type Result struct {
	PosterPath   string
	MetadataPath string
	Entries      []Entry
}

// Builder assembles the poster atlas and metadata sidecar.
type Builder struct {
	cfg        *config.Config
	fetcher    MetadataFetcher
	cache      *metacache.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBuilder constructs a Builder. The cache may be nil, in which case every
// run fetches fresh metadata.
func NewBuilder(cfg *config.Config, fetcher MetadataFetcher, cache *metacache.Store, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:        cfg,
		fetcher:    fetcher,
		cache:      cache,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.NewComponentLogger(logger, "multibox"),
	}
}

// ReadShowList parses a show list file: one anilist.co anime URL per line,
// blank lines and #-comments skipped.
func ReadShowList(path string) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "multibox", "show list", path, err)
	}
	defer file.Close()

	var ids []int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := anilist.ParseMediaURL(line)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "multibox", "show list", path, err)
	}
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "multibox", "show list",
			fmt.Sprintf("%s contains no anilist urls", path), nil)
	}
	return ids, nil
}

// ReadMetadata loads the sidecar JSON that Build wrote, preserving its order.
func ReadMetadata(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "multibox", "metadata", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, services.Wrap(services.ErrValidation, "multibox", "metadata", path, err)
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrValidation, "multibox", "metadata",
			fmt.Sprintf("%s lists no shows", path), nil)
	}
	return entries, nil
}

// Build fetches metadata and posters for the given AniList IDs and writes
// posters.png and metadata.json into outDir. Entry order follows the input.
func (b *Builder) Build(ctx context.Context, ids []int, outDir string) (*Result, error) {
	media, err := b.resolveMedia(ctx, ids)
	if err != nil {
		return nil, err
	}

	posters := make([]image.Image, 0, len(ids))
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		m, ok := media[id]
		if !ok {
			return nil, services.Wrap(services.ErrNotFound, "multibox", "metadata",
				fmt.Sprintf("anilist id %d", id), nil)
		}
		posterPath, err := fetchPoster(ctx, b.httpClient, b.cfg.Paths.ImageCacheDir, m.ID, m.CoverImageURL)
		if err != nil {
			return nil, err
		}
		poster, err := decodePoster(posterPath)
		if err != nil {
			return nil, err
		}
		posters = append(posters, poster)
		entries = append(entries, entryFor(m, poster))
		b.logger.Debug("poster ready",
			logging.Int("anilist_id", m.ID),
			logging.String("title", m.Title()),
		)
	}

	atlas, cells := packAtlas(posters, b.cfg.Atlas.MaxWidth, b.cfg.Atlas.MaxHeight)
	for i := range entries {
		entries[i].AtlasX = cells[i].X
		entries[i].AtlasY = cells[i].Y
		entries[i].AtlasW = cells[i].Width
		entries[i].AtlasH = cells[i].Height
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "multibox", "output dir", outDir, err)
	}
	result := &Result{
		PosterPath:   filepath.Join(outDir, "posters.png"),
		MetadataPath: filepath.Join(outDir, "metadata.json"),
		Entries:      entries,
	}
	if err := writePNG(result.PosterPath, atlas); err != nil {
		return nil, err
	}
	if err := writeJSON(result.MetadataPath, entries); err != nil {
		return nil, err
	}

	b.logger.Info("atlas written",
		logging.Int("shows", len(entries)),
		logging.String("poster", result.PosterPath),
		logging.String("metadata", result.MetadataPath),
	)
	return result, nil
}

func (b *Builder) resolveMedia(ctx context.Context, ids []int) (map[int]*anilist.Media, error) {
	if b.cache == nil {
		return b.fetcher.FetchMedia(ctx, ids)
	}
	return b.cache.Resolve(ctx, ids, b.fetcher.FetchMedia)
}

var sourceTitleCaser = cases.Title(language.English)

// entryFor shapes a media record for the sidecar. AniList's SCREAMING_SNAKE
// source enum becomes display text ("LIGHT_NOVEL" reads "Light Novel").
func entryFor(m *anilist.Media, poster image.Image) Entry {
	bounds := poster.Bounds()
	aspect := 0.0
	if bounds.Dy() > 0 {
		aspect = float64(bounds.Dx()) / float64(bounds.Dy())
	}
	return Entry{
		ID:                  m.ID,
		Title:               m.Title(),
		TitleEnglish:        m.TitleEnglish,
		Studio:              strings.Join(m.Studios, ", "),
		Source:              sourceTitleCaser.String(strings.ToLower(strings.ReplaceAll(m.Source, "_", " "))),
		Episodes:            m.Episodes,
		OriginalAspectRatio: aspect,
	}
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "multibox", "write atlas", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return services.Wrap(services.ErrConfiguration, "multibox", "encode atlas", path, err)
	}
	return nil
}

func writeJSON(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "multibox", "encode metadata", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "multibox", "write metadata", path, err)
	}
	return nil
}
