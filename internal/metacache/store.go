package metacache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hiinaspace/animutools/internal/anilist"
)

// Store is a SQLite-backed cache keyed by AniList media ID.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS media_cache (
    anilist_id INTEGER PRIMARY KEY,
    payload    TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
`

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached media for id, or found=false on a miss.
func (s *Store) Get(ctx context.Context, id int) (*anilist.Media, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM media_cache WHERE anilist_id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	var media anilist.Media
	if err := json.Unmarshal([]byte(payload), &media); err != nil {
		return nil, false, fmt.Errorf("decode cached media %d: %w", id, err)
	}
	return &media, true, nil
}

// GetMany returns every cached entry among ids; misses are simply absent.
func (s *Store) GetMany(ctx context.Context, ids []int) (map[int]*anilist.Media, error) {
	result := make(map[int]*anilist.Media, len(ids))
	for _, id := range ids {
		media, found, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			result[id] = media
		}
	}
	return result, nil
}

// Put stores or replaces the cached entry for media.
func (s *Store) Put(ctx context.Context, media *anilist.Media) error {
	if media == nil || media.ID <= 0 {
		return errors.New("metacache: media must have a positive id")
	}
	payload, err := json.Marshal(media)
	if err != nil {
		return fmt.Errorf("encode media %d: %w", media.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO media_cache (anilist_id, payload, fetched_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(anilist_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		media.ID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store media %d: %w", media.ID, err)
	}
	return nil
}

// Resolve returns metadata for ids, serving from the cache and fetching only
// the misses. Newly fetched entries are written back to the cache.
func (s *Store) Resolve(ctx context.Context, ids []int,
	fetch func(context.Context, []int) (map[int]*anilist.Media, error)) (map[int]*anilist.Media, error) {

	result, err := s.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []int
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, media := range fetched {
		if err := s.Put(ctx, media); err != nil {
			return nil, err
		}
		result[id] = media
	}
	return result, nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM media_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache: %w", err)
	}
	return count, nil
}

// Clear removes every cached entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM media_cache`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
