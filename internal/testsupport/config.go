package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/hiinaspace/animutools/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LockFile = filepath.Join(base, "locks", "encode.lock")
	cfgVal.Paths.ImageCacheDir = filepath.Join(base, "images")
	cfgVal.Paths.CacheDBPath = filepath.Join(base, "cache", "metadata.db")

	cfg := &cfgVal
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithFFmpegBinary overrides the ffmpeg binary on the test config.
func WithFFmpegBinary(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Tools.FFmpegBinary = path
	}
}
