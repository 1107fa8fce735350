package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Tools names the external binaries the commands shell out to.
type Tools struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Paths contains directory and lock file configuration.
type Paths struct {
	LockFile      string `toml:"lock_file"`
	ImageCacheDir string `toml:"image_cache_dir"`
	CacheDBPath   string `toml:"cache_db_path"`
}

// Logging controls log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Encode holds default encoding parameters.
type Encode struct {
	TargetBitrateKbps     int     `toml:"target_bitrate_kbps"`
	BufferDurationSeconds float64 `toml:"buffer_duration_seconds"`
	HLSSegmentSeconds     float64 `toml:"hls_segment_seconds"`
	ProgressIdleSeconds   int     `toml:"progress_idle_seconds"`
}

// AniList configures the metadata API client.
type AniList struct {
	APIURL            string  `toml:"api_url"`
	BatchSize         int     `toml:"batch_size"`
	RateLimitSeconds  float64 `toml:"rate_limit_seconds"`
	RequestTimeoutSec int     `toml:"request_timeout_seconds"`
}

// Nyaa configures torrent search.
type Nyaa struct {
	RSSBaseURL           string   `toml:"rss_base_url"`
	BroadQuery           string   `toml:"broad_query"`
	SimilarityThreshold  int      `toml:"similarity_threshold"`
	QueryDelaySeconds    int      `toml:"query_delay_seconds"`
	RequestTimeoutSec    int      `toml:"request_timeout_seconds"`
	ResolutionPreference []string `toml:"resolution_preference"`
}

// Atlas configures poster atlas dimensions.
type Atlas struct {
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
}

// Config is the root configuration document.
type Config struct {
	Tools   Tools   `toml:"tools"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Encode  Encode  `toml:"encode"`
	AniList AniList `toml:"anilist"`
	Nyaa    Nyaa    `toml:"nyaa"`
	Atlas   Atlas   `toml:"atlas"`
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return "~/.config/animutools/config.toml"
}

// Load reads the config file at path (or the default location when path is
// empty), merging it over Default. It reports the resolved path and whether
// the file existed; a missing file is not an error.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultPath()
	}
	resolved, err := ExpandPath(resolved)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if normErr := cfg.normalize(); normErr != nil {
			return nil, resolved, false, normErr
		}
		return &cfg, resolved, false, nil
	case err != nil:
		return nil, resolved, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, true, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, resolved, true, err
	}
	return &cfg, resolved, true, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the cache directories the tools write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.ImageCacheDir,
		filepath.Dir(c.Paths.CacheDBPath),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.LockFile, err = ExpandPath(c.Paths.LockFile); err != nil {
		return err
	}
	if c.Paths.ImageCacheDir, err = ExpandPath(c.Paths.ImageCacheDir); err != nil {
		return err
	}
	if c.Paths.CacheDBPath, err = ExpandPath(c.Paths.CacheDBPath); err != nil {
		return err
	}
	return c.validate()
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Tools.FFmpegBinary) == "" {
		return errors.New("config: tools.ffmpeg_binary must not be empty")
	}
	if strings.TrimSpace(c.Tools.FFprobeBinary) == "" {
		return errors.New("config: tools.ffprobe_binary must not be empty")
	}
	if strings.TrimSpace(c.Paths.LockFile) == "" {
		return errors.New("config: paths.lock_file must not be empty")
	}
	if c.Encode.TargetBitrateKbps <= 0 {
		return errors.New("config: encode.target_bitrate_kbps must be positive")
	}
	if c.Encode.BufferDurationSeconds <= 0 {
		return errors.New("config: encode.buffer_duration_seconds must be positive")
	}
	if c.AniList.BatchSize <= 0 {
		return errors.New("config: anilist.batch_size must be positive")
	}
	if c.Nyaa.SimilarityThreshold <= 0 || c.Nyaa.SimilarityThreshold > 100 {
		return errors.New("config: nyaa.similarity_threshold must be in (0, 100]")
	}
	if c.Atlas.MaxWidth <= 0 || c.Atlas.MaxHeight <= 0 {
		return errors.New("config: atlas dimensions must be positive")
	}
	return nil
}

// ExpandPath resolves a leading ~ against the current user's home directory.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return "", fmt.Errorf("unsupported home-relative path %q", path)
}
