package multibox

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"

	"github.com/hiinaspace/animutools/internal/services"
)

// fetchPoster downloads a cover image to cacheDir, returning the local path.
// Already-downloaded posters are reused.
func fetchPoster(ctx context.Context, client *http.Client, cacheDir string, mediaID int, coverURL string) (string, error) {
	if coverURL == "" {
		return "", services.Wrap(services.ErrNotFound, "multibox", "poster", fmt.Sprintf("media %d has no cover image", mediaID), nil)
	}
	path := filepath.Join(cacheDir, fmt.Sprintf("%d%s", mediaID, posterExt(coverURL)))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "multibox", "image cache", cacheDir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "multibox", "poster url", coverURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "multibox", "download poster", coverURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "multibox", "download poster",
			fmt.Sprintf("%s: status %d", coverURL, resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "multibox", "read poster", coverURL, err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "multibox", "write poster", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", services.Wrap(services.ErrConfiguration, "multibox", "write poster", path, err)
	}
	return path, nil
}

// posterExt derives the cache filename extension from the cover URL's path
// component, so a query string never leaks into the extension.
func posterExt(coverURL string) string {
	trimmed := coverURL
	if u, err := url.Parse(coverURL); err == nil {
		trimmed = u.Path
	} else if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(path.Ext(trimmed))
	if ext == "" {
		ext = ".png"
	}
	return ext
}

// decodePoster loads an image file, handling the webp covers AniList serves
// alongside the stdlib png/jpeg formats.
func decodePoster(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read poster %s: %w", path, err)
	}
	if isWebP(data) {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode webp poster %s: %w", path, err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode poster %s: %w", path, err)
	}
	return img, nil
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
