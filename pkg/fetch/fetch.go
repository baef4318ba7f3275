// Package fetch makes remote EAD documents available as local files.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads remote documents into CacheDir. A URL already fetched is
// served from the cache.
type Fetcher struct {
	CacheDir string
	Client   Doer
	Logger   *slog.Logger
}

// New returns a fetcher caching into cacheDir.
func New(cacheDir string, client Doer, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{CacheDir: cacheDir, Client: client, Logger: logger}
}

// IsRemote reports whether uri is an http or https URL.
func IsRemote(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return (s == "http" || s == "https") && u.Host != ""
}

// Local returns a local path for uri. Local paths are returned unchanged.
func (f *Fetcher) Local(ctx context.Context, uri string) (string, error) {
	if !IsRemote(uri) {
		return uri, nil
	}
	if err := os.MkdirAll(f.CacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create fetch cache: %w", err)
	}

	cachePath := filepath.Join(f.CacheDir, cacheKey(uri)+".xml")
	if info, err := os.Stat(cachePath); err == nil && info.Size() > 0 {
		f.Logger.Debug("document served from cache", "url", uri, "path", cachePath)
		return cachePath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", uri, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: %s", uri, resp.Status)
	}

	tmp, err := os.CreateTemp(f.CacheDir, "fetch-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to download %s: %w", uri, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return "", fmt.Errorf("failed to cache %s: %w", uri, err)
	}
	f.Logger.Info("document fetched", "url", uri, "path", cachePath)
	return cachePath, nil
}

func cacheKey(uri string) string {
	hash := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(hash[:])
}
