// Package fetchcache implements the Fetch artifact's build behavior: a
// write-once, content-addressed download cache keyed by normalized URL.
package fetchcache

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/log"
	"github.com/forgecraft/recipeforge/internal/rferrors"
)

// Cache downloads Fetch artifacts into <build_folder>/fetch_cache/.
type Cache struct {
	client *http.Client
	logger log.Logger
}

// New returns a Cache whose downloads time out after timeout. A nil logger
// falls back to log.Default().
func New(timeout time.Duration, logger log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{client: newHTTPClient(timeout), logger: logger}
}

// newHTTPClient builds an HTTP client with conservative transport timeouts,
// matching the defensive posture used elsewhere for outbound registry calls.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DisableCompression: true,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Build implements the Fetch artifact's build step: it ensures
// f.BuildPath(buildFolder) exists, downloading the URL only on a cache miss
// or when override is set.
func (c *Cache) Build(ctx context.Context, f *artifact.Fetch, buildFolder string, override bool) error {
	cachePath := f.BuildPath(buildFolder)

	if !override {
		if info, err := os.Stat(cachePath); err == nil && info.Size() > 0 {
			c.logger.ForArtifact(f.ID()).Info("fetch cache hit", "path", cachePath)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return rferrors.Wrap(rferrors.FetchFailed, f.ID(), "cannot create fetch_cache directory", err)
	}

	if err := c.download(ctx, f.URL, cachePath); err != nil {
		os.Remove(cachePath)
		return rferrors.Wrap(rferrors.FetchFailed, f.ID(), "download failed for "+f.URL, err)
	}

	return nil
}

func (c *Cache) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return err
	}

	c.logger.Info("fetched", "url", url, "size", humanize.Bytes(uint64(n)), "path", dest)
	return nil
}
