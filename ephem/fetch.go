package ephem

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/signalsfoundry/almanac/internal/cache"
	"github.com/signalsfoundry/almanac/internal/logging"
)

// Fetcher downloads ephemeris data documents over HTTP into a local cache
// directory, tracking ETags in a BoltDB index so unchanged files are not
// re-downloaded.
type Fetcher struct {
	client *http.Client
	dir    string
	index  *cache.Index
	log    logging.Logger

	requests  atomic.Int64
	cacheHits atomic.Int64
}

// NewFetcher builds a fetcher writing into dir and recording downloads in
// index. A nil logger drops all logs.
func NewFetcher(dir string, index *cache.Index, log logging.Logger) *Fetcher {
	if log == nil {
		log = logging.Noop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: 2 * time.Minute},
		dir:    dir,
		index:  index,
		log:    log,
	}
}

// Fetch retrieves url into the cache directory and returns the local path.
// A cached copy is revalidated with If-None-Match and reused on 304.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.requests.Add(1)
	prev, err := f.index.Get(url)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %q: %w", url, err)
	}
	if prev != nil && prev.ETag != "" {
		if _, statErr := os.Stat(prev.Path); statErr == nil {
			req.Header.Set("If-None-Match", prev.ETag)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && prev != nil:
		f.cacheHits.Add(1)
		f.log.Debug(ctx, "ephemeris document unchanged", logging.String("url", url))
		return prev.Path, nil
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("fetch %q: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	path := filepath.Join(f.dir, filepath.Base(req.URL.Path))
	tmp, err := os.CreateTemp(f.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize %q: %w", path, err)
	}

	entry := cache.Entry{
		URL:       url,
		Path:      path,
		ETag:      resp.Header.Get("Etag"),
		FetchedAt: time.Now().UTC(),
		Size:      size,
	}
	if err := f.index.Put(entry); err != nil {
		return "", err
	}
	f.log.Info(ctx, "fetched ephemeris document",
		logging.String("url", url),
		logging.String("path", path),
		logging.Int("bytes", int(size)),
	)
	return path, nil
}

// Stats reports how many fetches were issued and how many were answered by
// the local cache after revalidation.
func (f *Fetcher) Stats() (requests, cacheHits int64) {
	return f.requests.Load(), f.cacheHits.Load()
}
