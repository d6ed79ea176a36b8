package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/config"
)

// Loader fetches the raw surveillance CSV, preferring the on-disk cache and
// falling back to the remote source.
type Loader struct {
	url       string
	cachePath string
	client    *http.Client
	logger    *slog.Logger
}

// NewLoader creates a loader from the data configuration.
func NewLoader(cfg config.DataConfig, logger *slog.Logger) *Loader {
	return &Loader{
		url:       cfg.URL,
		cachePath: cfg.CacheFile,
		client:    &http.Client{Timeout: cfg.FetchTimeout},
		logger:    logger.With(slog.String("component", "loader")),
	}
}

// CachePath returns the location of the on-disk CSV cache.
func (l *Loader) CachePath() string {
	return l.cachePath
}

// Load returns the raw table. Without forceReload a readable cache file wins;
// otherwise the remote source is fetched and the cache rewritten. A failed
// fetch falls back to the cache only when the reload was not forced, so a
// forced refresh reports remote failures instead of masking them.
func (l *Loader) Load(ctx context.Context, forceReload bool) (*RawTable, error) {
	if !forceReload {
		if raw, err := l.readCache(); err == nil {
			l.logger.InfoContext(ctx, "loaded dataset from cache",
				slog.String("path", l.cachePath),
				slog.Int("records", len(raw.Records)))
			return raw, nil
		} else if !os.IsNotExist(err) {
			l.logger.WarnContext(ctx, "cache unreadable, refetching",
				slog.String("path", l.cachePath),
				slog.String("error", err.Error()))
		}
	}

	raw, err := l.fetch(ctx)
	if err != nil {
		if !forceReload {
			if cached, cerr := l.readCache(); cerr == nil {
				l.logger.WarnContext(ctx, "fetch failed, serving stale cache",
					slog.String("error", err.Error()))
				return cached, nil
			}
		}
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	if err := l.writeCache(raw); err != nil {
		// A stale cache is tolerable; a failed write must not fail the load.
		l.logger.WarnContext(ctx, "cache write failed",
			slog.String("path", l.cachePath),
			slog.String("error", err.Error()))
	}

	l.logger.InfoContext(ctx, "fetched dataset from remote",
		slog.String("url", l.url),
		slog.Int("records", len(raw.Records)))
	return raw, nil
}

func (l *Loader) fetch(ctx context.Context) (*RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, l.url)
	}

	return ParseCSV(resp.Body)
}

func (l *Loader) readCache() (*RawTable, error) {
	f, err := os.Open(l.cachePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// writeCache writes to a temp file in the cache directory and renames it
// into place, so readers never observe a half-written file.
func (l *Loader) writeCache(raw *RawTable) error {
	dir := filepath.Dir(l.cachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "tb_cache_*.csv")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(raw.Header); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache header: %w", err)
	}
	if err := w.WriteAll(raw.Records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache: %w", err)
	}

	if err := os.Rename(tmpName, l.cachePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// ParseCSV reads a CSV stream into a raw table. Short records are padded so
// downstream indexing is safe against ragged rows.
func ParseCSV(r io.Reader) (*RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv source")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec)
	}

	return &RawTable{Header: header, Records: records}, nil
}
