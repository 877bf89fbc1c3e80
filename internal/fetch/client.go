package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"gpworkforce/internal/config"
	apperrors "gpworkforce/internal/errors"
)

// Client downloads upstream source files with a shared rate limiter so a
// batch run never hammers NHS Digital or ONS.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	skipCached bool
	logger     *slog.Logger
}

// NewClient creates a download client from fetch configuration.
func NewClient(cfg config.FetchConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		userAgent:  cfg.UserAgent,
		skipCached: cfg.SkipIfCached,
		logger:     logger,
	}
}

// Get performs a rate-limited GET and returns the response body. The caller
// owns the returned ReadCloser.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewNetworkError("rate limiter interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("invalid request for %s", url), err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("download failed for %s", url), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("bad status for %s: %s", url, resp.Status), nil)
	}

	return resp.Body, nil
}

// DownloadFile downloads a URL to dest, skipping the fetch when the file is
// already cached on disk.
func (c *Client) DownloadFile(ctx context.Context, url, dest string) error {
	if c.skipCached {
		if _, err := os.Stat(dest); err == nil {
			c.logger.InfoContext(ctx, "using cached file",
				slog.String("file", filepath.Base(dest)))
			return nil
		}
	}

	c.logger.InfoContext(ctx, "downloading file",
		slog.String("url", url),
		slog.String("destination", dest))

	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create directory for %s", dest), err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create file %s", dest), err)
	}
	defer out.Close()

	written, err := io.Copy(out, body)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write file %s", dest), err)
	}

	c.logger.InfoContext(ctx, "file downloaded",
		slog.String("file", filepath.Base(dest)),
		slog.Int64("size_bytes", written))

	return nil
}

// DownloadFirst tries each URL in order and downloads the first one that
// succeeds. Returns the URL that worked.
func (c *Client) DownloadFirst(ctx context.Context, urls []string, dest string) (string, error) {
	if c.skipCached {
		if _, err := os.Stat(dest); err == nil {
			c.logger.InfoContext(ctx, "using cached file",
				slog.String("file", filepath.Base(dest)))
			return "", nil
		}
	}

	var lastErr error
	for _, url := range urls {
		if err := c.DownloadFile(ctx, url, dest); err != nil {
			c.logger.WarnContext(ctx, "source URL failed, trying next",
				slog.String("url", url),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		return url, nil
	}

	if lastErr == nil {
		lastErr = apperrors.NewNetworkError("no source URLs configured", nil)
	}
	return "", apperrors.NewNetworkError("all source URLs failed", lastErr)
}
