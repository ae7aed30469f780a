package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"PojClient/internal/config"
	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/pkg/decompressor"
	"PojClient/pkg/utils"

	"golang.org/x/sync/semaphore"
)

func NewClient(cfg config.PojClientConfig) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
		// Decoding is handled in body() so zstd can be advertised too.
		DisableCompression: true,
	}

	return &Client{
		HttpClient: &http.Client{Transport: transport},
		Timeout:    cfg.RequestTimeout,
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, errs.Network(url, err)
	}
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, errs.Network(url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		utils.CloseStreamSafe(resp.Body)
		cancel()
		return nil, nil, errs.Network(url, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return resp, cancel, nil
}

// body unwraps the content encoding the server picked.
func body(resp *http.Response) (io.ReadCloser, error) {
	return decompressor.Wrap(resp.Header.Get("Content-Encoding"), resp.Body)
}

// Download writes the body at url to destPath, replacing whatever was there.
// The file only appears at destPath once the body was fully received.
func (c *Client) Download(ctx context.Context, url, destPath string) (int64, error) {
	resp, cancel, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer utils.CloseStreamSafe(resp.Body)

	content, err := body(resp)
	if err != nil {
		return 0, errs.Network(url, err)
	}
	defer utils.CloseStreamSafe(content)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, errs.IO(destPath, err)
	}

	// Each call writes its own part file, so concurrent downloads of the
	// same destination never share a partially written file.
	file, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.part")
	if err != nil {
		return 0, errs.IO(destPath, err)
	}
	partPath := file.Name()

	written, err := io.Copy(file, content)
	cerr := file.Close()
	if err != nil {
		os.Remove(partPath)
		// A body cut short is a transport problem, not a local one.
		return written, errs.Network(url, err)
	}
	if cerr != nil {
		os.Remove(partPath)
		return written, errs.IO(partPath, cerr)
	}
	if err := os.Chmod(partPath, 0o644); err != nil {
		os.Remove(partPath)
		return written, errs.IO(partPath, err)
	}
	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return written, errs.IO(destPath, err)
	}

	logging.GlobalLogger.Debugf("Downloaded %s -> %s (%d bytes)", url, destPath, written)
	return written, nil
}

// FetchBytes returns the whole body at url.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, cancel, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer utils.CloseStreamSafe(resp.Body)

	content, err := body(resp)
	if err != nil {
		return nil, errs.Network(url, err)
	}
	defer utils.CloseStreamSafe(content)

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, errs.Network(url, err)
	}
	return data, nil
}

func NewPool(width int) *Pool {
	if width < 1 {
		width = 1
	}
	logging.GlobalLogger.Debugf("Initializing download pool with %d permits", width)
	return &Pool{Width: width, sem: semaphore.NewWeighted(int64(width))}
}

// Do runs fn while holding one permit.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

var DefaultPool = NewPool(config.Config.AssetConcurrency)
