// Package download saves ruling PDFs to the local filesystem.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
	"github.com/JakeFAU/court-ruling-crawler/internal/metrics"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Second
	defaultChunkSize  = 1024
	defaultTimeout    = 60 * time.Second
)

// Config controls download behavior.
type Config struct {
	// MaxRetries is the number of extra attempts after a non-200 response.
	// Negative disables retries.
	MaxRetries int
	RetryDelay time.Duration
	ChunkSize  int
	Timeout    time.Duration
	UserAgent  string
}

// Downloader implements crawler.Downloader over net/http.
type Downloader struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	sleep  func(context.Context, time.Duration) error
}

var _ crawler.Downloader = (*Downloader)(nil)

// New builds a Downloader. A nil client gets one with cfg.Timeout.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Downloader{
		cfg:    cfg,
		client: client,
		logger: logger,
		sleep:  crawler.Sleep,
	}
}

// Download writes the ruling's PDF to ruling.PDFPath. An existing file is
// left untouched and reported as skipped without touching the network.
func (d *Downloader) Download(ctx context.Context, ruling crawler.Ruling) (crawler.DownloadResult, error) {
	logger := d.logger.With(zap.String("case_number", ruling.CaseNumber), zap.String("path", ruling.PDFPath))

	if exists(ruling.PDFPath) {
		logger.Info("pdf already present, skipping")
		metrics.ObserveDownload(string(crawler.DownloadSkipped), 0)
		return crawler.DownloadSkipped, nil
	}
	if ruling.PDFLink == "" {
		logger.Warn("ruling has no pdf link")
		metrics.ObserveDownload(string(crawler.DownloadFailed), 0)
		return crawler.DownloadFailed, fmt.Errorf("%s: %w", ruling.CaseNumber, crawler.ErrNoPDFLink)
	}

	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := d.sleep(ctx, d.cfg.RetryDelay); err != nil {
				metrics.ObserveDownload(string(crawler.DownloadFailed), 0)
				return crawler.DownloadFailed, fmt.Errorf("download %s: %w", ruling.PDFLink, err)
			}
		}
		result, written, err := d.attempt(ctx, ruling)
		var statusErr *crawler.StatusError
		if errors.As(err, &statusErr) {
			logger.Warn("pdf download returned unexpected status",
				zap.String("url", ruling.PDFLink),
				zap.Int("status", statusErr.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			logger.Error("pdf download failed", zap.String("url", ruling.PDFLink), zap.Error(err))
			metrics.ObserveDownload(string(crawler.DownloadFailed), 0)
			return crawler.DownloadFailed, err
		}
		if result == crawler.DownloadSkipped {
			logger.Info("pdf written concurrently, skipping")
		} else {
			logger.Info("pdf downloaded", zap.Int64("bytes", written))
		}
		metrics.ObserveDownload(string(result), written)
		return result, nil
	}

	metrics.ObserveDownload(string(crawler.DownloadFailed), 0)
	return crawler.DownloadFailed, fmt.Errorf("%s after %d attempts: %w",
		ruling.PDFLink, d.cfg.MaxRetries+1, crawler.ErrDownloadExhausted)
}

// attempt performs one GET. A non-200 answer is returned as *crawler.StatusError.
func (d *Downloader) attempt(ctx context.Context, ruling crawler.Ruling) (crawler.DownloadResult, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ruling.PDFLink, nil)
	if err != nil {
		return crawler.DownloadFailed, 0, fmt.Errorf("build request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return crawler.DownloadFailed, 0, fmt.Errorf("get %s: %w", ruling.PDFLink, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return crawler.DownloadFailed, 0, &crawler.StatusError{URL: ruling.PDFLink, StatusCode: resp.StatusCode}
	}

	f, err := os.OpenFile(ruling.PDFPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return crawler.DownloadSkipped, 0, nil
		}
		return crawler.DownloadFailed, 0, fmt.Errorf("create %s: %w", ruling.PDFPath, err)
	}
	written, err := copyChunks(f, resp.Body, d.cfg.ChunkSize)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(ruling.PDFPath)
		return crawler.DownloadFailed, 0, fmt.Errorf("write %s: %w", ruling.PDFPath, err)
	}
	return crawler.DownloadWritten, written, nil
}

// copyChunks copies src to dst through a buffer of exactly size bytes.
func copyChunks(dst io.Writer, src io.Reader, size int) (int64, error) {
	buf := make([]byte, size)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			total += int64(w)
			if err != nil {
				return total, err
			}
			if w != n {
				return total, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
