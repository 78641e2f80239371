// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
	"github.com/JakeFAU/court-ruling-crawler/internal/metrics"
)

const defaultTimeout = 60 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Retry     crawler.RetryConfig
}

// Fetcher implements crawler.Fetcher using the Colly collector. Responses
// carrying the retry status are requested again in a loop governed by the
// retry policy; every other failure is logged and returned.
type Fetcher struct {
	cfg           Config
	policy        *crawler.RetryPolicy
	baseCollector *colly.Collector
	logger        *zap.Logger
	sleep         func(context.Context, time.Duration) error
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := colly.NewCollector(colly.Async(false))
	// The retry loop re-requests the same URL.
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		policy:        crawler.NewRetryPolicy(cfg.Retry),
		baseCollector: c,
		logger:        logger,
		sleep:         crawler.Sleep,
	}
}

// Fetch executes a GET, retrying the unavailable status per the policy.
func (f *Fetcher) Fetch(ctx context.Context, url string) (crawler.Page, error) {
	for retries := 0; ; retries++ {
		page, err := f.fetchOnce(ctx, url)
		if err == nil {
			page.Attempts = retries + 1
			metrics.ObserveFetch(page.StatusCode)
			return page, nil
		}
		metrics.ObserveFetch(crawler.StatusCode(err))
		if !f.policy.ShouldRetry(err, retries) {
			f.logger.Error("fetch failed",
				zap.String("url", url),
				zap.Int("attempts", retries+1),
				zap.Error(err),
			)
			return crawler.Page{}, err
		}
		delay := f.policy.Backoff(retries)
		f.logger.Debug("server unavailable, retrying",
			zap.String("url", url),
			zap.Int("retry", retries+1),
			zap.Duration("backoff", delay),
		)
		metrics.ObserveFetchRetry()
		if err := f.sleep(ctx, delay); err != nil {
			f.logger.Error("fetch retry abandoned", zap.String("url", url), zap.Error(err))
			return crawler.Page{}, fmt.Errorf("fetch %s: %w", url, err)
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (crawler.Page, error) {
	var (
		result   crawler.Page
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	f.configureCollectorHooks(collector, url, time.Now(), &result, &fetchErr)
	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return crawler.Page{}, err
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	url string,
	start time.Time,
	result *crawler.Page,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		var headers http.Header
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		*result = crawler.Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = &crawler.StatusError{URL: url, StatusCode: r.StatusCode}
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
