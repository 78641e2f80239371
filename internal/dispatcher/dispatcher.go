// Package dispatcher walks the listing pages of a court directory and fans
// the rulings on each page out to workers.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
	"github.com/JakeFAU/court-ruling-crawler/internal/metrics"
	"github.com/JakeFAU/court-ruling-crawler/internal/parser"
)

const defaultConcurrency = 4

// RulingProcessor handles one detail link. *worker.Worker satisfies it.
type RulingProcessor interface {
	Process(ctx context.Context, link crawler.ListingLink) crawler.RulingOutcome
}

// Config selects the directory slice to crawl.
type Config struct {
	BaseURL     string
	Court       string
	Year        string
	Concurrency int
}

// Dispatcher processes listing pages one after another, running at most
// Concurrency rulings at a time within a page.
type Dispatcher struct {
	fetcher   crawler.Fetcher
	processor RulingProcessor
	cfg       Config
	sessionID string
	logger    *zap.Logger
}

// New creates a Dispatcher.
func New(fetcher crawler.Fetcher, processor RulingProcessor, cfg Config, sessionID string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Dispatcher{
		fetcher:   fetcher,
		processor: processor,
		cfg:       cfg,
		sessionID: sessionID,
		logger:    logger.Named("dispatcher").With(zap.String("session_id", sessionID)),
	}
}

// Run processes pages start..end inclusive in order. A failed page is logged
// and counted; the loop only stops early when ctx ends.
func (d *Dispatcher) Run(ctx context.Context, start, end int) crawler.RunSummary {
	summary := crawler.RunSummary{SessionID: d.sessionID}
	for page := start; page <= end; page++ {
		if ctx.Err() != nil {
			d.logger.Warn("crawl interrupted", zap.Int("page", page), zap.Error(ctx.Err()))
			break
		}
		d.logger.Info("crawling page", zap.Int("page", page))
		result := d.RunPage(ctx, page)
		summary.Pages = append(summary.Pages, result)
		d.logger.Info("page done",
			zap.Int("page", page),
			zap.Int("rulings", result.Rulings),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
	}
	return summary
}

// RunPage fetches one listing page and processes every ruling link on it.
// Listing failures yield a result with zero rulings and Err set.
func (d *Dispatcher) RunPage(ctx context.Context, page int) crawler.PageResult {
	url := crawler.ListingURL(d.cfg.BaseURL, d.cfg.Court, d.cfg.Year, page)
	result := crawler.PageResult{Page: page, URL: url}
	logger := d.logger.With(zap.Int("page", page), zap.String("url", url))

	listing, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		result.Err = fmt.Errorf("fetch listing page %d: %w", page, err)
		metrics.ObservePage(true)
		return result
	}
	links, err := parser.ParseListing(listing.Body, url)
	if err != nil {
		logger.Error("parse listing failed", zap.Error(err))
		result.Err = fmt.Errorf("parse listing page %d: %w", page, err)
		metrics.ObservePage(true)
		return result
	}
	logger.Debug("listing parsed", zap.Int("links", len(links)))

	sem := semaphore.NewWeighted(int64(d.cfg.Concurrency))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, link := range links {
		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Warn("stopped scheduling rulings", zap.Error(err))
			break
		}
		wg.Add(1)
		go func(link crawler.ListingLink) {
			defer wg.Done()
			defer sem.Release(1)
			outcome := d.processor.Process(ctx, link)
			mu.Lock()
			defer mu.Unlock()
			result.Rulings++
			if outcome.Succeeded() {
				result.Succeeded++
			} else {
				result.Failed++
			}
		}(link)
	}
	wg.Wait()
	metrics.ObservePage(false)
	return result
}
