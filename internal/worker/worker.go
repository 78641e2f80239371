// Package worker runs the per-ruling pipeline: detail fetch, parse, then the
// PDF download and the record insert side by side.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
	"github.com/JakeFAU/court-ruling-crawler/internal/metrics"
	"github.com/JakeFAU/court-ruling-crawler/internal/parser"
)

// Config controls Worker behavior.
type Config struct {
	Session crawler.Session
	PDFDir  string
}

// Worker processes one listing link at a time. It is safe for concurrent use.
type Worker struct {
	fetcher    crawler.Fetcher
	store      crawler.RecordStore
	downloader crawler.Downloader
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Worker.
func New(
	fetcher crawler.Fetcher,
	store crawler.RecordStore,
	downloader crawler.Downloader,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		fetcher:    fetcher,
		store:      store,
		downloader: downloader,
		cfg:        cfg,
		logger:     logger.Named("worker"),
	}
}

// Process handles a single ruling. Failures are logged and reported in the
// outcome; they never propagate to the caller.
func (w *Worker) Process(ctx context.Context, link crawler.ListingLink) crawler.RulingOutcome {
	metrics.IncActiveRulings()
	defer metrics.DecActiveRulings()

	outcome := crawler.RulingOutcome{DetailURL: link.URL}
	logger := w.logger.With(zap.String("url", link.URL))

	page, err := w.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		outcome.Err = fmt.Errorf("fetch detail: %w", err)
		return outcome
	}
	ruling, err := parser.ParseDetail(page.Body, link.URL, parser.DetailOptions{
		Session: w.cfg.Session,
		PDFDir:  w.cfg.PDFDir,
	})
	if err != nil {
		logger.Error("parse detail failed", zap.Error(err))
		outcome.Err = fmt.Errorf("parse detail: %w", err)
		return outcome
	}
	outcome.CaseNumber = ruling.CaseNumber
	logger = logger.With(zap.String("case_number", ruling.CaseNumber))

	var (
		g           errgroup.Group
		downloadErr error
		storeErr    error
	)
	// Neither step cancels the other.
	g.Go(func() error {
		outcome.Download, downloadErr = w.downloader.Download(ctx, ruling)
		if downloadErr != nil {
			logger.Error("pdf download failed", zap.Error(downloadErr))
		}
		return nil
	})
	g.Go(func() error {
		outcome.Store, storeErr = w.store.InsertIfAbsent(ctx, ruling)
		metrics.ObserveRuling(string(outcome.Store))
		switch {
		case storeErr != nil:
			logger.Error("store ruling failed", zap.Error(storeErr))
		case outcome.Store == crawler.StoreDuplicate:
			logger.Info("ruling already stored, skipping")
		default:
			logger.Info("ruling stored")
		}
		return nil
	})
	_ = g.Wait()

	if downloadErr != nil || storeErr != nil {
		outcome.Err = errors.Join(downloadErr, storeErr)
	}
	return outcome
}
