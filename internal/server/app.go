// Package server assembles the crawler's dependencies and runs a crawl.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/court-ruling-crawler/internal/clock/system"
	"github.com/JakeFAU/court-ruling-crawler/internal/config"
	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
	"github.com/JakeFAU/court-ruling-crawler/internal/dispatcher"
	"github.com/JakeFAU/court-ruling-crawler/internal/download"
	collyfetcher "github.com/JakeFAU/court-ruling-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/court-ruling-crawler/internal/id/uuid"
	"github.com/JakeFAU/court-ruling-crawler/internal/storage"
	"github.com/JakeFAU/court-ruling-crawler/internal/worker"
)

// App contains the application's dependencies.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	session  crawler.Session
	store    crawler.RecordStore
	dispatch *dispatcher.Dispatcher
	ops      *OpsServer
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := crawler.LoadLocation(cfg.Crawler.Timezone)
	if err != nil {
		return nil, err
	}
	session, err := crawler.NewSession(uuid.New(), system.New(loc), loc)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("session_id", session.ID))
	logger.Info("building application dependencies",
		zap.String("court", cfg.Source.Court),
		zap.String("year", cfg.Source.Year),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("created_at", session.CreatedAt),
	)
	checkPDFDir(cfg.PDF.Dir, logger)

	store, err := storage.Open(ctx, storage.Config{
		Driver:     cfg.Store.Driver,
		URI:        cfg.Store.URI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		Table:      cfg.Store.Table,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("record store init failed: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
		Retry:     cfg.RetryConfig(),
	}, logger.Named("fetcher"))
	downloader := download.New(download.Config{
		MaxRetries: cfg.PDFRetries(),
		RetryDelay: cfg.PDFRetryDelay(),
		ChunkSize:  cfg.PDF.ChunkSize,
		Timeout:    cfg.FetchTimeout(),
		UserAgent:  cfg.HTTP.UserAgent,
	}, nil, logger.Named("download"))
	w := worker.New(fetcher, store, downloader, worker.Config{
		Session: session,
		PDFDir:  cfg.PDF.Dir,
	}, logger)
	dispatch := dispatcher.New(fetcher, w, dispatcher.Config{
		BaseURL:     cfg.Source.BaseURL,
		Court:       cfg.Source.Court,
		Year:        cfg.Source.Year,
		Concurrency: cfg.Crawler.Concurrency,
	}, session.ID, logger)

	app := &App{
		cfg:      cfg,
		logger:   logger,
		session:  session,
		store:    store,
		dispatch: dispatch,
	}
	if cfg.Metrics.ListenAddr != "" {
		app.ops = NewOpsServer(logger.Named("ops"))
	}
	return app, nil
}

// Session returns the crawl session stamped at build time.
func (a *App) Session() crawler.Session {
	return a.session
}

// Run crawls the configured page range. SIGINT and SIGTERM cancel the crawl;
// individual ruling and page failures never fail the run.
func (a *App) Run(ctx context.Context) crawler.RunSummary {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if a.ops != nil {
		srv = &http.Server{
			Addr:              a.cfg.Metrics.ListenAddr,
			Handler:           a.ops.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("ops server started", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("ops server error", zap.Error(err))
			}
		}()
		a.ops.SetReady(true)
	}

	a.logger.Info("crawl started",
		zap.Int("start_page", a.cfg.Source.StartPage),
		zap.Int("end_page", a.cfg.Source.EndPage),
	)
	summary := a.dispatch.Run(ctx, a.cfg.Source.StartPage, a.cfg.Source.EndPage)
	rulings, succeeded := summary.Totals()
	a.logger.Info("crawl finished",
		zap.Int("pages", len(summary.Pages)),
		zap.Int("rulings", rulings),
		zap.Int("succeeded", succeeded),
	)

	if srv != nil {
		a.ops.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("ops server shutdown error", zap.Error(err))
		}
	}
	return summary
}

// Close gracefully shuts down the application.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("record store close failed: %w", err))
		}
	}
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func checkPDFDir(dir string, logger *zap.Logger) {
	if dir == "" {
		dir = "pdf"
	}
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		logger.Warn("pdf directory is not accessible; downloads will fail", zap.String("dir", dir), zap.Error(err))
	case !info.IsDir():
		logger.Warn("pdf directory path is not a directory; downloads will fail", zap.String("dir", dir))
	}
}
