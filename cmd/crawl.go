// Package cmd defines and implements the CLI commands for the ruling crawler.
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/court-ruling-crawler/internal/server"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls a page range of one court and year",
		Long: `Fetches listing pages start..end in order. Every ruling on a page is
fetched, parsed, stored unless its case number is already known, and its
PDF is saved under the pdf directory unless the file already exists.
Failed rulings and pages are logged and skipped; the command still exits 0.`,

		RunE: runCrawlCommand,
	}

	f := cmd.Flags()
	f.String("court", "pa-surabaya", "court identifier, e.g. pa-surabaya")
	f.String("year", "2023", "ruling year")
	f.Int("start-page", 1, "first listing page (inclusive)")
	f.Int("end-page", 9, "last listing page (inclusive)")
	f.Int("concurrency", 4, "rulings processed at once per page")
	f.String("pdf-dir", "pdf", "directory receiving the PDFs (must exist)")
	f.String("store-driver", "mongo", "record store: mongo, postgres or memory")
	f.String("store-uri", "mongodb://localhost:27017/", "record store connection URI")
	f.String("database", "ma_v3", "mongo database name")
	f.String("collection", "", "mongo collection name (defaults to the court)")
	f.String("metrics-addr", "", "serve /healthz, /readyz and /metrics on this address")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	rt, err := resolveRuntime(cmd.Context())
	if err != nil {
		return err
	}

	app, err := server.Build(cmd.Context(), rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := app.Close(closeCtx); cerr != nil {
			rt.logger.Warn("failed to close application", zap.Error(cerr))
		}
	}()

	app.Run(cmd.Context())
	rt.logger.Info("crawl command finished")
	return nil
}
