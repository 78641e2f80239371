// Package storage selects the record store backing a crawl run.
package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
	"github.com/JakeFAU/court-ruling-crawler/internal/storage/memory"
	"github.com/JakeFAU/court-ruling-crawler/internal/storage/mongo"
	"github.com/JakeFAU/court-ruling-crawler/internal/storage/postgres"
)

// Supported drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures the record store settings.
type Config struct {
	Driver     string
	URI        string
	Database   string
	Collection string
	Table      string
}

// Open returns the record store named by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (crawler.RecordStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMongo:
		store, err := mongo.NewRulingStore(ctx, mongo.Config{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return store, nil
	case DriverPostgres:
		store, err := postgres.NewRulingStore(ctx, postgres.Config{DSN: cfg.URI, Table: cfg.Table})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case DriverMemory:
		return memory.NewRulingStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
