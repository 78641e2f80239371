// Package postgres provides a Postgres-backed ruling record store.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for ruling rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RulingStore writes one row per ruling keyed by case number. The metadata
// document is kept in a json column so label order survives.
type RulingStore struct {
	pool  execCloser
	table string
}

var _ crawler.RecordStore = (*RulingStore)(nil)

// NewRulingStore creates a Postgres-backed RulingStore and its table.
func NewRulingStore(ctx context.Context, cfg Config) (*RulingStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.uri is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewRulingStoreWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewRulingStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRulingStoreWithPool(pool execCloser, table string) (*RulingStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "rulings"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RulingStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the ruling table when it does not exist yet.
func (s *RulingStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	case_number  TEXT PRIMARY KEY,
	document     JSON NOT NULL,
	pdf_link     TEXT NOT NULL,
	pdf_location TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// InsertIfAbsent inserts the ruling row; an existing case number is left as is.
func (s *RulingStore) InsertIfAbsent(ctx context.Context, ruling crawler.Ruling) (crawler.StoreResult, error) {
	if s == nil || s.pool == nil {
		return crawler.StoreFailed, fmt.Errorf("ruling store is not configured")
	}
	if ruling.CaseNumber == "" {
		return crawler.StoreFailed, crawler.ErrCaseNumberMissing
	}
	doc, err := MarshalDocument(ruling)
	if err != nil {
		return crawler.StoreFailed, err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	case_number,
	document,
	pdf_link,
	pdf_location,
	created_at,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6
) ON CONFLICT (case_number) DO NOTHING`, s.table)

	tag, err := s.pool.Exec(ctx, query,
		ruling.CaseNumber,
		doc,
		ruling.PDFLink,
		ruling.PDFPath,
		ruling.CreatedAt,
		ruling.UpdatedAt,
	)
	if err != nil {
		return crawler.StoreFailed, fmt.Errorf("insert ruling %s: %w", ruling.CaseNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return crawler.StoreDuplicate, nil
	}
	return crawler.StoreInserted, nil
}

// Close releases the underlying pool resources.
func (s *RulingStore) Close(_ context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// MarshalDocument encodes the ruling document as a JSON object whose keys
// keep their table order.
func MarshalDocument(ruling crawler.Ruling) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range ruling.Document() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Label)
		if err != nil {
			return nil, fmt.Errorf("marshal label %q: %w", f.Label, err)
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", f.Label, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
