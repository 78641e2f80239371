package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves an HTML page and returns its body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// RecordStore persists rulings keyed by case number.
type RecordStore interface {
	InsertIfAbsent(ctx context.Context, ruling Ruling) (StoreResult, error)
	Close(ctx context.Context) error
}

// Downloader saves the PDF attached to a ruling.
type Downloader interface {
	Download(ctx context.Context, ruling Ruling) (DownloadResult, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces crawl session IDs.
type IDGenerator interface {
	NewID() (string, error)
}
