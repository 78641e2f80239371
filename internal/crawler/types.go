// Package crawler defines core types shared across subsystems.
package crawler

import (
	"net/http"
	"time"
)

// Persisted document keys added on top of the metadata table labels.
const (
	CaseNumberLabel = "Nomor"
	KeyPDFLink      = "PDF Link"
	KeyPDFLocation  = "PDF Location"
	KeyCreatedAt    = "created_at"
	KeyUpdatedAt    = "updated_at"
)

// Field is one label/value pair read from a ruling's metadata table.
type Field struct {
	Label string
	Value string
}

// Ruling is a single court decision as extracted from its detail page.
// It is built once by the detail parser and never mutated afterwards.
type Ruling struct {
	CaseNumber string
	Fields     []Field
	PDFLink    string
	PDFPath    string
	CreatedAt  string
	UpdatedAt  string
	DetailURL  string
}

// Field returns the value recorded for label and whether it was present.
func (r Ruling) Field(label string) (string, bool) {
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// Document flattens the ruling into the ordered key/value shape persisted by
// the record stores: table labels first, then link, location and timestamps.
func (r Ruling) Document() []Field {
	doc := make([]Field, 0, len(r.Fields)+4)
	doc = append(doc, r.Fields...)
	doc = append(doc,
		Field{Label: KeyPDFLink, Value: r.PDFLink},
		Field{Label: KeyPDFLocation, Value: r.PDFPath},
		Field{Label: KeyCreatedAt, Value: r.CreatedAt},
		Field{Label: KeyUpdatedAt, Value: r.UpdatedAt},
	)
	return doc
}

// ListingLink is a candidate detail page found on a listing page.
type ListingLink struct {
	Text string
	URL  string
}

// Page is the result returned by a Fetcher implementation.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Attempts   int
}

// StoreResult reports what InsertIfAbsent did with a ruling.
type StoreResult string

// Store outcomes.
const (
	StoreInserted  StoreResult = "inserted"
	StoreDuplicate StoreResult = "duplicate"
	StoreFailed    StoreResult = "failed"
)

// DownloadResult reports what the PDF downloader did for a ruling.
type DownloadResult string

// Download outcomes.
const (
	DownloadWritten DownloadResult = "downloaded"
	DownloadSkipped DownloadResult = "skipped"
	DownloadFailed  DownloadResult = "failed"
)

// RulingOutcome summarises one ruling task.
type RulingOutcome struct {
	DetailURL  string
	CaseNumber string
	Store      StoreResult
	Download   DownloadResult
	Err        error
}

// Succeeded reports whether the ruling was parsed and both the store and
// download steps finished without error.
func (o RulingOutcome) Succeeded() bool {
	return o.Err == nil && o.Store != StoreFailed && o.Download != DownloadFailed
}

// PageResult is the per-page summary observed by the page loop.
type PageResult struct {
	Page      int
	URL       string
	Rulings   int
	Succeeded int
	Failed    int
	Err       error
}

// RunSummary aggregates the results of every page in a run.
type RunSummary struct {
	SessionID string
	Pages     []PageResult
}

// Totals returns the number of rulings seen and succeeded across all pages.
func (s RunSummary) Totals() (rulings, succeeded int) {
	for _, p := range s.Pages {
		rulings += p.Rulings
		succeeded += p.Succeeded
	}
	return rulings, succeeded
}
