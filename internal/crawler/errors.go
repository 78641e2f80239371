package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// Structural errors raised when an expected element is absent from a page.
var (
	ErrListingContainerMissing = errors.New("listing container not found")
	ErrMetadataTableMissing    = errors.New("metadata table not found")
	ErrPDFBlockMissing         = errors.New("pdf link block not found")
	ErrMalformedTable          = errors.New("metadata table has an unpaired cell")
	ErrCaseNumberMissing       = errors.New("case number not found in metadata table")
	ErrNoPDFLink               = errors.New("ruling has no pdf link")
	ErrDownloadExhausted       = errors.New("pdf download retries exhausted")
)

// StatusError reports an HTTP response whose status is not usable.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
