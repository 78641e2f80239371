package crawler

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ListingURL builds the directory listing URL for a court, year and page.
func ListingURL(baseURL, court, year string, page int) string {
	base := strings.TrimRight(baseURL, "/")
	return fmt.Sprintf(
		"%s/direktori/index/pengadilan/%s/tahunjenis/putus/tahun/%s/page/%d.html",
		base, url.PathEscape(court), url.PathEscape(year), page,
	)
}

// ResolveURL resolves href against base. Absolute hrefs are returned as-is.
func ResolveURL(base, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if ref.IsAbs() || base == "" {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// PDFPath derives the local file for a case number. Only "/" is replaced, so
// "1/A" and "1_A" share a file.
func PDFPath(dir, caseNumber string) string {
	if dir == "" {
		dir = "pdf"
	}
	return filepath.Join(dir, strings.ReplaceAll(caseNumber, "/", "_")+".pdf")
}
