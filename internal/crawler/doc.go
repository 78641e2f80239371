// Package crawler holds the domain types, interfaces, error taxonomy and
// retry policy shared by the court ruling crawler: fetchers, parsers, the
// PDF downloader, record stores, the per-ruling worker and the page
// dispatcher all speak in terms of this package.
package crawler
