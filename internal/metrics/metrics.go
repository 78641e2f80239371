// Package metrics exposes Prometheus collectors for the ruling crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerFetchesTotal        *prometheus.CounterVec
	crawlerFetchRetriesTotal   prometheus.Counter
	crawlerPagesTotal          *prometheus.CounterVec
	crawlerRulingsTotal        *prometheus.CounterVec
	crawlerDownloadsTotal      *prometheus.CounterVec
	crawlerDownloadBytesTotal  prometheus.Counter
	crawlerActiveRulings       prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_fetches_total",
				Help: "Total number of page fetch attempts, labeled by status class.",
			},
			[]string{"status"},
		)

		crawlerFetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_fetch_retries_total",
				Help: "Total number of fetches retried after the server reported itself unavailable.",
			},
		)

		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_listing_pages_total",
				Help: "Total number of listing pages processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlerRulingsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_rulings_total",
				Help: "Total number of rulings handed to the record store, labeled by result.",
			},
			[]string{"result"},
		)

		crawlerDownloadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pdf_downloads_total",
				Help: "Total number of PDF downloads, labeled by result.",
			},
			[]string{"result"},
		)

		crawlerDownloadBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_pdf_bytes_total",
				Help: "Total number of PDF bytes written to disk.",
			},
		)

		crawlerActiveRulings = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_rulings",
				Help: "Number of ruling tasks currently in flight.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// StatusClass buckets an HTTP status code ("2xx", "5xx", ...). Zero means the
// request never produced a response.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetch counts one fetch attempt that ended with the given status.
func ObserveFetch(status int) {
	Init()
	crawlerFetchesTotal.WithLabelValues(StatusClass(status)).Inc()
}

// ObserveFetchRetry counts one retry of an unavailable page.
func ObserveFetchRetry() {
	Init()
	crawlerFetchRetriesTotal.Inc()
}

// ObservePage counts one processed listing page.
func ObservePage(failed bool) {
	Init()
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	crawlerPagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveRuling counts one record store result.
func ObserveRuling(result string) {
	Init()
	crawlerRulingsTotal.WithLabelValues(result).Inc()
}

// ObserveDownload counts one PDF download result and the bytes it wrote.
func ObserveDownload(result string, bytesWritten int64) {
	Init()
	crawlerDownloadsTotal.WithLabelValues(result).Inc()
	if bytesWritten > 0 {
		crawlerDownloadBytesTotal.Add(float64(bytesWritten))
	}
}

// IncActiveRulings increments the in-flight ruling gauge.
func IncActiveRulings() {
	Init()
	crawlerActiveRulings.Inc()
}

// DecActiveRulings decrements the in-flight ruling gauge.
func DecActiveRulings() {
	Init()
	crawlerActiveRulings.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
