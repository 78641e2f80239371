package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

func noSleep(context.Context, time.Duration) error { return nil }

func pdfServer(t *testing.T, status int, body []byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRuling(dir, link string) crawler.Ruling {
	return crawler.Ruling{
		CaseNumber: "12/Pdt.G/2023/PA.Sby",
		PDFLink:    link,
		PDFPath:    crawler.PDFPath(dir, "12/Pdt.G/2023/PA.Sby"),
	}
}

func TestDownloadWritesFile(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte("%PDF-1.4 "), 500)
	var hits atomic.Int32
	srv := pdfServer(t, http.StatusOK, body, &hits)
	dir := t.TempDir()

	d := New(Config{}, srv.Client(), zap.NewNop())
	ruling := testRuling(dir, srv.URL+"/doc.pdf")
	result, err := d.Download(context.Background(), ruling)
	require.NoError(t, err)
	assert.Equal(t, crawler.DownloadWritten, result)

	got, err := os.ReadFile(ruling.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, filepath.Join(dir, "12_Pdt.G_2023_PA.Sby.pdf"), ruling.PDFPath)
}

func TestDownloadIsIdempotent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pdfServer(t, http.StatusOK, []byte("%PDF"), &hits)
	dir := t.TempDir()

	d := New(Config{}, srv.Client(), zap.NewNop())
	ruling := testRuling(dir, srv.URL+"/doc.pdf")

	first, err := d.Download(context.Background(), ruling)
	require.NoError(t, err)
	second, err := d.Download(context.Background(), ruling)
	require.NoError(t, err)

	assert.Equal(t, crawler.DownloadWritten, first)
	assert.Equal(t, crawler.DownloadSkipped, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadExistingFileSkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pdfServer(t, http.StatusOK, []byte("new"), &hits)
	dir := t.TempDir()
	ruling := testRuling(dir, srv.URL+"/doc.pdf")
	require.NoError(t, os.WriteFile(ruling.PDFPath, []byte("old"), 0o600))

	result, err := New(Config{}, srv.Client(), nil).Download(context.Background(), ruling)
	require.NoError(t, err)
	assert.Equal(t, crawler.DownloadSkipped, result)
	assert.Zero(t, hits.Load())

	got, err := os.ReadFile(ruling.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

func TestDownloadRetryBound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pdfServer(t, http.StatusInternalServerError, nil, &hits)
	dir := t.TempDir()

	core, logs := observer.New(zapcore.WarnLevel)
	d := New(Config{MaxRetries: 3}, srv.Client(), zap.New(core))
	var sleeps []time.Duration
	d.sleep = func(_ context.Context, delay time.Duration) error {
		sleeps = append(sleeps, delay)
		return nil
	}

	ruling := testRuling(dir, srv.URL+"/doc.pdf")
	result, err := d.Download(context.Background(), ruling)
	require.ErrorIs(t, err, crawler.ErrDownloadExhausted)
	assert.Equal(t, crawler.DownloadFailed, result)
	assert.Equal(t, int32(4), hits.Load())
	assert.Equal(t, []time.Duration{defaultRetryDelay, defaultRetryDelay, defaultRetryDelay}, sleeps)
	assert.Equal(t, 4, logs.FilterMessage("pdf download returned unexpected status").Len())
	assert.NoFileExists(t, ruling.PDFPath)
}

func TestDownloadRecoversAfterTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("%PDF"))
	}))
	t.Cleanup(srv.Close)

	d := New(Config{}, srv.Client(), nil)
	d.sleep = noSleep
	ruling := testRuling(t.TempDir(), srv.URL)
	result, err := d.Download(context.Background(), ruling)
	require.NoError(t, err)
	assert.Equal(t, crawler.DownloadWritten, result)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDownloadNoLink(t *testing.T) {
	t.Parallel()

	d := New(Config{}, nil, nil)
	result, err := d.Download(context.Background(), testRuling(t.TempDir(), ""))
	require.ErrorIs(t, err, crawler.ErrNoPDFLink)
	assert.Equal(t, crawler.DownloadFailed, result)
}

func TestDownloadMissingDirectory(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := pdfServer(t, http.StatusOK, []byte("%PDF"), &hits)
	dir := filepath.Join(t.TempDir(), "absent")

	d := New(Config{}, srv.Client(), nil)
	ruling := testRuling(dir, srv.URL)
	result, err := d.Download(context.Background(), ruling)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, crawler.DownloadFailed, result)
	assert.Equal(t, int32(1), hits.Load())
	assert.NoDirExists(t, dir)
}

func TestDownloadTransportErrorIsFinal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	d := New(Config{}, nil, nil)
	var sleeps int
	d.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}
	result, err := d.Download(context.Background(), testRuling(t.TempDir(), addr))
	require.Error(t, err)
	assert.NotErrorIs(t, err, crawler.ErrDownloadExhausted)
	assert.Equal(t, crawler.DownloadFailed, result)
	assert.Zero(t, sleeps)
}

type chunkRecorder struct {
	sizes []int
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return len(p), nil
}

func TestCopyChunksUsesFixedBuffer(t *testing.T) {
	t.Parallel()

	src := bytes.NewReader(bytes.Repeat([]byte{'x'}, 2500))
	rec := &chunkRecorder{}
	n, err := copyChunks(rec, src, 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), n)
	assert.Equal(t, []int{1024, 1024, 452}, rec.sizes)
}
