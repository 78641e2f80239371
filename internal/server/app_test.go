package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/court-ruling-crawler/internal/config"
)

func testConfig(baseURL, pdfDir string) config.Config {
	return config.Config{
		Source:  config.SourceConfig{BaseURL: baseURL, Court: "pa-surabaya", Year: "2023", StartPage: 1, EndPage: 2},
		Crawler: config.CrawlerConfig{Concurrency: 2, Timezone: "Asia/Jakarta"},
		HTTP:    config.HTTPConfig{TimeoutSeconds: 5, UnavailableMaxRetries: 1},
		PDF:     config.PDFConfig{Dir: pdfDir, MaxRetries: 0, RetryDelaySeconds: 1, ChunkSize: 1024},
		Store:   config.StoreConfig{Driver: "memory"},
	}
}

func TestAppRunCrawlsPageRange(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/direktori/index/pengadilan/pa-surabaya/tahunjenis/putus/tahun/2023/page/1.html",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<div id="popular-post-list-sidebar">
<a href="/direktori/putusan/a.html">Putusan Nomor 1/Pdt.G/2023/PA.Sby</a>
<a href="/direktori/putusan/b.html">Putusan Nomor 2/Pdt.G/2023/PA.Sby</a>
</div>`))
		})
	detail := func(caseNumber, file string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<table class="table"><tr><td>Informasi</td></tr>
<tr><td>Nomor</td><td>` + caseNumber + `</td></tr></table>
<div class="card-body bg-white"><a href="/files/` + file + `">` + file + `.pdf</a></div>`))
		}
	}
	mux.HandleFunc("/direktori/putusan/a.html", detail("1/Pdt.G/2023/PA.Sby", "a"))
	mux.HandleFunc("/direktori/putusan/b.html", detail("2/Pdt.G/2023/PA.Sby", "b"))
	mux.HandleFunc("/files/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	pdfDir := t.TempDir()
	app, err := Build(context.Background(), testConfig(srv.URL, pdfDir), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	assert.NotEmpty(t, app.Session().ID)
	assert.Contains(t, app.Session().CreatedAt, "+0700")

	summary := app.Run(context.Background())
	require.Len(t, summary.Pages, 2)
	assert.Equal(t, app.Session().ID, summary.SessionID)
	assert.Equal(t, 2, summary.Pages[0].Succeeded)
	assert.Error(t, summary.Pages[1].Err)

	for _, name := range []string{"1_Pdt.G_2023_PA.Sby.pdf", "2_Pdt.G_2023_PA.Sby.pdf"} {
		_, err := os.Stat(filepath.Join(pdfDir, name))
		assert.NoError(t, err, name)
	}
}

func TestBuildWarnsAboutMissingPDFDir(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	app, err := Build(context.Background(), testConfig("https://example.invalid", filepath.Join(t.TempDir(), "absent")), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, app.Close(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("pdf directory is not accessible; downloads will fail").Len())
}

func TestBuildRejectsUnknownTimezone(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://example.invalid", t.TempDir())
	cfg.Crawler.Timezone = "Nowhere/Special"
	_, err := Build(context.Background(), cfg, nil)
	require.Error(t, err)
}
