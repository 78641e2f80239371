package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCrawlCommandRunsAgainstServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/direktori/index/pengadilan/pa-test/tahunjenis/putus/tahun/2020/page/1.html",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<div id="popular-post-list-sidebar"><a href="/d/1.html">Putusan 1</a></div>`))
		})
	mux.HandleFunc("/d/1.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<table class="table"><tr><td>h</td><td>Nomor</td><td>1/X</td></tr></table>
<div class="card-body bg-white"><a href="/f/1">1.pdf</a></div>`))
	})
	mux.HandleFunc("/f/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("RULINGS_SOURCE_BASE_URL", srv.URL)
	t.Setenv("RULINGS_LOGGING_FILE", filepath.Join(dir, "app.log"))

	root := newRootCmd()
	root.SetArgs([]string{
		"crawl",
		"--court=pa-test",
		"--year=2020",
		"--start-page=1",
		"--end-page=1",
		"--store-driver=memory",
		"--pdf-dir=" + dir,
	})
	require.NoError(t, root.ExecuteContext(context.Background()))

	got, err := os.ReadFile(filepath.Join(dir, "1_X.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(got))
}

func TestCrawlCommandRejectsBadConfig(t *testing.T) {
	t.Setenv("RULINGS_LOGGING_FILE", "")

	root := newRootCmd()
	root.SetArgs([]string{"crawl", "--start-page=3", "--end-page=2", "--store-driver=memory"})
	root.SetOut(&discard{})
	root.SetErr(&discard{})
	err := root.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "source.end_page")
}

func TestResolveRuntimeRequiresPreRun(t *testing.T) {
	t.Parallel()

	_, err := resolveRuntime(context.Background())
	require.Error(t, err)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
