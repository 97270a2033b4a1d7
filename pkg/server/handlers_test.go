package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/require"

	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/pattern"
	"github.com/bascanada/tentacle/pkg/source"
)

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func demoFixtureServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	writeGzip(t, filepath.Join(dir, "demo.log.2.gz"), ""+
		"2019-01-01 08:00:01 ERROR demo2line1\n"+
		"2019-01-01 08:00:02 DEBUG demo2line2\n"+
		"2019-01-01 08:00:03 INFO demo2line3\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.log.1"), []byte(""+
		"2019-01-01 09:00:01 WARNING demo1line1\n"+
		"2019-01-01 09:00:02 DEBUG demo1line2\n"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.log"), []byte(""+
		"2019-01-01 10:00:01 DEBUG demo0line1\n"+
		"2019-01-01 10:00:02 DEBUG demo0line2\n"+
		"2019-01-01 10:00:03 ERROR demo0line3\n"+
		"2019-01-01 10:00:04 INFO demo0line4\n"), 0o644))

	filePattern := regexp.MustCompile(regexp.QuoteMeta(dir) + `/demo\.log(\.(?P<rotation>\d+))?(\.gz)?$`)
	// The scenario's from_ms value (1546326003000) is the Europe/Paris
	// (UTC+1 in January) local instant "2019-01-01 08:00:03", matching
	// the fixture's displayed timestamps exactly.
	linePattern, err := pattern.Compile(
		`^(?P<timestamp>\S+ \S+) (?P<loglevel>\w+) (?P<message>.*)$`,
		"2006-01-02 15:04:05",
		"Europe/Paris",
	)
	require.NoError(t, err)

	pool := ioworker.New(2)
	t.Cleanup(pool.StopAndWait)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	demo := source.NewFile("demo", filePattern, linePattern, 0, pool, logger)

	reg, err := source.NewRegistry([]source.Source{demo})
	require.NoError(t, err)

	return NewServer("127.0.0.1", "0", reg, pool, logger, nil)
}

func TestGetContent_SingleSourceNoFilter(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/content?ids=demo", nil)
	rec := httptest.NewRecorder()
	s.getContentHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ""+
		"2019-01-01 08:00:01 ERROR demo2line1\n"+
		"2019-01-01 08:00:02 DEBUG demo2line2\n"+
		"2019-01-01 08:00:03 INFO demo2line3\n"+
		"2019-01-01 09:00:01 WARNING demo1line1\n"+
		"2019-01-01 09:00:02 DEBUG demo1line2\n"+
		"2019-01-01 10:00:01 DEBUG demo0line1\n"+
		"2019-01-01 10:00:02 DEBUG demo0line2\n"+
		"2019-01-01 10:00:03 ERROR demo0line3\n"+
		"2019-01-01 10:00:04 INFO demo0line4\n", rec.Body.String())
}

func TestGetContent_FilteredByLogLevel(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/content?ids=demo&loglevels=DEBUG", nil)
	rec := httptest.NewRecorder()
	s.getContentHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ""+
		"2019-01-01 08:00:02 DEBUG demo2line2\n"+
		"2019-01-01 09:00:02 DEBUG demo1line2\n"+
		"2019-01-01 10:00:01 DEBUG demo0line1\n"+
		"2019-01-01 10:00:02 DEBUG demo0line2\n", rec.Body.String())
}

func TestGetContent_FilteredByFromMs(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/content?ids=demo&from_ms=1546326003000", nil)
	rec := httptest.NewRecorder()
	s.getContentHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ""+
		"2019-01-01 08:00:03 INFO demo2line3\n"+
		"2019-01-01 09:00:01 WARNING demo1line1\n"+
		"2019-01-01 09:00:02 DEBUG demo1line2\n"+
		"2019-01-01 10:00:01 DEBUG demo0line1\n"+
		"2019-01-01 10:00:02 DEBUG demo0line2\n"+
		"2019-01-01 10:00:03 ERROR demo0line3\n"+
		"2019-01-01 10:00:04 INFO demo0line4\n", rec.Body.String())
}

func TestGetContent_UnknownSourceIs404(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/content?ids=missing", nil)
	rec := httptest.NewRecorder()
	s.getContentHandler(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetContent_JSONMode(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/content?ids=demo&loglevels=ERROR", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	s.getContentHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"message":"demo2line1"`)
}

func TestGetContent_UnacceptableMediaTypeIs406(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/content?ids=demo", nil)
	req.Header.Set("Accept", "application/xml")
	rec := httptest.NewRecorder()
	s.getContentHandler(rec, req)

	require.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListSourcesHandler(t *testing.T) {
	s := demoFixtureServer(t)

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	rec := httptest.NewRecorder()
	s.listSourcesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":"demo"`)
}
