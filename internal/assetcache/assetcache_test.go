package assetcache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/bingo/internal/metrics"
)

// toggleOrigin wraps an origin and can be switched off to simulate an
// unreachable server.
type toggleOrigin struct {
	Origin
	mu    sync.Mutex
	down  bool
	calls int
}

func (o *toggleOrigin) Fetch(ctx context.Context, uri string, h http.Header) (*Entry, error) {
	o.mu.Lock()
	o.calls++
	down := o.down
	o.mu.Unlock()
	if down {
		return nil, errors.New("connection refused")
	}
	return o.Origin.Fetch(ctx, uri, h)
}

func (o *toggleOrigin) setDown(down bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.down = down
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html":    {Data: []byte("<html>bingo</html>")},
		"manifest.json": {Data: []byte(`{"name":"bingo"}`)},
		"static/app.js": {Data: []byte("console.log('bingo')")},
	}
}

func setupService(t *testing.T, name string) (*Service, *Storage, *toggleOrigin, *metrics.Metrics) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	storage := NewStorage()
	origin := &toggleOrigin{Origin: NewFSOrigin(testAssets())}
	m := metrics.New()
	return New(log, storage, origin, name, m), storage, origin, m
}

func get(t *testing.T, h http.Handler, uri, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, uri, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInstall(t *testing.T) {
	s, storage, _, _ := setupService(t, "")
	assert.Equal(t, DefaultName, s.Name())

	err := s.Install(context.Background(), []string{"/", "/index.html", "/manifest.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/index.html", "/manifest.json"}, storage.Open(DefaultName).Keys())

	e, ok := storage.Open(DefaultName).Match("/")
	require.True(t, ok)
	assert.Equal(t, "<html>bingo</html>", string(e.Body))
	assert.Equal(t, "text/html; charset=utf-8", e.Header.Get("Content-Type"))
}

func TestInstallIsAllOrNothing(t *testing.T) {
	s, storage, _, _ := setupService(t, "")

	err := s.Install(context.Background(), []string{"/index.html", "/logo512.png"})
	assert.ErrorContains(t, err, "/logo512.png")
	assert.Empty(t, storage.Open(DefaultName).Keys())
}

func TestServeCacheFirst(t *testing.T) {
	s, _, origin, m := setupService(t, "")

	rec := get(t, s, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log('bingo')", rec.Body.String())
	assert.Equal(t, 1, origin.calls)

	origin.setDown(true)
	rec = get(t, s, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log('bingo')", rec.Body.String())
	assert.Equal(t, 1, origin.calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetCacheHits.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetCacheHits.WithLabelValues("hit")))
}

func TestServeDoesNotCacheErrors(t *testing.T) {
	s, storage, origin, _ := setupService(t, "")

	rec := get(t, s, "/missing.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = get(t, s, "/missing.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 2, origin.calls)
	assert.Empty(t, storage.Open(DefaultName).Keys())
}

func TestServeHTMLFallback(t *testing.T) {
	s, _, origin, m := setupService(t, "")
	require.NoError(t, s.Install(context.Background(), []string{"/index.html"}))

	origin.setDown(true)
	rec := get(t, s, "/game/settings", "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>bingo</html>", rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetCacheHits.WithLabelValues("fallback")))

	rec = get(t, s, "/static/other.js", "*/*")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetCacheHits.WithLabelValues("error")))
}

func TestServeHTMLWithoutFallback(t *testing.T) {
	s, _, origin, _ := setupService(t, "")
	origin.setDown(true)

	rec := get(t, s, "/", "text/html")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServeRejectsWrites(t *testing.T) {
	s, _, _, _ := setupService(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/index.html", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestActivate(t *testing.T) {
	s, storage, _, _ := setupService(t, "bingo-game-v2")
	storage.Open("bingo-game-v1")
	storage.Open("bingo-game-v2")
	storage.Open("fonts")

	deleted := s.Activate("fonts")
	assert.Equal(t, []string{"bingo-game-v1"}, deleted)
	assert.Equal(t, []string{"bingo-game-v2", "fonts"}, storage.Names())

	assert.Empty(t, s.Activate("fonts"))
}

func TestHTTPOrigin(t *testing.T) {
	upstream := httptest.NewServer(http.FileServerFS(testAssets()))
	defer upstream.Close()

	origin, err := NewHTTPOrigin(upstream.URL, upstream.Client())
	require.NoError(t, err)

	e, err := origin.Fetch(context.Background(), "/manifest.json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, e.Status)
	assert.True(t, e.SameOrigin)
	assert.JSONEq(t, `{"name":"bingo"}`, string(e.Body))

	e, err = origin.Fetch(context.Background(), "/nope", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, e.Status)

	_, err = NewHTTPOrigin("localhost", nil)
	assert.Error(t, err)
}

func TestHTTPOriginCrossOriginRedirect(t *testing.T) {
	other := httptest.NewServer(http.FileServerFS(testAssets()))
	defer other.Close()
	upstream := httptest.NewServer(http.RedirectHandler(other.URL+"/index.html", http.StatusFound))
	defer upstream.Close()

	origin, err := NewHTTPOrigin(upstream.URL, nil)
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	storage := NewStorage()
	s := New(log, storage, origin, "", nil)

	rec := get(t, s, "/", "text/html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, storage.Open(DefaultName).Keys())
}
