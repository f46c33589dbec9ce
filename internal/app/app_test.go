package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/bingo/internal/config"
	"github.com/vancomm/bingo/internal/game"
)

func setupApp(t *testing.T, dbPath string, mutate func(*config.Config)) *App {
	t.Helper()
	if config.DatabaseConfigured() {
		t.Skip("a database is configured in the environment")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.KV.Path = dbPath
	if mutate != nil {
		mutate(cfg)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	a := New(cfg, log)
	require.NoError(t, a.setup(context.Background()))
	<-a.rehydrated
	t.Cleanup(a.close)
	return a
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	a := setupApp(t, ":memory:", func(cfg *config.Config) {
		cfg.Game.CardCount = 2
	})
	h := a.Handler()

	rec := do(t, h, http.MethodGet, "/state")
	require.Equal(t, http.StatusOK, rec.Code)
	var state game.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Len(t, state.Cards, 2)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/draw").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/cards/card-1/mark?row=0&col=0").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/cards/card-4/expand").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/config?max_number=120").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/draw").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/index.html").Code)

	rec = do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bingo_draws_total 1")
	assert.Contains(t, rec.Body.String(), "bingo_cards 2")
}

func TestBasePath(t *testing.T) {
	a := setupApp(t, ":memory:", func(cfg *config.Config) {
		cfg.BasePath = "/api/"
	})
	h := a.Handler()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/state").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/state").Code)
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))

	a := setupApp(t, ":memory:", func(cfg *config.Config) {
		cfg.Assets.Dir = dir
		cfg.Assets.Manifest = []string{"/", "/index.html"}
	})
	a.installAssets(context.Background())

	rec := do(t, a.Handler(), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html></html>", rec.Body.String())
}

func TestStateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bingo.db")

	first := setupApp(t, path, nil)
	rec := do(t, first.Handler(), http.MethodPost, "/draw")
	require.Equal(t, http.StatusOK, rec.Code)
	drawn := first.engine.State().DrawnNumbers
	first.close()

	second := setupApp(t, path, nil)
	assert.Equal(t, drawn, second.engine.State().DrawnNumbers)
}
