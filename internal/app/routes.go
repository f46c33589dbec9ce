package app

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vancomm/bingo/internal/handlers"
)

func newSource() rand.Source {
	return rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	)
}

func (a *App) loadRoutes() {
	game := handlers.NewGameHandler(a.logger, a.engine, a.ws)

	a.router.HandleFunc("GET /state", game.Fetch)
	a.router.HandleFunc("POST /draw", game.Draw)
	a.router.HandleFunc("POST /reset", game.Reset)
	a.router.HandleFunc("POST /config", game.SetMaxNumber)
	a.router.HandleFunc("POST /cards", game.SetCardCount)
	a.router.HandleFunc("POST /cards/{id}/mark", game.ToggleMark)
	a.router.HandleFunc("POST /cards/{id}/expand", game.ToggleExpanded)
	a.router.HandleFunc("POST /cards/{id}/position", game.UpdatePosition)
	a.router.HandleFunc("GET /connect", game.Connect)

	a.router.Handle("GET /metrics", promhttp.HandlerFor(
		a.metrics.Registry, promhttp.HandlerOpts{Registry: a.metrics.Registry},
	))

	if a.assets != nil {
		a.router.Handle("/", a.assets)
	}
}
