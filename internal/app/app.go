package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/bingo/internal/assetcache"
	"github.com/vancomm/bingo/internal/config"
	"github.com/vancomm/bingo/internal/database"
	"github.com/vancomm/bingo/internal/game"
	"github.com/vancomm/bingo/internal/kvstore"
	"github.com/vancomm/bingo/internal/metrics"
	"github.com/vancomm/bingo/internal/middleware"
	"github.com/vancomm/bingo/internal/persistence"
	"github.com/vancomm/bingo/internal/repository"
)

type kvStore interface {
	persistence.KV
	Close() error
}

type App struct {
	cfg     *config.Config
	logger  *logrus.Logger
	router  *http.ServeMux
	metrics *metrics.Metrics
	ws      *config.WebSocket

	kv     kvStore
	db     *pgxpool.Pool
	engine *game.Engine
	assets *assetcache.Service

	rehydrated <-chan struct{}
	closeOnce  sync.Once
}

func New(cfg *config.Config, logger *logrus.Logger) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		router:  http.NewServeMux(),
		metrics: metrics.New(),
		ws:      config.NewWebSocket(),
	}
}

func (a *App) openKV(ctx context.Context) (kvStore, error) {
	switch a.cfg.KV.Backend {
	case "redis":
		return kvstore.NewRedis(ctx, a.cfg.KV.RedisURL, a.cfg.KV.Table)
	default:
		return kvstore.Open(ctx, a.cfg.KV.Path, a.cfg.KV.Table)
	}
}

// setup opens the storage tiers, builds the engine and starts rehydration.
func (a *App) setup(ctx context.Context) error {
	kv, err := a.openKV(ctx)
	if err != nil {
		return fmt.Errorf("unable to open %s store: %w", a.cfg.KV.Backend, err)
	}
	a.kv = kv

	var durable persistence.Durable
	if config.DatabaseConfigured() {
		db, err := database.ConnectAndMigrate(ctx)
		if err != nil {
			return fmt.Errorf("unable to connect to db: %w", err)
		}
		a.db = db
		durable = repository.New(db)
	}

	gw := persistence.NewGateway(a.logger, kv, durable, a.metrics)
	if !gw.HasDurable() {
		a.logger.Warn("no database configured, running with the key/value tier only")
	}
	a.engine = game.New(a.logger, gw, newSource(), game.Options{
		MaxNumber:   a.cfg.Game.MaxNumber,
		CardCount:   a.cfg.Game.CardCount,
		StrictMarks: a.cfg.Game.StrictMarks,
		Metrics:     a.metrics,
	})
	a.rehydrated = a.engine.Rehydrate(ctx)

	assets, err := a.newAssets()
	if err != nil {
		return err
	}
	a.assets = assets

	a.loadRoutes()
	return nil
}

func (a *App) newAssets() (*assetcache.Service, error) {
	var origin assetcache.Origin
	switch {
	case a.cfg.Assets.Dir != "":
		origin = assetcache.NewFSOrigin(os.DirFS(a.cfg.Assets.Dir))
	case a.cfg.Assets.Origin != "":
		o, err := assetcache.NewHTTPOrigin(a.cfg.Assets.Origin, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			return nil, err
		}
		origin = o
	default:
		return nil, nil
	}
	return assetcache.New(
		a.logger, assetcache.NewStorage(), origin, a.cfg.Assets.CacheName, a.metrics,
	), nil
}

// installAssets fills the asset cache. An unreachable origin is not fatal:
// requests then go to the origin until it comes back.
func (a *App) installAssets(ctx context.Context) {
	if a.assets == nil {
		return
	}
	logger := a.logger.WithField("cache", a.assets.Name())
	if err := a.assets.Install(ctx, a.cfg.Assets.Manifest); err != nil {
		logger.WithError(err).Warn("unable to install asset cache")
		return
	}
	a.assets.Activate()
}

func (a *App) Handler() http.Handler {
	var h http.Handler = a.router
	if base := strings.TrimSuffix(a.cfg.BasePath, "/"); base != "" {
		h = http.StripPrefix(base, h)
	}
	return middleware.Wrap(
		h,
		middleware.Cors(),
		middleware.Logging(a.logger),
	)
}

func (a *App) close() {
	a.closeOnce.Do(func() {
		if a.rehydrated != nil {
			<-a.rehydrated
		}
		if a.engine != nil {
			a.engine.Flush()
		}
		if a.db != nil {
			a.db.Close()
		}
		if a.kv != nil {
			if err := a.kv.Close(); err != nil {
				a.logger.WithError(err).Error("unable to close key/value store")
			}
		}
	})
}

func (a *App) Start(ctx context.Context) error {
	defer a.close()
	if err := a.setup(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: a.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("addr", a.cfg.Addr).Info("server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.installAssets(ctx)
		return nil
	})
	g.Go(func() error {
		select {
		case <-a.rehydrated:
			a.logger.Debug("rehydration finished")
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
