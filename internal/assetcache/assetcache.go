// Package assetcache keeps the renderer's static assets available when their
// origin is not. A versioned cache is filled from a manifest on install,
// requests are served cache first, and activation drops outdated caches.
package assetcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/bingo/internal/metrics"
)

const (
	DefaultName = "bingo-game-v1"
	fallbackURI = "/index.html"
)

var ErrNoFallback = errors.New("origin unreachable and no cached fallback")

type Service struct {
	logger  logrus.FieldLogger
	storage *Storage
	origin  Origin
	name    string
	metrics *metrics.Metrics
}

func New(logger logrus.FieldLogger, storage *Storage, origin Origin, name string, m *metrics.Metrics) *Service {
	if name == "" {
		name = DefaultName
	}
	return &Service{
		logger:  logger.WithField("cache", name),
		storage: storage,
		origin:  origin,
		name:    name,
		metrics: m,
	}
}

func (s *Service) Name() string {
	return s.name
}

// Install pre-fetches every manifest entry. Nothing is stored unless all of
// them succeed with 200.
func (s *Service) Install(ctx context.Context, manifest []string) error {
	var (
		mu      sync.Mutex
		fetched = make(map[string]*Entry, len(manifest))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, uri := range manifest {
		g.Go(func() error {
			e, err := s.origin.Fetch(ctx, uri, nil)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", uri, err)
			}
			if e.Status != http.StatusOK {
				return fmt.Errorf("fetch %s: status %d", uri, e.Status)
			}
			mu.Lock()
			fetched[uri] = e
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("install %s: %w", s.name, err)
	}

	s.storage.Open(s.name).putAll(fetched)
	s.logger.WithField("entries", len(fetched)).Info("asset cache installed")
	return nil
}

// Activate deletes every cache whose name is not whitelisted. The service's
// own cache is always kept. It returns the deleted names.
func (s *Service) Activate(whitelist ...string) []string {
	var deleted []string
	for _, name := range s.storage.Names() {
		if name == s.name || slices.Contains(whitelist, name) {
			continue
		}
		if s.storage.Delete(name) {
			deleted = append(deleted, name)
		}
	}
	if len(deleted) > 0 {
		s.logger.WithField("deleted", deleted).Info("outdated asset caches removed")
	}
	return deleted
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	e, outcome, err := s.lookup(r)
	if err != nil {
		s.metrics.IncrementAssetRequest("error")
		s.logger.WithError(err).WithField("uri", r.URL.RequestURI()).Warn("asset unavailable")
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	s.metrics.IncrementAssetRequest(outcome)

	for k, v := range e.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(e.Status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(e.Body); err != nil {
		s.logger.WithError(err).Debug("unable to write asset")
	}
}

func (s *Service) lookup(r *http.Request) (*Entry, string, error) {
	key := r.URL.RequestURI()
	cache := s.storage.Open(s.name)
	if e, ok := cache.Match(key); ok {
		return e, "hit", nil
	}

	e, err := s.origin.Fetch(r.Context(), key, r.Header)
	if err != nil {
		if !acceptsHTML(r) {
			return nil, "", err
		}
		fallback, ok := cache.Match(fallbackURI)
		if !ok {
			return nil, "", fmt.Errorf("%w: %w", ErrNoFallback, err)
		}
		return fallback, "fallback", nil
	}

	if e.Status == http.StatusOK && e.SameOrigin {
		cache.Put(key, e)
	}
	return e, "miss", nil
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
