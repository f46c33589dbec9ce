package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/bingo/internal/kvstore"
	"github.com/vancomm/bingo/internal/metrics"
)

// KV is the lightweight tier: a synchronous key/value store holding the
// whole state under LocalKey. Get returns [kvstore.ErrNotFound] for a
// missing key.
type KV interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any) error
}

// Durable is the structured tier holding a single record.
type Durable interface {
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

const (
	tierLocal   = "local"
	tierDurable = "durable"
)

// Gateway keeps the two tiers in sync with the in-memory state. Failures
// are logged and counted, never returned: the in-memory state stays
// authoritative for the session.
type Gateway struct {
	kv      KV
	durable Durable
	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	kvMu      sync.Mutex
	stashed   uint64
	durableMu sync.Mutex
	persisted uint64
}

// NewGateway creates a gateway. durable may be nil, in which case only the
// key/value tier is used.
func NewGateway(
	logger logrus.FieldLogger, kv KV, durable Durable, m *metrics.Metrics,
) *Gateway {
	return &Gateway{
		kv:      kv,
		durable: durable,
		logger:  logger.WithField("component", "persistence"),
		metrics: m,
	}
}

func (g *Gateway) HasDurable() bool {
	return g.durable != nil
}

// LoadLocal reads the snapshot from the key/value tier.
func (g *Gateway) LoadLocal(ctx context.Context) (Snapshot, bool) {
	var snap Snapshot
	err := g.kv.Get(ctx, LocalKey, &snap)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			g.fail(tierLocal, "load", err)
		}
		return Snapshot{}, false
	}
	g.logger.WithFields(logrus.Fields{
		"version": snap.Version,
		"drawn":   len(snap.DrawnNumbers),
	}).Debug("loaded local snapshot")
	return snap, true
}

// LoadDurable reads the durable record.
func (g *Gateway) LoadDurable(ctx context.Context) (Snapshot, bool) {
	if g.durable == nil {
		return Snapshot{}, false
	}
	snap, err := g.durable.FetchSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			g.fail(tierDurable, "load", err)
		}
		return Snapshot{}, false
	}
	g.logger.WithFields(logrus.Fields{
		"version": snap.Version,
		"drawn":   len(snap.DrawnNumbers),
	}).Debug("loaded durable snapshot")
	return *snap, true
}

// Stash writes snap to the key/value tier unless a newer snapshot is
// already there.
func (g *Gateway) Stash(ctx context.Context, snap Snapshot) {
	g.kvMu.Lock()
	defer g.kvMu.Unlock()

	if snap.Version != 0 && snap.Version <= g.stashed {
		return
	}
	start := time.Now()
	if err := g.kv.Set(ctx, LocalKey, snap); err != nil {
		g.fail(tierLocal, "save", err)
		return
	}
	g.metrics.ObserveWrite(tierLocal, start)
	g.stashed = snap.Version
}

// Persist writes snap to the durable tier unless a newer snapshot is
// already there.
func (g *Gateway) Persist(ctx context.Context, snap Snapshot) {
	if g.durable == nil {
		return
	}
	g.durableMu.Lock()
	defer g.durableMu.Unlock()

	if snap.Version != 0 && snap.Version <= g.persisted {
		g.logger.WithField("version", snap.Version).Debug("dropping stale snapshot")
		return
	}
	start := time.Now()
	if err := g.durable.SaveSnapshot(ctx, snap); err != nil {
		g.fail(tierDurable, "save", err)
		return
	}
	g.metrics.ObserveWrite(tierDurable, start)
	g.persisted = snap.Version
}

func (g *Gateway) fail(tier, op string, err error) {
	g.metrics.IncrementPersistFailure(tier, op)
	g.logger.WithError(err).WithFields(logrus.Fields{
		"tier": tier,
		"op":   op,
	}).Error("persistence failure")
}
