package persistence

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/bingo/internal/bingo"
	"github.com/vancomm/bingo/internal/kvstore"
	"github.com/vancomm/bingo/internal/metrics"
)

type fakeDurable struct {
	mu      sync.Mutex
	records []Snapshot
	err     error
}

func (f *fakeDurable) FetchSnapshot(context.Context) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) == 0 {
		return nil, ErrNoSnapshot
	}
	snap := f.records[len(f.records)-1]
	return &snap, nil
}

func (f *fakeDurable) SaveSnapshot(_ context.Context, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, snap)
	return nil
}

func setupGateway(t *testing.T, durable Durable) (*Gateway, *kvstore.Store, *metrics.Metrics) {
	t.Helper()
	store, err := kvstore.Open(context.Background(), ":memory:", "bingo")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	m := metrics.New()
	return NewGateway(log, store, durable, m), store, m
}

func TestGatewayLoadEmpty(t *testing.T) {
	ctx := context.Background()
	g, _, m := setupGateway(t, &fakeDurable{})

	_, ok := g.LoadLocal(ctx)
	assert.False(t, ok)
	_, ok = g.LoadDurable(ctx)
	assert.False(t, ok)
	assert.Zero(t, testutil.ToFloat64(m.PersistFailures.WithLabelValues("local", "load")))
	assert.Zero(t, testutil.ToFloat64(m.PersistFailures.WithLabelValues("durable", "load")))
}

func TestGatewayStashRoundTrip(t *testing.T) {
	ctx := context.Background()
	g, _, _ := setupGateway(t, nil)
	assert.False(t, g.HasDurable())

	current := 41
	card := bingo.Card{ID: "card-0", Color: bingo.Blue, IsExpanded: true, Position: &bingo.Position{X: 12, Y: 30}}
	g.Stash(ctx, Snapshot{
		Version:       1,
		DrawnNumbers:  []int{7, 23, 41},
		CurrentNumber: &current,
		MaxNumber:     75,
		BingoCards:    []bingo.Card{card},
		CardCount:     1,
	})

	snap, ok := g.LoadLocal(ctx)
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, []int{7, 23, 41}, snap.DrawnNumbers)
	require.NotNil(t, snap.CurrentNumber)
	assert.Equal(t, 41, *snap.CurrentNumber)
	require.Len(t, snap.BingoCards, 1)
	assert.True(t, snap.BingoCards[0].IsExpanded)
	assert.Equal(t, &bingo.Position{X: 12, Y: 30}, snap.BingoCards[0].Position)
}

func TestGatewayDropsStaleWrites(t *testing.T) {
	ctx := context.Background()
	durable := &fakeDurable{}
	g, _, _ := setupGateway(t, durable)

	g.Stash(ctx, Snapshot{Version: 5, MaxNumber: 50})
	g.Stash(ctx, Snapshot{Version: 4, MaxNumber: 40})
	snap, ok := g.LoadLocal(ctx)
	require.True(t, ok)
	assert.Equal(t, 50, snap.MaxNumber)

	g.Persist(ctx, Snapshot{Version: 7, MaxNumber: 70})
	g.Persist(ctx, Snapshot{Version: 6, MaxNumber: 60})
	g.Persist(ctx, Snapshot{Version: 7, MaxNumber: 71})
	require.Len(t, durable.records, 1)
	assert.Equal(t, 70, durable.records[0].MaxNumber)

	snap, ok = g.LoadDurable(ctx)
	require.True(t, ok)
	assert.Equal(t, uint64(7), snap.Version)
}

func TestGatewayFailuresAreCounted(t *testing.T) {
	ctx := context.Background()
	durable := &fakeDurable{err: errors.New("connection refused")}
	g, _, m := setupGateway(t, durable)

	_, ok := g.LoadDurable(ctx)
	assert.False(t, ok)
	g.Persist(ctx, Snapshot{Version: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures.WithLabelValues("durable", "load")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures.WithLabelValues("durable", "save")))

	// a failed write does not advance the version guard
	durable.err = nil
	g.Persist(ctx, Snapshot{Version: 1})
	assert.Len(t, durable.records, 1)
}

func TestGatewayCorruptLocal(t *testing.T) {
	ctx := context.Background()
	g, store, m := setupGateway(t, nil)

	require.NoError(t, store.Set(ctx, LocalKey, "not a snapshot"))
	_, ok := g.LoadLocal(ctx)
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures.WithLabelValues("local", "load")))
}
