package game

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/bingo/internal/persistence"
)

// Rehydrate restores the state in two phases. The key/value snapshot is
// applied before Rehydrate returns; the durable record is read in the
// background and, when present, overwrites the state. The returned channel
// is closed once the second phase is over.
func (e *Engine) Rehydrate(ctx context.Context) <-chan struct{} {
	if snap, ok := e.store.LoadLocal(ctx); ok {
		e.replace(ctx, snap, PhaseLocal)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if snap, ok := e.store.LoadDurable(ctx); ok {
			e.replace(ctx, snap, PhaseDurable)
		}
	}()
	return done
}

func (e *Engine) replace(ctx context.Context, snap persistence.Snapshot, phase Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.state = fromSnapshot(snap)
	for i := range e.state.Cards {
		e.state.Cards[i].Refresh()
	}
	// records written by older builds may disagree with their card count
	e.resizeCardsLocked(e.state.CardCount)
	e.version = max(e.version, snap.Version)

	e.logger.WithFields(logrus.Fields{
		"phase":   phase,
		"version": snap.Version,
		"drawn":   len(e.state.DrawnNumbers),
		"cards":   e.state.CardCount,
	}).Info("state rehydrated")

	if phase == PhaseDurable {
		e.version++
		e.store.Stash(ctx, e.state.snapshot(e.version))
	}
	e.metrics.SetGameSize(len(e.state.DrawnNumbers), len(e.state.Cards))
	e.publish(Event{Kind: EventReplaced, Phase: phase, State: e.state.Clone()})
}
