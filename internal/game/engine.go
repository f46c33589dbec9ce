package game

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/bingo/internal/bingo"
	"github.com/vancomm/bingo/internal/metrics"
	"github.com/vancomm/bingo/internal/persistence"
)

// Store is the persistence side of the engine. Implementations swallow and
// log their own failures.
type Store interface {
	LoadLocal(ctx context.Context) (persistence.Snapshot, bool)
	LoadDurable(ctx context.Context) (persistence.Snapshot, bool)
	Stash(ctx context.Context, snap persistence.Snapshot)
	Persist(ctx context.Context, snap persistence.Snapshot)
}

type Options struct {
	MaxNumber int
	CardCount int
	// StrictMarks rejects marking cells whose number has not been drawn.
	StrictMarks bool
	Metrics     *metrics.Metrics
}

// Engine owns the game state. All mutations go through its methods; readers
// get deep copies from State or observe changes through Subscribe.
type Engine struct {
	logger  logrus.FieldLogger
	store   Store
	rnd     *rand.Rand
	metrics *metrics.Metrics
	strict  bool

	mu      sync.Mutex
	state   State
	epoch   uint64 // bumped whenever the state is replaced wholesale
	version uint64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	pending sync.WaitGroup
}

func New(logger logrus.FieldLogger, store Store, src rand.Source, opts Options) *Engine {
	e := &Engine{
		logger:  logger.WithField("component", "engine"),
		store:   store,
		rnd:     rand.New(&lockedSource{src: src}),
		metrics: opts.Metrics,
		strict:  opts.StrictMarks,
		subs:    make(map[int]chan Event),
	}
	maxNumber := opts.MaxNumber
	if maxNumber == 0 {
		maxNumber = DefaultMaxNumber
	}
	e.state = State{
		DrawnNumbers: []int{},
		MaxNumber:    maxNumber,
		Cards:        []bingo.Card{},
	}
	e.resizeCardsLocked(opts.CardCount)
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) HasCard(cardID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.card(cardID) >= 0
}

// DrawNumber draws the next number and waits for the durable write. It is
// a no-op while another draw is in progress or once the range is
// exhausted.
func (e *Engine) DrawNumber(ctx context.Context) (int, bool) {
	e.mu.Lock()
	if e.state.IsDrawing || e.state.Exhausted() {
		e.mu.Unlock()
		return 0, false
	}
	e.state.IsDrawing = true
	epoch := e.epoch
	maxNumber := e.state.MaxNumber
	drawn := slices.Clone(e.state.DrawnNumbers)
	e.mu.Unlock()

	n, err := bingo.Draw(e.rnd, maxNumber, drawn)

	e.mu.Lock()
	if epoch != e.epoch {
		e.mu.Unlock()
		e.logger.Debug("state replaced during draw, discarding result")
		return 0, false
	}
	e.state.IsDrawing = false
	if err != nil {
		e.mu.Unlock()
		return 0, false
	}
	e.state.DrawnNumbers = append(e.state.DrawnNumbers, n)
	e.state.CurrentNumber = &n
	snap := e.commitLocked(ctx, "draw")
	e.mu.Unlock()

	e.metrics.IncrementDraws()
	e.logger.WithFields(logrus.Fields{
		"number": n,
		"drawn":  len(snap.DrawnNumbers),
	}).Debug("number drawn")

	e.store.Persist(ctx, snap)
	return n, true
}

// ResetGame clears the drawn history and deals fresh cards. MaxNumber and
// CardCount are kept. Waits for the durable write.
func (e *Engine) ResetGame(ctx context.Context) {
	e.mu.Lock()
	e.epoch++
	e.state.DrawnNumbers = []int{}
	e.state.CurrentNumber = nil
	e.state.IsDrawing = false
	e.state.Cards = e.state.Cards[:0]
	e.resizeCardsLocked(e.state.CardCount)
	snap := e.commitLocked(ctx, "reset")
	e.mu.Unlock()

	e.metrics.IncrementResets()
	e.logger.WithField("cards", snap.CardCount).Info("game reset")

	e.store.Persist(ctx, snap)
}

// SetMaxNumber changes the upper bound of the draw range. The caller is
// expected to keep n within [MinMaxNumber, MaxMaxNumber]. Drawn numbers
// above a lowered bound stay in the history.
func (e *Engine) SetMaxNumber(n int) {
	e.mu.Lock()
	e.state.MaxNumber = n
	snap := e.commitLocked(context.Background(), "max_number")
	e.mu.Unlock()

	e.persistAsync(snap)
}

// SetCardCount clamps n to [0, MaxCards] and grows or shrinks the card set.
// Surviving cards keep their marks, position and expansion.
func (e *Engine) SetCardCount(n int) {
	e.mu.Lock()
	e.resizeCardsLocked(n)
	snap := e.commitLocked(context.Background(), "card_count")
	e.mu.Unlock()

	e.persistAsync(snap)
}

// ToggleCardMark flips the mark of a cell and re-evaluates that card.
// Unknown cards, the free cell and out-of-grid cells are ignored.
func (e *Engine) ToggleCardMark(cardID string, row, col int) bool {
	e.mu.Lock()
	i := e.state.card(cardID)
	if i < 0 || !bingo.InBounds(row, col) {
		e.mu.Unlock()
		return false
	}
	card := &e.state.Cards[i]
	cell := card.Cells[row][col]
	if e.strict && !cell.Marked && !cell.Free() && !e.state.Drawn(cell.Number) {
		e.mu.Unlock()
		return false
	}
	hadBingo := card.HasBingo
	if !card.Toggle(row, col) {
		e.mu.Unlock()
		return false
	}
	bingoNow := card.HasBingo
	snap := e.commitLocked(context.Background(), "mark")
	e.mu.Unlock()

	e.metrics.IncrementMarks()
	if bingoNow && !hadBingo {
		e.metrics.IncrementBingos()
		e.logger.WithField("card", cardID).Info("bingo")
	}

	e.persistAsync(snap)
	return true
}

// ToggleCardExpanded flips the expansion of a card and collapses every other
// card. Expansion is view state and only reaches the key/value tier.
func (e *Engine) ToggleCardExpanded(cardID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.card(cardID) < 0 {
		return false
	}
	for i := range e.state.Cards {
		card := &e.state.Cards[i]
		if card.ID == cardID {
			card.IsExpanded = !card.IsExpanded
		} else {
			card.IsExpanded = false
		}
	}
	e.commitLocked(context.Background(), "expand")
	return true
}

// UpdateCardPosition stores the card position verbatim. Like expansion it
// is view state and only reaches the key/value tier.
func (e *Engine) UpdateCardPosition(cardID string, pos bingo.Position) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.state.card(cardID)
	if i < 0 {
		return false
	}
	e.state.Cards[i].Position = &pos
	e.commitLocked(context.Background(), "position")
	return true
}

// Flush waits for background durable writes to finish.
func (e *Engine) Flush() {
	e.pending.Wait()
}

// commitLocked stamps a new version, writes the key/value tier and notifies
// subscribers. It returns the snapshot for the durable tier.
func (e *Engine) commitLocked(ctx context.Context, op string) persistence.Snapshot {
	e.version++
	snap := e.state.snapshot(e.version)
	e.store.Stash(ctx, snap)
	e.metrics.SetGameSize(len(e.state.DrawnNumbers), len(e.state.Cards))
	e.publish(Event{Kind: EventChanged, Op: op, State: e.state.Clone()})
	return snap
}

func (e *Engine) persistAsync(snap persistence.Snapshot) {
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		e.store.Persist(context.Background(), snap)
	}()
}

func (e *Engine) resizeCardsLocked(n int) {
	n = clampCardCount(n)
	if len(e.state.Cards) > n {
		e.state.Cards = e.state.Cards[:n]
	}
	for i := len(e.state.Cards); i < n; i++ {
		e.state.Cards = append(e.state.Cards, bingo.NewCard(
			bingo.CardID(i), bingo.PaletteColor(i), e.state.MaxNumber, e.rnd,
		))
	}
	e.state.CardCount = n
}
