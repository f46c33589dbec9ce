package game

type EventKind string

const (
	// EventChanged follows every committed player action.
	EventChanged EventKind = "changed"
	// EventReplaced follows a rehydration phase overwriting the state.
	EventReplaced EventKind = "replaced"
	// EventSnapshot carries the full state to a freshly opened stream.
	EventSnapshot EventKind = "snapshot"
)

type Phase string

const (
	PhaseLocal   Phase = "local"
	PhaseDurable Phase = "durable"
)

type Event struct {
	Kind  EventKind `json:"kind"`
	Op    string    `json:"op,omitempty"`
	Phase Phase     `json:"phase,omitempty"`
	State State     `json:"state"`
}

const subscriberBuffer = 16

// Subscribe registers an observer of state changes. Events are dropped for
// subscribers that fall more than a buffer behind. The returned function
// unsubscribes and closes the channel.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()
	e.metrics.AddSubscribers(1)

	cancel := func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if _, ok := e.subs[id]; !ok {
			return
		}
		delete(e.subs, id)
		close(ch)
		e.metrics.AddSubscribers(-1)
	}
	return ch, cancel
}

func (e *Engine) publish(ev Event) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			e.logger.WithField("subscriber", id).Warn("subscriber lagging, event dropped")
		}
	}
}
