package game

import (
	"math/rand/v2"
	"sync"
)

// lockedSource makes a rand.Source safe for the engine's concurrent callers.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}
