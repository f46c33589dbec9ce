package game

import (
	"fmt"
	"slices"

	"github.com/vancomm/bingo/internal/bingo"
	"github.com/vancomm/bingo/internal/persistence"
)

const (
	DefaultMaxNumber = 75
	MinMaxNumber     = 10
	MaxMaxNumber     = 99
	MaxCards         = 5
)

// ValidateMaxNumber checks that n is an accepted upper bound of the draw range.
func ValidateMaxNumber(n int) error {
	if n < MinMaxNumber || n > MaxMaxNumber {
		return fmt.Errorf("max number must be between %d and %d, got %d", MinMaxNumber, MaxMaxNumber, n)
	}
	return nil
}

type State struct {
	DrawnNumbers  []int        `json:"drawnNumbers"`
	CurrentNumber *int         `json:"currentNumber"`
	IsDrawing     bool         `json:"isDrawing"`
	MaxNumber     int          `json:"maxNumber"`
	Cards         []bingo.Card `json:"bingoCards"`
	CardCount     int          `json:"cardCount"`
}

// Clone returns a deep copy that shares nothing with s.
func (s State) Clone() State {
	c := s
	c.DrawnNumbers = append(make([]int, 0, len(s.DrawnNumbers)), s.DrawnNumbers...)
	if s.CurrentNumber != nil {
		n := *s.CurrentNumber
		c.CurrentNumber = &n
	}
	c.Cards = make([]bingo.Card, len(s.Cards))
	for i, card := range s.Cards {
		c.Cards[i] = card.Clone()
	}
	return c
}

// Exhausted reports whether every number of the range has been drawn.
func (s State) Exhausted() bool {
	return len(bingo.Remaining(s.MaxNumber, s.DrawnNumbers)) == 0
}

// Drawn reports whether n is part of the drawn history.
func (s State) Drawn(n int) bool {
	return slices.Contains(s.DrawnNumbers, n)
}

func (s State) card(id string) int {
	return slices.IndexFunc(s.Cards, func(c bingo.Card) bool {
		return c.ID == id
	})
}

func (s State) snapshot(version uint64) persistence.Snapshot {
	c := s.Clone()
	return persistence.Snapshot{
		Version:       version,
		DrawnNumbers:  c.DrawnNumbers,
		CurrentNumber: c.CurrentNumber,
		MaxNumber:     c.MaxNumber,
		BingoCards:    c.Cards,
		CardCount:     c.CardCount,
	}
}

func fromSnapshot(snap persistence.Snapshot) State {
	s := State{
		DrawnNumbers:  snap.DrawnNumbers,
		CurrentNumber: snap.CurrentNumber,
		MaxNumber:     snap.MaxNumber,
		Cards:         snap.BingoCards,
		CardCount:     snap.CardCount,
	}
	if s.MaxNumber == 0 {
		s.MaxNumber = DefaultMaxNumber
	}
	if s.CurrentNumber != nil && *s.CurrentNumber == 0 {
		s.CurrentNumber = nil
	}
	return s.Clone()
}

func clampCardCount(n int) int {
	return min(max(n, 0), MaxCards)
}
