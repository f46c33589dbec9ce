package persistence

import (
	"errors"

	"github.com/vancomm/bingo/internal/bingo"
)

const (
	// LocalKey is the key/value tier key holding the whole state blob.
	LocalKey = "bingo-storage"
	// RecordID identifies the single durable record.
	RecordID = "gameState"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is the serialized form of the game state shared by both tiers.
// Version grows with every committed change and lets writers drop stale
// snapshots.
type Snapshot struct {
	Version       uint64       `json:"version"`
	DrawnNumbers  []int        `json:"drawnNumbers"`
	CurrentNumber *int         `json:"currentNumber"`
	MaxNumber     int          `json:"maxNumber"`
	BingoCards    []bingo.Card `json:"bingoCards"`
	CardCount     int          `json:"cardCount"`
}
