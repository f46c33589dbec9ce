package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vancomm/bingo/internal/bingo"
	"github.com/vancomm/bingo/internal/persistence"
)

var ErrSchemaMissing = errors.New("numbers table missing, run the migrator")

// GameState is a row of the numbers table.
type GameState struct {
	ID            string             `db:"id"`
	DrawnNumbers  []int32            `db:"drawn_numbers"`
	CurrentNumber *int32             `db:"current_number"`
	MaxNumber     int32              `db:"max_number"`
	BingoCards    []bingo.Card       `db:"bingo_cards"`
	CardCount     int32              `db:"card_count"`
	Version       int64              `db:"version"`
	UpdatedAt     pgtype.Timestamptz `db:"updated_at"`
}

func (g GameState) Snapshot() *persistence.Snapshot {
	snap := &persistence.Snapshot{
		Version:      uint64(g.Version),
		DrawnNumbers: make([]int, len(g.DrawnNumbers)),
		MaxNumber:    int(g.MaxNumber),
		BingoCards:   g.BingoCards,
		CardCount:    int(g.CardCount),
	}
	for i, n := range g.DrawnNumbers {
		snap.DrawnNumbers[i] = int(n)
	}
	if g.CurrentNumber != nil {
		n := int(*g.CurrentNumber)
		snap.CurrentNumber = &n
	}
	return snap
}

func gameStateArgs(snap persistence.Snapshot) pgx.NamedArgs {
	drawn := make([]int32, len(snap.DrawnNumbers))
	for i, n := range snap.DrawnNumbers {
		drawn[i] = int32(n)
	}
	var current *int32
	if snap.CurrentNumber != nil {
		n := int32(*snap.CurrentNumber)
		current = &n
	}
	cards := snap.BingoCards
	if cards == nil {
		cards = []bingo.Card{}
	}
	return pgx.NamedArgs{
		"id":             persistence.RecordID,
		"drawn_numbers":  drawn,
		"current_number": current,
		"max_number":     int32(snap.MaxNumber),
		"bingo_cards":    cards,
		"card_count":     int32(snap.CardCount),
		"version":        int64(snap.Version),
	}
}

func (q *Queries) FetchGameState(ctx context.Context, id string) (*GameState, error) {
	rows, _ := q.db.Query(ctx, "SELECT * FROM numbers WHERE id = $1", id)
	state, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameState])
	if err != nil {
		return nil, classify(err)
	}
	return state, nil
}

func (q *Queries) UpsertGameState(ctx context.Context, snap persistence.Snapshot) error {
	_, err := q.db.Exec(
		ctx,
		`INSERT INTO numbers (
			id, drawn_numbers, current_number, max_number, bingo_cards, card_count, version
		)
		VALUES (
			@id, @drawn_numbers, @current_number, @max_number, @bingo_cards, @card_count, @version
		)
		ON CONFLICT (id) DO UPDATE
		SET drawn_numbers = excluded.drawn_numbers
			, current_number = excluded.current_number
			, max_number = excluded.max_number
			, bingo_cards = excluded.bingo_cards
			, card_count = excluded.card_count
			, version = excluded.version;`,
		gameStateArgs(snap),
	)
	return classify(err)
}

// FetchSnapshot implements [persistence.Durable].
func (q *Queries) FetchSnapshot(ctx context.Context) (*persistence.Snapshot, error) {
	state, err := q.FetchGameState(ctx, persistence.RecordID)
	if err != nil {
		return nil, err
	}
	return state.Snapshot(), nil
}

// SaveSnapshot implements [persistence.Durable].
func (q *Queries) SaveSnapshot(ctx context.Context, snap persistence.Snapshot) error {
	return q.UpsertGameState(ctx, snap)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNoSnapshot
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	}
	return err
}
