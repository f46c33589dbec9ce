package handlers

import (
	"errors"

	"github.com/gorilla/schema"

	"github.com/vancomm/bingo/internal/bingo"
	"github.com/vancomm/bingo/internal/game"
)

var (
	ErrUnknownCard = errors.New("unknown card")
	ErrOutOfGrid   = errors.New("cell is outside the card")
)

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type MaxNumberDTO struct {
	MaxNumber int `schema:"max_number,required"`
}

func (d MaxNumberDTO) Validate() error {
	return game.ValidateMaxNumber(d.MaxNumber)
}

type CardCountDTO struct {
	Count int `schema:"count,required"`
}

type CellDTO struct {
	Row int `schema:"row,required"`
	Col int `schema:"col,required"`
}

func (d CellDTO) Validate() error {
	if !bingo.InBounds(d.Row, d.Col) {
		return ErrOutOfGrid
	}
	return nil
}

type PositionDTO struct {
	X float64 `schema:"x,required"`
	Y float64 `schema:"y,required"`
}

func (d PositionDTO) Position() bingo.Position {
	return bingo.Position{X: d.X, Y: d.Y}
}

// ActionDTO is the response to every mutating request. Applied is false when
// the engine ignored the action.
type ActionDTO struct {
	Applied bool       `json:"applied"`
	Number  *int       `json:"number,omitempty"`
	State   game.State `json:"state"`
}
