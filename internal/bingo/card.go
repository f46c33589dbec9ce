package bingo

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

const (
	Size      = 5
	FreeRow   = 2
	FreeCol   = 2
	freeValue = 0
)

type Cell struct {
	Number int  `json:"number"`
	Marked bool `json:"marked"`
}

func (c Cell) Free() bool {
	return c.Number == freeValue
}

type Grid [Size][Size]Cell

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Card struct {
	ID         string    `json:"id"`
	Cells      Grid      `json:"cells"`
	Color      Color     `json:"color"`
	Position   *Position `json:"position,omitempty"`
	IsExpanded bool      `json:"isExpanded"`
	HasReach   bool      `json:"hasReach"`
	HasBingo   bool      `json:"hasBingo"`
}

// CardID returns the id of the i-th card in a game.
func CardID(i int) string {
	return fmt.Sprintf("card-%d", i)
}

// BandWidth is the size of the numeric range assigned to each column. The
// classic 75-ball game has 15 numbers per column. Smaller games still need
// five unique values per column, so the width never drops below Size.
func BandWidth(maxNumber int) int {
	return max(Size, maxNumber/Size)
}

// Band returns the inclusive range of numbers allowed in column col.
func Band(col, maxNumber int) (lo, hi int) {
	w := BandWidth(maxNumber)
	lo = col*w + 1
	return lo, lo + w - 1
}

// NewCard generates a card with Size unique numbers per column, taken from
// the column's band and sorted top to bottom. The centre cell is free.
func NewCard(id string, color Color, maxNumber int, r *rand.Rand) Card {
	var columns [Size][]int
	for col := range Size {
		lo, hi := Band(col, maxNumber)
		seen := make(map[int]struct{}, Size)
		for len(seen) < Size {
			seen[lo+r.IntN(hi-lo+1)] = struct{}{}
		}
		numbers := make([]int, 0, Size)
		for n := range seen {
			numbers = append(numbers, n)
		}
		slices.Sort(numbers)
		columns[col] = numbers
	}

	card := Card{ID: id, Color: color}
	for row := range Size {
		for col := range Size {
			if row == FreeRow && col == FreeCol {
				card.Cells[row][col] = Cell{Number: freeValue, Marked: true}
				continue
			}
			card.Cells[row][col] = Cell{Number: columns[col][row]}
		}
	}
	return card
}

// InBounds reports whether (row, col) addresses a cell of the grid.
func InBounds(row, col int) bool {
	return 0 <= row && row < Size && 0 <= col && col < Size
}

// Toggle flips the mark of a cell and re-evaluates the card. The free cell
// and out-of-grid coordinates are ignored. Reports whether anything changed.
func (c *Card) Toggle(row, col int) bool {
	if !InBounds(row, col) || c.Cells[row][col].Free() {
		return false
	}
	c.Cells[row][col].Marked = !c.Cells[row][col].Marked
	c.Refresh()
	return true
}

// Refresh recomputes the bingo and reach flags from the marked cells.
func (c *Card) Refresh() {
	res := Evaluate(c.Cells)
	c.HasBingo, c.HasReach = res.HasBingo, res.HasReach
}

func (c Card) Clone() Card {
	if c.Position != nil {
		pos := *c.Position
		c.Position = &pos
	}
	return c
}
