package bingo

import (
	"errors"
	"math/rand/v2"
)

var ErrExhausted = errors.New("all numbers have been drawn")

// Below this share of the range still undrawn, Draw stops rejection
// sampling and picks directly from what is left.
const complementThreshold = 0.05

// Remaining returns the numbers of [1, maxNumber] that are not in drawn, in
// ascending order. Drawn values outside the range are ignored.
func Remaining(maxNumber int, drawn []int) []int {
	taken := drawnSet(maxNumber, drawn)
	left := make([]int, 0, maxNumber-len(taken))
	for n := 1; n <= maxNumber; n++ {
		if _, ok := taken[n]; !ok {
			left = append(left, n)
		}
	}
	return left
}

// Draw picks a number uniformly from [1, maxNumber] that is not in drawn.
// It returns ErrExhausted when no such number exists.
func Draw(r *rand.Rand, maxNumber int, drawn []int) (int, error) {
	if maxNumber < 1 {
		return 0, ErrExhausted
	}
	taken := drawnSet(maxNumber, drawn)
	left := maxNumber - len(taken)
	if left <= 0 {
		return 0, ErrExhausted
	}

	if float64(left) < complementThreshold*float64(maxNumber) || left < Size {
		rest := Remaining(maxNumber, drawn)
		return rest[r.IntN(len(rest))], nil
	}

	for {
		n := r.IntN(maxNumber) + 1
		if _, ok := taken[n]; !ok {
			return n, nil
		}
	}
}

func drawnSet(maxNumber int, drawn []int) map[int]struct{} {
	taken := make(map[int]struct{}, len(drawn))
	for _, n := range drawn {
		if 1 <= n && n <= maxNumber {
			taken[n] = struct{}{}
		}
	}
	return taken
}
