package bingo

type Result struct {
	HasBingo bool `json:"hasBingo"`
	HasReach bool `json:"hasReach"`
}

// lines enumerates every row, column and both diagonals as cell coordinates.
var lines = func() [][Size][2]int {
	ls := make([][Size][2]int, 0, 2*Size+2)
	for i := range Size {
		var row, col [Size][2]int
		for j := range Size {
			row[j] = [2]int{i, j}
			col[j] = [2]int{j, i}
		}
		ls = append(ls, row, col)
	}
	var diag, anti [Size][2]int
	for i := range Size {
		diag[i] = [2]int{i, i}
		anti[i] = [2]int{i, Size - 1 - i}
	}
	return append(ls, diag, anti)
}()

// Evaluate reports whether any line of the grid is fully marked (bingo) or,
// failing that, whether any line is exactly one mark short (reach).
func Evaluate(cells Grid) Result {
	var res Result
	for _, line := range lines {
		marked := 0
		for _, p := range line {
			if cells[p[0]][p[1]].Marked {
				marked++
			}
		}
		switch marked {
		case Size:
			return Result{HasBingo: true}
		case Size - 1:
			res.HasReach = true
		}
	}
	return res
}
