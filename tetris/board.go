package tetris

import (
	"fmt"
	"slices"
)

const (
	Width  = 10
	Height = 20
)

// Board is the playfield holding locked cells. Height rows x Width columns.
// Rows are 0 > 19 top to bottom and represent the Y axis.
// Columns are 0 > 9 left to right and represent the X axis.
// An empty string is an empty cell. Otherwise it holds the shape that locked there.
type Board [][]Shape

func emptyBoard() Board {
	b := make(Board, Height)
	for i := range b {
		b[i] = make([]Shape, Width)
	}
	return b
}

// Collides reports whether grid placed with its top-left corner at (x, y)
// leaves the board or overlaps a locked cell.
//
//	. 0 1 2 3 4 5 6 7 8 9		. 0 1 2
//	0 . . . . O O O . . .		0 O O O
//	1 . . . . . O . . . .		1 X O X
//	2 . . . . . C . . . .
//
// Cells above the top row are allowed and never checked against the stack,
// so a piece can hang over row 0 while it enters the board.
func (b Board) Collides(g Grid, x, y int) bool {
	for ir, r := range g {
		for ic, c := range r {
			if !c {
				continue
			}
			yPos, xPos := y+ir, x+ic
			if xPos < 0 || xPos >= Width || yPos >= Height {
				return true
			}
			if yPos >= 0 && b[yPos][xPos] != "" {
				return true
			}
		}
	}
	return false
}

// Merge writes every cell of grid at (x, y) into the board with shape s.
// Cells above the top row are dropped. Callers must check Collides first:
// a cell outside the board is a bug and panics.
func (b Board) Merge(g Grid, x, y int, s Shape) {
	for ir, r := range g {
		for ic, c := range r {
			if !c {
				continue
			}
			yPos, xPos := y+ir, x+ic
			if yPos < 0 {
				continue
			}
			if yPos >= Height || xPos < 0 || xPos >= Width {
				panic(fmt.Sprintf("tetris: merging cell (%d,%d) outside the board", xPos, yPos))
			}
			b[yPos][xPos] = s
		}
	}
}

// ClearCompletedRows removes every row with no empty cell and inserts the
// same number of empty rows at the top. The remaining rows keep their order.
// It returns the number of rows removed.
func (b Board) ClearCompletedRows() int {
	w := len(b) - 1
	for r := len(b) - 1; r >= 0; r-- {
		if isComplete(b[r]) {
			continue
		}
		b[w] = b[r]
		w--
	}
	cleared := w + 1
	for ; w >= 0; w-- {
		b[w] = make([]Shape, Width)
	}
	return cleared
}

func isComplete(row []Shape) bool {
	return !slices.Contains(row, "")
}

func (b Board) copy() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	for i := range b {
		out[i] = make([]Shape, len(b[i]))
		copy(out[i], b[i])
	}
	return out
}
