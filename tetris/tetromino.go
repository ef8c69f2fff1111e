package tetris

import "math/rand/v2"

// Shape identifies a tetromino kind. It is also the value stored in every
// cell of the board: an empty string is an empty cell.
type Shape string

const (
	I Shape = "I"
	J Shape = "J"
	L Shape = "L"
	O Shape = "O"
	S Shape = "S"
	Z Shape = "Z"
	T Shape = "T"
)

// Grid is the boolean matrix of a tetromino. Rows go top to bottom.
type Grid [][]bool

// Tetromino pairs a shape matrix with its identity. It is never edited in
// place: rotating returns a new value.
type Tetromino struct {
	Grid  Grid
	Shape Shape
}

// catalog holds the canonical orientations. Values are shared between all
// spawned pieces so nothing may write into them.
var catalog = []*Tetromino{
	/*
		. 0 1 2 3
		0 O O O O
	*/
	{Shape: I, Grid: Grid{
		{true, true, true, true},
	}},
	/*
		. 0 1 2
		0 X X O
		1 O O O
	*/
	{Shape: L, Grid: Grid{
		{false, false, true},
		{true, true, true},
	}},
	/*
		. 0 1 2
		0 O X X
		1 O O O
	*/
	{Shape: J, Grid: Grid{
		{true, false, false},
		{true, true, true},
	}},
	/*
		. 0 1
		0 O O
		1 O O
	*/
	{Shape: O, Grid: Grid{
		{true, true},
		{true, true},
	}},
	/*
		. 0 1 2
		0 X O O
		1 O O X
	*/
	{Shape: S, Grid: Grid{
		{false, true, true},
		{true, true, false},
	}},
	/*
		. 0 1 2
		0 O O X
		1 X O O
	*/
	{Shape: Z, Grid: Grid{
		{true, true, false},
		{false, true, true},
	}},
	/*
		. 0 1 2
		0 X O X
		1 O O O
	*/
	{Shape: T, Grid: Grid{
		{false, true, false},
		{true, true, true},
	}},
}

// Catalog returns a copy of the seven canonical tetrominoes.
func Catalog() []*Tetromino {
	out := make([]*Tetromino, len(catalog))
	for i, t := range catalog {
		out[i] = t.copy()
	}
	return out
}

// newTetromino returns a fresh copy of the catalog entry for s, or nil.
func newTetromino(s Shape) *Tetromino {
	for _, t := range catalog {
		if t.Shape == s {
			return t.copy()
		}
	}
	return nil
}

// randomTetromino draws uniformly from the catalog. There is no bag and no
// repeat avoidance.
func randomTetromino(r *rand.Rand) *Tetromino {
	return catalog[r.IntN(len(catalog))].copy()
}

// Rotate returns g turned 90 degrees clockwise: the matrix is transposed and
// each resulting row reversed. A 1x4 grid becomes 4x1.
func Rotate(g Grid) Grid {
	if len(g) == 0 {
		return Grid{}
	}
	rows, cols := len(g), len(g[0])
	out := make(Grid, cols)
	for c := range cols {
		out[c] = make([]bool, rows)
		for r := range rows {
			out[c][rows-1-r] = g[r][c]
		}
	}
	return out
}

// rotated returns a new tetromino with the grid turned clockwise.
func (t *Tetromino) rotated() *Tetromino {
	return &Tetromino{Grid: Rotate(t.Grid), Shape: t.Shape}
}

func (t *Tetromino) copy() *Tetromino {
	if t == nil {
		return nil
	}
	return &Tetromino{Grid: t.Grid.copy(), Shape: t.Shape}
}

func (g Grid) copy() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i := range g {
		out[i] = make([]bool, len(g[i]))
		copy(out[i], g[i])
	}
	return out
}
