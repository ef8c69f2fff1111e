// Package tetris contains the logic of the game: the playfield, the
// tetrominoes and the state machine that spawns, moves, locks and scores them.
package tetris

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Tetris is a single game session. It is not safe for concurrent use on its
// own: Game serializes access to it and hands out copies made with Snapshot.
type Tetris struct {
	Stack Board

	// Tetromino is the active piece. It is nil only after the game is over.
	// X and Y are the board coordinates of its top-left cell.
	Tetromino *Tetromino
	X, Y      int

	Score      int
	Level      int
	LinesClear int
	Paused     bool
	GameOver   bool
	Interval   time.Duration

	rand *rand.Rand
	mu   sync.RWMutex
}

// New returns a session with an empty stack and an active piece. A nil r
// uses a randomly seeded source.
func New(r *rand.Rand) *Tetris {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	t := &Tetris{rand: r}
	t.Reset()
	return t
}

// Reset discards the current game and starts a new one.
func (t *Tetris) Reset() {
	t.Stack = emptyBoard()
	t.Tetromino = nil
	t.Score = 0
	t.Level = 1
	t.LinesClear = 0
	t.Paused = false
	t.GameOver = false
	t.Interval = InitialInterval
	t.spawn()
}

// TogglePause flips the paused flag. It is ignored once the game is over.
func (t *Tetris) TogglePause() {
	if t.GameOver {
		return
	}
	t.Paused = !t.Paused
}

func (t *Tetris) MoveLeft()  { t.move(-1) }
func (t *Tetris) MoveRight() { t.move(1) }

// Rotate turns the active piece clockwise if it fits where it is. There are
// no wall kicks.
func (t *Tetris) Rotate() {
	if !t.playable() {
		return
	}
	r := t.Tetromino.rotated()
	if !t.Stack.Collides(r.Grid, t.X, t.Y) {
		t.Tetromino = r
	}
}

// SoftDrop moves the active piece one row down. When the row below is
// blocked the piece locks instead.
func (t *Tetris) SoftDrop() {
	if !t.playable() {
		return
	}
	if !t.Stack.Collides(t.Tetromino.Grid, t.X, t.Y+1) {
		t.Y++
		return
	}
	t.lock()
}

// Drop moves the active piece down until it is blocked and locks it.
func (t *Tetris) Drop() {
	if !t.playable() {
		return
	}
	for !t.Stack.Collides(t.Tetromino.Grid, t.X, t.Y+1) {
		t.Y++
	}
	t.lock()
}

// Apply runs the command for a. Unknown actions do nothing.
func (t *Tetris) Apply(a Action) {
	switch a {
	case MoveLeft:
		t.MoveLeft()
	case MoveRight:
		t.MoveRight()
	case RotateRight:
		t.Rotate()
	case MoveDown:
		t.SoftDrop()
	case DropDown:
		t.Drop()
	case Pause:
		t.TogglePause()
	case Restart:
		t.Reset()
	}
}

// Snapshot returns a deep copy of the session that is safe to read from
// another goroutine.
func (t *Tetris) Snapshot() *Tetris {
	return &Tetris{
		Stack:      t.Stack.copy(),
		Tetromino:  t.Tetromino.copy(),
		X:          t.X,
		Y:          t.Y,
		Score:      t.Score,
		Level:      t.Level,
		LinesClear: t.LinesClear,
		Paused:     t.Paused,
		GameOver:   t.GameOver,
		Interval:   t.Interval,
	}
}

func (t *Tetris) playable() bool {
	return t.Tetromino != nil && !t.GameOver && !t.Paused
}

func (t *Tetris) move(dx int) {
	if !t.playable() {
		return
	}
	if !t.Stack.Collides(t.Tetromino.Grid, t.X+dx, t.Y) {
		t.X += dx
	}
}

// spawn places a random piece at the top center. The spawn position is not
// checked for collisions: a blocked spawn ends the game when it locks.
func (t *Tetris) spawn() {
	t.setTetromino(randomTetromino(t.rand))
}

func (t *Tetris) setTetromino(tm *Tetromino) {
	t.Tetromino = tm
	t.X = Width/2 - 1
	t.Y = 0
}

// lock moves the active piece into the stack, clears rows and either ends
// the game or spawns the next piece.
func (t *Tetris) lock() {
	t.toStack()
	y := t.Y
	t.clearLines()
	if y <= 0 {
		t.GameOver = true
		return
	}
	t.spawn()
}

func (t *Tetris) toStack() {
	t.Stack.Merge(t.Tetromino.Grid, t.X, t.Y, t.Tetromino.Shape)
	t.Tetromino = nil
}

func (t *Tetris) clearLines() {
	lines := t.Stack.ClearCompletedRows()
	if lines == 0 {
		return
	}
	t.Score += points(lines, t.Level)
	t.LinesClear += lines
	t.Level = nextLevel(t.Level, lines)
	t.Interval = interval(t.Level)
}
