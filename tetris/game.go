package tetris

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Action string

const (
	MoveLeft    Action = "left"   // Moves the Tetromino one step to the left.
	MoveRight   Action = "right"  // Moves the Tetromino one step to the right.
	MoveDown    Action = "down"   // Moves the Tetromino one step down, locking it if blocked.
	DropDown    Action = "drop"   // Drops the Tetromino down the stack.
	RotateRight Action = "rotate" // Rotates the Tetromino clockwise.
	Pause       Action = "pause"  // Pauses or resumes the game.
	Restart     Action = "reset"  // Starts a new game.
)

var actions = []Action{MoveLeft, MoveRight, MoveDown, DropDown, RotateRight, Pause, Restart}

// ParseAction validates an action received as a string.
func ParseAction(s string) (Action, error) {
	for _, a := range actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

// NewTicker returns a Ticker backed by a stopped time.Ticker.
func NewTicker() Ticker {
	t := time.NewTicker(time.Hour)
	t.Stop()
	return &wrappedTicker{ticker: t}
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// ErrStopped is returned when an action reaches a game that was stopped.
var ErrStopped = errors.New("game stopped")

type request struct {
	action Action
	reply  chan *Tetris
}

// Game drives a Tetris session: gravity ticks and player actions are applied
// one at a time by a single goroutine.
type Game struct {
	updateCh chan *Tetris
	actionCh chan request
	doneCh   chan struct{}
	stopOnce sync.Once
	tetris   *Tetris
	ticker   Ticker
	logger   *slog.Logger
	interval time.Duration
}

func NewGame(l *slog.Logger) *Game {
	return NewConfigurableGame(l, New(nil), NewTicker())
}

func NewConfigurableGame(l *slog.Logger, t *Tetris, ticker Ticker) *Game {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Game{
		updateCh: make(chan *Tetris, 1),
		actionCh: make(chan request),
		doneCh:   make(chan struct{}),
		tetris:   t,
		ticker:   ticker,
		logger:   l,
	}
}

// Start publishes the first snapshot and begins listening for ticks and
// actions. It returns immediately.
func (g *Game) Start() {
	g.publish(g.Read())
	go g.listen()
}

// Stop ends the listening goroutine. The game can't be restarted.
func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		g.ticker.Stop()
		close(g.doneCh)
	})
}

// Action queues a for the listening goroutine. It is dropped if the game
// was stopped.
func (g *Game) Action(a Action) {
	select {
	case g.actionCh <- request{action: a}:
	case <-g.doneCh:
	}
}

// Do applies a and returns the snapshot taken right after it.
func (g *Game) Do(ctx context.Context, a Action) (*Tetris, error) {
	reply := make(chan *Tetris, 1)
	select {
	case g.actionCh <- request{action: a, reply: reply}:
	case <-g.doneCh:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-reply, nil
}

// GetUpdate returns the channel carrying the latest snapshot after every
// change. Unread snapshots are replaced by newer ones.
func (g *Game) GetUpdate() <-chan *Tetris {
	return g.updateCh
}

// Read returns a copy of the current Tetris status that's safe to read concurrently.
func (g *Game) Read() *Tetris {
	g.tetris.mu.RLock()
	defer g.tetris.mu.RUnlock()
	return g.tetris.Snapshot()
}

func (g *Game) listen() {
	g.tetris.mu.Lock()
	g.interval = 0
	g.schedule()
	g.tetris.mu.Unlock()

	for {
		var reply chan *Tetris
		select {
		case <-g.ticker.C():
			g.tetris.mu.Lock()
			g.tetris.SoftDrop()
		case r := <-g.actionCh:
			g.tetris.mu.Lock()
			g.tetris.Apply(r.action)
			reply = r.reply
		case <-g.doneCh:
			return
		}
		g.schedule()
		s := g.tetris.Snapshot()
		g.tetris.mu.Unlock()
		if reply != nil {
			reply <- s
		}
		g.publish(s)
	}
}

// schedule keeps the ticker in line with the session after a change. A new
// interval applies from the next tick. Must be called with the lock held.
func (g *Game) schedule() {
	switch {
	case g.tetris.GameOver:
		if g.interval != 0 {
			g.logger.Debug("game over",
				slog.Int("score", g.tetris.Score),
				slog.Int("level", g.tetris.Level),
				slog.Int("lines", g.tetris.LinesClear))
			g.ticker.Stop()
			g.interval = 0
		}
	case g.tetris.Interval != g.interval:
		g.logger.Debug("gravity interval changed",
			slog.Int("level", g.tetris.Level),
			slog.Duration("interval", g.tetris.Interval))
		g.interval = g.tetris.Interval
		g.ticker.Reset(g.interval)
	}
}

// publish sends s, replacing a snapshot nobody has read yet.
func (g *Game) publish(s *Tetris) {
	select {
	case <-g.updateCh:
	default:
	}
	select {
	case g.updateCh <- s:
	default:
	}
}
