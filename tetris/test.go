package tetris

import (
	"math/rand/v2"
	"sync"
	"time"
)

// MockTicker is a mock implementation of the ticker interface.
type MockTicker struct {
	ch          chan time.Time
	stop, reset bool
	last        time.Duration
	mu          sync.Mutex
}

func NewMockTicker() *MockTicker          { return &MockTicker{ch: make(chan time.Time)} }
func (m *MockTicker) C() <-chan time.Time { return m.ch }
func (m *MockTicker) Tick()               { m.ch <- time.Now() }
func (m *MockTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
}
func (m *MockTicker) Reset(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
	m.stop = false
	m.last = d
}
func (m *MockTicker) IsReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}
func (m *MockTicker) IsStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}
func (m *MockTicker) LastInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// NewTestTetris creates a session whose active piece is shape at the spawn
// position. Pieces spawned afterwards come from a fixed seed.
func NewTestTetris(shape Shape) *Tetris {
	t := New(rand.New(rand.NewPCG(1, 2)))
	t.setTetromino(newTetromino(shape))
	return t
}

// NewTestGame creates a game around t and returns it with a manual ticker.
func NewTestGame(t *Tetris) (*Game, *MockTicker) {
	ticker := NewMockTicker()
	return NewConfigurableGame(nil, t, ticker), ticker
}
