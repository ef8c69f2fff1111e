package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"tetrisengine/tetris"

	"github.com/eiannone/keyboard"
)

type tetrisGame interface {
	Start()
	GetUpdate() <-chan *tetris.Tetris
	Action(tetris.Action)
	Stop()
}

type renderer interface {
	local(*tetris.Tetris)
}

type Client struct {
	tetris tetrisGame
	render renderer
	logger *slog.Logger
	kbCh   <-chan keyboard.KeyEvent
	doneCh chan struct{}
}

type Options struct {
	// Address of a tetris server. The game runs locally when empty.
	Address string
}

// New opens the keyboard and prepares a local or remote game.
func New(ctx context.Context, l *slog.Logger, o *Options) (*Client, error) {
	var game tetrisGame
	switch o.Address {
	case "":
		game = tetris.NewGame(l)
	default:
		rg, err := NewRemoteGame(ctx, o.Address, l)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", o.Address, err)
		}
		game = rg
	}
	r, err := newRender(l)
	if err != nil {
		game.Stop()
		return nil, fmt.Errorf("failed to load renderer: %w", err)
	}
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		game.Stop()
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	return &Client{
		tetris: game,
		render: r,
		logger: l,
		kbCh:   kb,
		doneCh: make(chan struct{}),
	}, nil
}

// Start runs the game until the player quits.
func (c *Client) Start() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.listenTetris()
	}()
	c.tetris.Start()
	c.listenKB()
	close(c.doneCh)
	c.tetris.Stop()
	wg.Wait()
}

func (c *Client) listenTetris() {
	for {
		select {
		case u := <-c.tetris.GetUpdate():
			c.render.local(u)
		case <-c.doneCh:
			return
		}
	}
}

func (c *Client) listenKB() {
	for {
		event, ok := <-c.kbCh
		if !ok {
			c.logger.Error("Keyboard events channel closed unexpectedly")
			return
		}
		if event.Err != nil {
			c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
			return
		}
		if event.Key == keyboard.KeyCtrlC || event.Key == keyboard.KeyEsc {
			return
		}
		if a, ok := keyAction(event); ok {
			c.tetris.Action(a)
		}
	}
}

func keyAction(event keyboard.KeyEvent) (tetris.Action, bool) {
	switch {
	case event.Key == keyboard.KeyArrowDown || event.Rune == 's':
		return tetris.MoveDown, true
	case event.Key == keyboard.KeyArrowLeft || event.Rune == 'a':
		return tetris.MoveLeft, true
	case event.Key == keyboard.KeyArrowRight || event.Rune == 'd':
		return tetris.MoveRight, true
	case event.Key == keyboard.KeyArrowUp || event.Rune == 'e' || event.Rune == 'w':
		return tetris.RotateRight, true
	case event.Key == keyboard.KeySpace:
		return tetris.DropDown, true
	case event.Rune == 'p':
		return tetris.Pause, true
	case event.Rune == 'r':
		return tetris.Restart, true
	}
	return "", false
}
