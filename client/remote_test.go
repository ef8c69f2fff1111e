package client

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"tetrisengine/pb"
	"tetrisengine/server"
	"tetrisengine/tetris"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// testRemote serves a session service over bufconn. Every game uses ticker,
// or a fresh mock ticker when it's nil.
func testRemote(t *testing.T, ticker *tetris.MockTicker) (*RemoteGame, *server.Server) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	newTicker := func() tetris.Ticker { return tetris.NewMockTicker() }
	if ticker != nil {
		newTicker = func() tetris.Ticker { return ticker }
	}
	srv := server.New(&server.Options{NewTicker: newTicker})
	s := grpc.NewServer()
	pb.RegisterSessionServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(func() {
		s.Stop()
		srv.Close()
	})

	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return lis.Dial()
	}), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	return newRemoteGame(context.Background(), pb.NewSessionServiceClient(conn), conn, slog.Default()), srv
}

func nextUpdate(t *testing.T, r *RemoteGame) *tetris.Tetris {
	t.Helper()
	select {
	case u := <-r.GetUpdate():
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for remote update")
		return nil
	}
}

func TestRemoteGame(t *testing.T) {
	rg, _ := testRemote(t, nil)
	rg.Start()
	require.NotEmpty(t, rg.id)

	first := nextUpdate(t, rg)
	require.NotNil(t, first.Tetromino)
	assert.Equal(t, 4, first.X)

	rg.Action(tetris.MoveLeft)
	assert.Eventually(t, func() bool {
		select {
		case u := <-rg.GetUpdate():
			return u.X == 3
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	rg.Stop()
	select {
	case <-rg.ctx.Done():
	default:
		t.Error("wanted the remote context to be canceled")
	}
}

func TestRemoteGameActionBeforeStart(t *testing.T) {
	rg, _ := testRemote(t, nil)
	// no session yet, nothing to send.
	rg.Action(tetris.MoveLeft)
	rg.Stop()
}

func TestRemoteGameResetAfterGameOver(t *testing.T) {
	ticker := tetris.NewMockTicker()
	rg, _ := testRemote(t, ticker)
	rg.Start()
	defer rg.Stop()
	require.NotEmpty(t, rg.id)
	nextUpdate(t, rg)

	over := false
	for range 100 {
		rg.Action(tetris.DropDown)
		if nextUpdate(t, rg).GameOver {
			over = true
			break
		}
	}
	require.True(t, over, "wanted the game to be over")

	rg.Action(tetris.Restart)
	assert.Eventually(t, func() bool {
		select {
		case u := <-rg.GetUpdate():
			return !u.GameOver && u.Score == 0 && u.Y == 0
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// gravity updates of the new game still arrive through the stream.
	ticker.Tick()
	assert.Eventually(t, func() bool {
		select {
		case u := <-rg.GetUpdate():
			return !u.GameOver && u.Y == 1
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
