package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"tetrisengine/pb"
	"tetrisengine/tetris"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const rpcTimeout = 5 * time.Second

// RemoteGame plays a session hosted by a tetris server.
type RemoteGame struct {
	client   pb.SessionServiceClient
	conn     io.Closer
	logger   *slog.Logger
	updateCh chan *tetris.Tetris

	ctx    context.Context
	cancel context.CancelFunc
	id     string
	wg     sync.WaitGroup
}

func NewRemoteGame(ctx context.Context, addr string, l *slog.Logger) (*RemoteGame, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return newRemoteGame(ctx, pb.NewSessionServiceClient(conn), conn, l), nil
}

func newRemoteGame(ctx context.Context, c pb.SessionServiceClient, conn io.Closer, l *slog.Logger) *RemoteGame {
	ctx, cancel := context.WithCancel(ctx)
	return &RemoteGame{
		client:   c,
		conn:     conn,
		logger:   l,
		updateCh: make(chan *tetris.Tetris, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start creates the remote session and starts streaming its updates.
func (r *RemoteGame) Start() {
	ctx, cancel := context.WithTimeout(r.ctx, rpcTimeout)
	defer cancel()
	id, err := r.client.NewSession(ctx, &emptypb.Empty{})
	if err != nil {
		r.logger.Error("unable to create session", slog.String("error", err.Error()))
		return
	}
	r.id = id.GetValue()
	stream, err := r.client.Watch(r.ctx, id)
	if err != nil {
		r.logger.Error("unable to watch session", slog.String("error", err.Error()))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			rcv, err := stream.Recv()
			if err != nil {
				r.logRecvErr(err)
				return
			}
			t, err := pb.ToTetris(rcv)
			if err != nil {
				r.logger.Error("unable to decode snapshot", slog.String("error", err.Error()))
				continue
			}
			r.publish(t)
		}
	}()
}

// publish replaces any snapshot the client hasn't rendered yet.
func (r *RemoteGame) publish(t *tetris.Tetris) {
	select {
	case <-r.updateCh:
	default:
	}
	select {
	case r.updateCh <- t:
	default:
	}
}

func (r *RemoteGame) logRecvErr(err error) {
	if errors.Is(err, io.EOF) {
		r.logger.Debug("stream.Recv() closed with EOF", slog.String("msg", err.Error()))
		return
	}
	st, ok := status.FromError(err)
	switch {
	case ok && st.Code() == codes.Canceled:
		r.logger.Debug("stream.Recv() closed with Cancel", slog.String("msg", st.Message()))
	case ok && st.Code() == codes.DeadlineExceeded:
		r.logger.Debug("stream.Recv() closed with DeadlineExceeded", slog.String("msg", st.Message()))
	default:
		r.logger.Error("stream.Recv() unable to receive message", slog.String("error", err.Error()))
	}
}

func (r *RemoteGame) GetUpdate() <-chan *tetris.Tetris {
	return r.updateCh
}

// Action sends a to the session and publishes the snapshot it answers with.
func (r *RemoteGame) Action(a tetris.Action) {
	if r.id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(r.ctx, rpcTimeout)
	defer cancel()
	res, err := r.client.Command(ctx, pb.NewCommand(r.id, a))
	if err != nil {
		r.logger.Error("unable to send command", slog.String("action", string(a)), slog.String("error", err.Error()))
		return
	}
	t, err := pb.ToTetris(res)
	if err != nil {
		r.logger.Error("unable to decode snapshot", slog.String("error", err.Error()))
		return
	}
	r.publish(t)
}

// Stop closes the remote session and the connection.
func (r *RemoteGame) Stop() {
	if r.id != "" {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		if _, err := r.client.CloseSession(ctx, wrapperspb.String(r.id)); err != nil {
			r.logger.Error("unable to close session", slog.String("error", err.Error()))
		}
		cancel()
	}
	r.cancel()
	r.wg.Wait()
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.logger.Error("unable to close gRPC client", slog.String("error", err.Error()))
		}
	}
}
