package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"tetrisengine/pb"
	"tetrisengine/tetris"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// session is one running game and the streams watching it.
type session struct {
	game     *tetris.Game
	watchers map[chan *tetris.Tetris]struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
}

func newSession(g *tetris.Game) *session {
	return &session{
		game:     g,
		watchers: make(map[chan *tetris.Tetris]struct{}),
		doneCh:   make(chan struct{}),
	}
}

// relay forwards every game update to the watchers. Slow watchers only get
// the latest update.
func (s *session) relay() {
	for {
		select {
		case u := <-s.game.GetUpdate():
			s.mu.Lock()
			for ch := range s.watchers {
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- u:
				default:
				}
			}
			s.mu.Unlock()
		case <-s.doneCh:
			return
		}
	}
}

func (s *session) attach() chan *tetris.Tetris {
	ch := make(chan *tetris.Tetris, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// detach removes ch and returns how many watchers are left.
func (s *session) detach(ch chan *tetris.Tetris) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers, ch)
	return len(s.watchers)
}

func (s *session) close() {
	close(s.doneCh)
	s.game.Stop()
}

type Options struct {
	Logger *slog.Logger
	// NewTicker returns the gravity ticker of every new game. Defaults to tetris.NewTicker.
	NewTicker func() tetris.Ticker
}

type Server struct {
	pb.UnimplementedSessionServiceServer
	sessions  map[string]*session
	logger    *slog.Logger
	newTicker func() tetris.Ticker
	mu        sync.Mutex
}

func New(o *Options) *Server {
	s := &Server{
		sessions:  make(map[string]*session),
		logger:    o.Logger,
		newTicker: o.NewTicker,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.newTicker == nil {
		s.newTicker = tetris.NewTicker
	}
	return s
}

func (s *Server) NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	id := uuid.New().String()
	l := s.logger.With(slog.String("session", id))
	sess := newSession(tetris.NewConfigurableGame(l, tetris.New(nil), s.newTicker()))

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.game.Start()
	go sess.relay()
	l.Debug("session created")
	return wrapperspb.String(id), nil
}

func (s *Server) Command(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, a, err := pb.ParseCommand(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	t, err := sess.game.Do(ctx, a)
	if err != nil {
		if errors.Is(err, tetris.ErrStopped) {
			return nil, status.Errorf(codes.NotFound, "session %s closed", id)
		}
		return nil, status.FromContextError(err).Err()
	}
	return pb.FromTetris(t), nil
}

func (s *Server) Snapshot(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	sess, err := s.session(in.GetValue())
	if err != nil {
		return nil, err
	}
	return pb.FromTetris(sess.game.Read()), nil
}

// Watch streams the session until it's closed or the client goes away. Game
// over doesn't end the stream so a reset keeps reaching the watcher. A session
// whose last watcher went away is closed.
func (s *Server) Watch(in *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	id := in.GetValue()
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	updates := sess.attach()

	if err := stream.Send(pb.FromTetris(sess.game.Read())); err != nil {
		s.detach(id, sess, updates)
		return fmt.Errorf("failed to send Watch message: %w", err)
	}
	ctx := stream.Context()
	for {
		select {
		case u := <-updates:
			if err := stream.Send(pb.FromTetris(u)); err != nil {
				s.detach(id, sess, updates)
				return fmt.Errorf("failed to send Watch message: %w", err)
			}
		case <-sess.doneCh:
			sess.detach(updates)
			return nil
		case <-ctx.Done():
			s.detach(id, sess, updates)
			return ctx.Err()
		}
	}
}

// detach removes a watcher that went away and closes the session when nobody
// else watches it.
func (s *Server) detach(id string, sess *session, ch chan *tetris.Tetris) {
	if sess.detach(ch) > 0 {
		return
	}
	if s.remove(id, sess) {
		s.logger.Debug("session closed after its last watcher left", slog.String("session", id))
	}
}

func (s *Server) CloseSession(_ context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id := in.GetValue()
	if _, err := uuid.Parse(id); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid session id %q", id)
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok || !s.remove(id, sess) {
		return nil, status.Errorf(codes.NotFound, "session %s not found", id)
	}
	s.logger.Debug("session closed", slog.String("session", id))
	return &emptypb.Empty{}, nil
}

// remove closes sess and drops it from the server. It reports false when sess
// was already removed.
func (s *Server) remove(id string, sess *session) bool {
	s.mu.Lock()
	if s.sessions[id] != sess {
		s.mu.Unlock()
		return false
	}
	delete(s.sessions, id)
	s.mu.Unlock()
	sess.close()
	return true
}

// Close stops every running game.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.close()
		delete(s.sessions, id)
	}
}

func (s *Server) session(id string) (*session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid session id %q", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "session %s not found", id)
	}
	return sess, nil
}
