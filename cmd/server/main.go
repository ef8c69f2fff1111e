package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"tetrisengine/pb"
	"tetrisengine/server"

	"google.golang.org/grpc"
)

func main() {
	port := flag.Int("port", 9000, "port to listen on")
	debug := flag.Bool("debug", false, "log debug messages")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	defer lis.Close()

	srv := server.New(&server.Options{Logger: logger})
	defer srv.Close()
	s := grpc.NewServer()
	pb.RegisterSessionServiceServer(s, srv)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		// closing the sessions ends the Watch streams GracefulStop waits for.
		srv.Close()
		s.GracefulStop()
	}()

	logger.Info("starting server", slog.String("address", lis.Addr().String()))
	if err := s.Serve(lis); err != nil {
		logger.Error("failed to serve", slog.String("error", err.Error()))
	}
}
