package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"tetrisengine/client"

	"github.com/eiannone/keyboard"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[22;0H\n\r\033[?25h"
)

func main() {
	address := flag.String("address", "", "tetris server address, the game runs locally when empty")
	debug := flag.Bool("debug", false, "log debug messages")
	logFile := flag.String("log", "", "file to write logs to")
	flag.Parse()

	if err := run(*address, *logFile, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "tetris: %v\n", err)
		os.Exit(1)
	}
}

// run plays until the player quits. Deferred cleanup runs before main exits.
func run(address, logFile string, debug bool) error {
	var w io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("unable to open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))

	c, err := client.New(context.Background(), logger, &client.Options{Address: address})
	if err != nil {
		logger.Error("unable to start tetris", slog.String("error", err.Error()))
		return fmt.Errorf("unable to start tetris: %w", err)
	}
	defer keyboard.Close() //nolint: errcheck

	fmt.Print(hideCursor)
	c.Start()
	fmt.Print(showCursor)
	return nil
}
