package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kianooshaz/fileserver-from-scratch/internal/config"
	"github.com/kianooshaz/fileserver-from-scratch/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		port       = flag.Int("port", 0, "port to listen on (default 8080)")
		threads    = flag.Int("threads", 0, "number of worker threads (default: number of CPUs)")
		files      = flag.String("files", "", "directory to serve (default .)")
		help       = flag.Bool("help", false, "show usage")
	)
	flag.Parse()

	if *help {
		fmt.Println("fileserver")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  fileserver [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *threads != 0 {
		cfg.Server.Threads = *threads
	}
	if *files != "" {
		cfg.Server.Root = *files
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	runtime.GOMAXPROCS(cfg.Server.Threads)

	logger.Info("HTTP server initializing",
		"port", cfg.Server.Port,
		"threads", cfg.Server.Threads,
		"directory", cfg.Server.Root,
		"file_io", cfg.Server.FileIO,
	)

	s := &server.Server{
		Addr:         cfg.ServerAddress(),
		Root:         cfg.Server.Root,
		ChunkSize:    cfg.Server.ChunkSize,
		FileIO:       cfg.Server.FileIO,
		SniffUnknown: cfg.Server.SniffUnknown,
		Logger:       logger,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = s.Shutdown(ctx)
	cancel()
	if err != nil {
		// Stalled connections are abandoned rather than waited on.
		logger.Error("shutdown error", "err", err)
		os.Exit(1)
	}
	if err := <-errCh; err != nil && !errors.Is(err, server.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	level, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
