package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown.
var ErrServerClosed = errors.New("server: server closed")

// Server serves the files below Root over raw TCP, one request per connection.
type Server struct {
	Addr string
	// Root is the directory every request path is resolved against.
	Root string
	// ChunkSize is the size of each body write. Zero means 1024 bytes.
	ChunkSize int
	// FileIO selects how file bodies are read: FileIOStd or FileIOUring.
	FileIO string
	// SniffUnknown enables content sniffing for files whose extension has
	// no known content type.
	SniffUnknown bool
	Logger       *slog.Logger

	initOnce   sync.Once
	initErr    error
	root       *os.Root
	dispatcher *Dispatcher
	readers    fileReaders

	mu         sync.Mutex
	listener   net.Listener
	inShutdown bool
	conns      sync.WaitGroup
}

func (s *Server) init() error {
	s.initOnce.Do(func() {
		if s.Logger == nil {
			s.Logger = slog.Default()
		}
		root, err := os.OpenRoot(s.Root)
		if err != nil {
			s.initErr = fmt.Errorf("open root %q: %w", s.Root, err)
			return
		}
		readers, err := newFileReaders(s.FileIO)
		if err != nil {
			root.Close()
			s.initErr = err
			return
		}
		s.root = root
		s.dispatcher = NewDispatcher(root)
		s.readers = readers
	})
	return s.initErr
}

func (s *Server) chunkSize() int {
	if s.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return s.ChunkSize
}

// ListenAndServe binds Addr and serves until Shutdown. A bind failure is
// returned as is.
func (s *Server) ListenAndServe() error {
	if err := s.init(); err != nil {
		return err
	}

	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.release()
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l and handles each one in its own goroutine.
// It returns once l is closed and every in-flight connection has finished.
func (s *Server) Serve(l net.Listener) error {
	if err := s.init(); err != nil {
		l.Close()
		return err
	}

	s.mu.Lock()
	if s.inShutdown {
		s.mu.Unlock()
		l.Close()
		s.release()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	defer s.release()
	defer s.conns.Wait()
	defer l.Close()

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			backoff = nextBackoff(backoff)
			s.Logger.Error("accept error", "err", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if !s.trackConn() {
			conn.Close()
			return ErrServerClosed
		}
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

func (s *Server) trackConn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inShutdown {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inShutdown
}

// ListenerAddr returns the address of the active listener, or nil before Serve.
func (s *Server) ListenerAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting and waits for in-flight connections until ctx is done.
// Connections are never interrupted.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown = true
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		l.Close()
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) release() {
	if s.readers != nil {
		if err := s.readers.Close(); err != nil {
			s.Logger.Warn("close file readers", "err", err)
		}
	}
	if s.root != nil {
		s.root.Close()
	}
}
