package localserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/yndnr/sod-go/internal/telemetry/logger"
	"github.com/yndnr/sod-go/pkg/frame"
)

// Worker is the unit of work created for one connection.
type Worker interface {
	// Join blocks until the worker has finished.
	Join()
	// Destroy releases the worker. It must tolerate repeated calls.
	Destroy() error
}

// Handler creates a worker for an accepted connection. On error the
// server closes conn.
type Handler interface {
	Create(l net.Listener, conn net.Conn) (Worker, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(l net.Listener, conn net.Conn) (Worker, error)

// Create calls f.
func (f HandlerFunc) Create(l net.Listener, conn net.Conn) (Worker, error) {
	return f(l, conn)
}

// Config configures a Server.
type Config struct {
	// Network defaults to frame.DefaultNetwork.
	Network string
	Path    string
	// Mode is applied to a unix socket after listening. Zero keeps the
	// umask-derived permissions.
	Mode        os.FileMode
	AcceptRate  float64
	AcceptBurst int
	Logger      logger.Logger
}

// Server accepts connections and dispatches them to a Handler.
type Server struct {
	cfg     Config
	handler Handler
	limiter *rate.Limiter
	log     logger.Logger

	mu       sync.Mutex
	listener net.Listener

	running   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// New creates a server. It does not listen until Listen or
// ListenAndServe is called.
func New(cfg Config, h Handler) *Server {
	if cfg.Network == "" {
		cfg.Network = frame.DefaultNetwork
	}
	s := &Server{
		cfg:     cfg,
		handler: h,
		log:     cfg.Logger,
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	return s
}

// Listen opens the listening socket.
func (s *Server) Listen() error {
	if s.isUnix() {
		if err := prepareSocketPath(s.cfg.Path); err != nil {
			return err
		}
	}

	l, err := net.Listen(s.cfg.Network, s.cfg.Path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Path, err)
	}

	if s.isUnix() && s.cfg.Mode != 0 {
		if err := os.Chmod(s.cfg.Path, s.cfg.Mode); err != nil {
			_ = l.Close()
			return fmt.Errorf("chmod %s: %w", s.cfg.Path, err)
		}
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.running.Store(true)
	s.log.Info("listening", "network", s.cfg.Network, "addr", l.Addr().String())
	return nil
}

func (s *Server) isUnix() bool {
	return s.cfg.Network == "unix" || s.cfg.Network == "unixpacket"
}

// prepareSocketPath creates the socket's directory and removes a socket
// left by a previous run. Any other file at path is an error.
func prepareSocketPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	fi, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}

// Addr returns the listening address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Running reports whether the server is listening and not yet closed.
func (s *Server) Running() bool {
	return s.running.Load()
}

// ListenAndServe listens and then serves until ctx is done or Close is
// called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop on a listener opened by Listen. It returns
// nil when the server is closed.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return errors.New("localserver: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	ctx = logger.WithLogger(ctx, s.log)
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn("accept", "error", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.dispatch(ctx, l, conn)
	}
}

func (s *Server) dispatch(ctx context.Context, l net.Listener, conn net.Conn) {
	if cred, err := peerCredentials(conn); err == nil {
		ctx = logger.WithPeer(ctx, cred.String())
	}
	log := logger.L(ctx)

	w, err := s.handler.Create(l, conn)
	if err != nil {
		log.Error("create worker", "error", err)
		_ = conn.Close()
		return
	}
	log.Debug("connection accepted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		w.Join()
		if err := w.Destroy(); err != nil {
			log.Warn("destroy worker", "error", err)
		}
	}()
}

// Close stops accepting. Workers already running are left alone. A unix
// socket file is removed by closing its listener.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.running.Store(false)
		s.mu.Lock()
		l := s.listener
		s.mu.Unlock()
		if l != nil {
			s.closeErr = l.Close()
		}
	})
	return s.closeErr
}

// Shutdown stops accepting and waits for running workers to finish or
// ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	closeErr := s.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
