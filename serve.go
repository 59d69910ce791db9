package actuator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 30 * time.Second
)

// ServeSpec configures Serve.
type ServeSpec struct {
	// Addr is the listen address (required for Serve, ignored by ServeListener).
	Addr string
	// Handler is required.
	Handler http.Handler

	// ShutdownTimeout bounds graceful shutdown. Default 30s.
	ShutdownTimeout time.Duration

	// Signals trigger shutdown. Default SIGINT + SIGTERM on Unix, os.Interrupt elsewhere.
	Signals []os.Signal
	// DisableSignals turns signal handling off; only ctx stops the server.
	DisableSignals bool

	Logger *slog.Logger
}

// Serve listens on spec.Addr and serves until ctx is done, a signal arrives or the
// server fails. A graceful stop returns nil.
func Serve(ctx context.Context, spec ServeSpec) error {
	srv := newHTTPServerWithDefaults(spec.Addr, spec.Handler)
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("actuator: listen %q: %w", srv.Addr, err)
	}
	return serve(ctx, srv, ln, spec)
}

// ServeListener is Serve on an existing listener. It closes ln.
func ServeListener(ctx context.Context, ln net.Listener, spec ServeSpec) error {
	if ln == nil {
		panic("actuator: ServeListener: nil listener")
	}
	srv := newHTTPServerWithDefaults(ln.Addr().String(), spec.Handler)
	return serve(ctx, srv, ln, spec)
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener, spec ServeSpec) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := spec.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := spec.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	if !spec.DisableSignals {
		sigs := spec.Signals
		if len(sigs) == 0 {
			sigs = defaultSignals()
		}
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, sigs...)
		defer stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("actuator: serving", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("actuator: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("actuator: shutting down", "timeout", timeout)
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("actuator: shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newHTTPServerWithDefaults(addr string, handler http.Handler) *http.Server {
	if strings.TrimSpace(addr) == "" {
		panic("actuator: empty addr")
	}
	if handler == nil {
		panic("actuator: nil handler")
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
}
