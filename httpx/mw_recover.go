package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
)

// RecoverOption configures the Recover middleware.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	onPanic PanicHandler
	logger  *slog.Logger
}

// PanicHandler is called when the wrapped handler panics (except http.ErrAbortHandler).
//
// It must be fast. A panicking PanicHandler is swallowed and reported to the logger.
type PanicHandler func(r *http.Request, info RecoverInfo)

// RecoverInfo describes a recovered panic.
type RecoverInfo struct {
	Value any
	Stack []byte
}

// WithOnPanic sets a PanicHandler, called in addition to logging.
func WithOnPanic(fn PanicHandler) RecoverOption {
	return func(c *recoverConfig) { c.onPanic = fn }
}

// WithRecoverLogger sets the logger panics are reported to.
// Default is a text logger on stderr.
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(c *recoverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Recover returns a middleware that recovers panics from downstream handlers.
//
// http.ErrAbortHandler is re-panicked. If the response has not started a 500 is
// written; otherwise the response is left alone.
func Recover(opts ...RecoverOption) Middleware {
	cfg := recoverConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := NewStatusRecorder(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				info := RecoverInfo{Value: p, Stack: debug.Stack()}
				reportPanic(cfg.logger, r, info)
				if cfg.onPanic != nil {
					if p2 := callOnPanic(cfg.onPanic, r, info); p2 != nil {
						reportPanic(cfg.logger, r, RecoverInfo{
							Value: fmt.Sprintf("httpx: PanicHandler panicked: %v", p2),
							Stack: debug.Stack(),
						})
					}
				}
				if !sw.Started() {
					http.Error(sw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

func reportPanic(l *slog.Logger, r *http.Request, info RecoverInfo) {
	attrs := []any{slog.Any("value", info.Value), slog.String("stack", string(info.Stack))}
	if r != nil {
		attrs = append(attrs, slog.String("method", r.Method))
		if r.URL != nil {
			attrs = append(attrs, slog.String("url", r.URL.String()))
		}
		if id, ok := RequestIDFromRequest(r); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
	}
	l.Error("httpx: panic", attrs...)
}

func callOnPanic(fn PanicHandler, r *http.Request, info RecoverInfo) (panicked any) {
	defer func() {
		if p := recover(); p != nil {
			panicked = p
		}
	}()
	fn(r, info)
	return nil
}
