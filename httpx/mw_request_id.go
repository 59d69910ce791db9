package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header used for request id propagation.
const DefaultRequestIDHeader = "X-Request-ID"

const maxIncomingRequestIDLen = 128

// RequestIDOption configures the RequestID middleware.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	header        string
	trustIncoming bool
	gen           func() string
}

// WithRequestIDHeader overrides the header name. Blank names are ignored.
func WithRequestIDHeader(name string) RequestIDOption {
	return func(c *requestIDConfig) {
		if name = strings.TrimSpace(name); name != "" {
			c.header = name
		}
	}
}

// WithTrustIncoming controls whether a valid incoming id is reused. Default true.
func WithTrustIncoming(v bool) RequestIDOption {
	return func(c *requestIDConfig) { c.trustIncoming = v }
}

// WithGenerator sets the id generator. Default is a random UUID.
func WithGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if fn != nil {
			c.gen = fn
		}
	}
}

// RequestID returns a middleware that ensures each request has a request id.
//
// An incoming id is reused only when it is a single header value of at most 128
// characters drawn from [A-Za-z0-9._-]. The id is stored in the request context and
// echoed in the response header. A request whose context already carries an id (an
// outer RequestID) passes through unchanged.
func RequestID(opts ...RequestIDOption) Middleware {
	cfg := requestIDConfig{
		header:        DefaultRequestIDHeader,
		trustIncoming: true,
		gen:           uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := RequestIDFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			id := ""
			if cfg.trustIncoming {
				if vs := r.Header.Values(cfg.header); len(vs) == 1 && validRequestID(vs[0]) {
					id = vs[0]
				}
			}
			if id == "" {
				id = cfg.gen()
				if !validRequestID(id) {
					id = uuid.NewString()
				}
			}
			w.Header().Set(cfg.header, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

type requestIDKey struct{}

// RequestIDFromContext extracts the request id from ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok && v != ""
}

// RequestIDFromRequest extracts the request id from r.Context().
func RequestIDFromRequest(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	return RequestIDFromContext(r.Context())
}

// WithRequestID returns a derived context carrying id. An empty id returns ctx unchanged.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxIncomingRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
		case b >= '0' && b <= '9':
		case b == '.' || b == '_' || b == '-':
		default:
			return false
		}
	}
	return true
}
