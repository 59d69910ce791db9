package httpx

import "net/http"

// Middleware is a standard net/http middleware.
type Middleware func(http.Handler) http.Handler

// Middlewares is an ordered middleware chain.
//
// Chain(a, b, c).Handler(h) returns a(b(c(h))).
type Middlewares []Middleware

// Chain creates a middleware chain. Nil middlewares are ignored.
func Chain(mws ...Middleware) Middlewares {
	out := appendNonNil(nil, mws)
	if len(out) == 0 {
		return nil
	}
	return out
}

// With returns a new chain with more appended. The receiver is never mutated.
func (mws Middlewares) With(more ...Middleware) Middlewares {
	out := make([]Middleware, 0, len(mws)+len(more))
	out = appendNonNil(out, mws)
	out = appendNonNil(out, more)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Handler wraps h with the chain.
//
// It panics if h is nil (an assembly error).
func (mws Middlewares) Handler(h http.Handler) http.Handler {
	if h == nil {
		panic("httpx: nil endpoint handler")
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Wrap applies mws to h.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	return Chain(mws...).Handler(h)
}

func appendNonNil(dst, src []Middleware) []Middleware {
	for _, mw := range src {
		if mw != nil {
			dst = append(dst, mw)
		}
	}
	return dst
}
