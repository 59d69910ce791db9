// Package httpx provides the small net/http helpers the management surface is built on.
//
// # Middleware chain
//
//	type Middleware func(http.Handler) http.Handler
//	type Middlewares []Middleware
//
// Chain(a, b, c).Handler(h) returns a(b(c(h))). Nil middlewares are ignored;
// Handler(nil) panics.
//
//	base := httpx.Chain(httpx.Recover(), httpx.RequestID())
//	h := base.With(guard).Handler(endpoint)
//
// # Built-in middlewares
//
//   - Recover: turns downstream panics into a 500 and reports them to a *slog.Logger.
//   - RequestID: reuses a valid X-Request-ID or generates a UUID, and stores it in the
//     request context.
//   - AccessLog: one zerolog event per request.
//
// StatusRecorder is the ResponseWriter wrapper they rely on; it is exported so request
// instrumentation can read the final status.
package httpx
