package httpx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// AccessLog returns a middleware that logs one zerolog event per request at info
// level: method, uri, status, size, duration and the request id when one is set.
//
// Requests answering 5xx are logged at error level. The zerolog global level applies,
// so the access log can be silenced at runtime.
func AccessLog(logger zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := NewStatusRecorder(w)
			next.ServeHTTP(sr, r)

			status := sr.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := logger.Info()
			if status >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			if id, ok := RequestIDFromRequest(r); ok {
				ev = ev.Str("request_id", id)
			}
			ev.Str("method", r.Method).
				Str("uri", r.RequestURI).
				Int("status", status).
				Int64("size", sr.Size()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
