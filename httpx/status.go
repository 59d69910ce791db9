package httpx

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// StatusRecorder wraps a ResponseWriter and remembers the response status.
//
// Optional interfaces (Flusher, Hijacker) are forwarded; Unwrap lets
// http.ResponseController reach the underlying writer.
type StatusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
	size   int64
}

// NewStatusRecorder wraps w. A recorder passed in again is returned as is.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if sr, ok := w.(*StatusRecorder); ok {
		return sr
	}
	return &StatusRecorder{ResponseWriter: w}
}

// Status returns the written status, 200 if the body was written without an
// explicit WriteHeader, and 0 if nothing was written yet.
func (w *StatusRecorder) Status() int { return w.status }

// Size returns the number of body bytes written.
func (w *StatusRecorder) Size() int64 { return w.size }

// Started reports whether the response has started.
func (w *StatusRecorder) Started() bool { return w.wrote }

func (w *StatusRecorder) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusRecorder) Write(p []byte) (int, error) {
	if !w.wrote {
		w.wrote = true
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += int64(n)
	return n, err
}

// Unwrap returns the underlying ResponseWriter.
func (w *StatusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Flush implements http.Flusher if the underlying writer does.
func (w *StatusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wrote {
			w.wrote = true
			w.status = http.StatusOK
		}
		f.Flush()
	}
}

// Hijack implements http.Hijacker if the underlying writer does.
func (w *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("httpx: underlying ResponseWriter does not support hijacking")
	}
	c, rw, err := h.Hijack()
	if err == nil {
		w.wrote = true
	}
	return c, rw, err
}
