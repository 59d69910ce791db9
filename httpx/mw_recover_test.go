package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecover_Writes500AndLogs(t *testing.T) {
	var buf bytes.Buffer
	var called bool
	h := Chain(
		RequestID(WithGenerator(func() string { return "rid-1" })),
		Recover(
			WithRecoverLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			WithOnPanic(func(r *http.Request, info RecoverInfo) { called = info.Value == "boom" }),
		),
	).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.test/x", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if !called {
		t.Fatalf("expected PanicHandler to be called")
	}
	out := buf.String()
	for _, want := range []string{"httpx: panic", "value=boom", "request_id=rid-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %q, got %q", want, out)
		}
	}
}

func TestRecover_DoesNotOverrideStartedResponse(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		panic("boom")
	}), Recover(WithRecoverLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
}

func TestRecover_PanickingPanicHandlerIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(
		WithRecoverLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithOnPanic(func(*http.Request, RecoverInfo) { panic("again") }),
	))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if !strings.Contains(buf.String(), "PanicHandler panicked") {
		t.Fatalf("expected secondary panic to be logged, got %q", buf.String())
	}
}

func TestRecover_ErrAbortHandlerRepanics(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}), Recover())

	defer func() {
		if p := recover(); p != http.ErrAbortHandler {
			t.Fatalf("expected panic value %v, got %v", http.ErrAbortHandler, p)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
}
