package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func serveRequestID(t *testing.T, mw Middleware, req *http.Request) (ctxID string, rr *httptest.ResponseRecorder) {
	t.Helper()
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, _ = RequestIDFromRequest(r)
	}), mw)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return ctxID, rr
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	id, rr := serveRequestID(t, RequestID(), httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid, got %q: %v", id, err)
	}
	if got := rr.Header().Get(DefaultRequestIDHeader); got != id {
		t.Fatalf("expected response header %q, got %q", id, got)
	}
}

func TestRequestID_ReusesValidIncoming(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Set(DefaultRequestIDHeader, "abc-123")
	if id, _ := serveRequestID(t, RequestID(), req); id != "abc-123" {
		t.Fatalf("expected incoming id, got %q", id)
	}

	if id, _ := serveRequestID(t, RequestID(WithTrustIncoming(false)), req); id == "abc-123" {
		t.Fatalf("expected a fresh id when incoming is not trusted")
	}
}

func TestRequestID_RejectsInvalidIncoming(t *testing.T) {
	for _, bad := range []string{"has space", "a,b", strings.Repeat("x", 129)} {
		req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
		req.Header.Set(DefaultRequestIDHeader, bad)
		if id, _ := serveRequestID(t, RequestID(), req); id == bad {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Add(DefaultRequestIDHeader, "a")
	req.Header.Add(DefaultRequestIDHeader, "b")
	if id, _ := serveRequestID(t, RequestID(), req); id == "a" || id == "b" {
		t.Fatalf("expected multiple values to be rejected, got %q", id)
	}
}

func TestRequestID_InvalidGeneratorFallsBack(t *testing.T) {
	id, _ := serveRequestID(t, RequestID(WithGenerator(func() string { return "bad id" })),
		httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid fallback, got %q", id)
	}
}

func TestRequestID_NestedKeepsOuterID(t *testing.T) {
	var inner string
	h := Chain(
		RequestID(WithGenerator(func() string { return "outer" })),
		RequestID(WithGenerator(func() string { return "inner" })),
	).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		inner, _ = RequestIDFromRequest(r)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))
	if inner != "outer" || rr.Header().Get(DefaultRequestIDHeader) != "outer" {
		t.Fatalf("got context %q header %q, want outer", inner, rr.Header().Get(DefaultRequestIDHeader))
	}
}
