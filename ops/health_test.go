package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okCheck(name string) Check {
	return Check{Name: name, Func: func(context.Context) error { return nil }}
}

func TestHealth_AllUp(t *testing.T) {
	h := HealthHandler([]Check{okCheck("a"), okCheck("b")})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control=%q, want no-store", cc)
	}
	var rep HealthReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.Status != StatusUp || len(rep.Components) != 2 || rep.Components[0].Name != "a" {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestHealth_NoChecksIsUp(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(nil, WithDefaultFormat(FormatText)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != "UP\n" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestHealth_FailurePanicAndTimeoutAreDown(t *testing.T) {
	checks := []Check{
		okCheck("ok"),
		{Name: "err", Func: func(context.Context) error { return errors.New("boom") }},
		{Name: "panic", Func: func(context.Context) error { panic("bad") }},
		{Name: "slow", Timeout: 10 * time.Millisecond, Func: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	}
	rep := RunChecks(context.Background(), checks)
	if rep.Status != StatusDown {
		t.Fatalf("status=%s, want DOWN", rep.Status)
	}
	byName := map[string]CheckResult{}
	for _, c := range rep.Components {
		byName[c.Name] = c
	}
	if byName["ok"].Status != StatusUp {
		t.Fatalf("ok check: %+v", byName["ok"])
	}
	if byName["err"].Error != "boom" {
		t.Fatalf("err check: %+v", byName["err"])
	}
	if !strings.HasPrefix(byName["panic"].Error, "panic: bad") {
		t.Fatalf("panic check: %+v", byName["panic"])
	}
	if !byName["slow"].TimedOut || byName["slow"].Status != StatusDown {
		t.Fatalf("slow check: %+v", byName["slow"])
	}

	w := httptest.NewRecorder()
	HealthHandler(checks[1:2], WithDefaultFormat(FormatText)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want=%d", w.Code, http.StatusServiceUnavailable)
	}
	if got, want := w.Body.String(), "DOWN\ncomponent\terr\tDOWN\tboom\n"; got != want {
		t.Fatalf("body=%q, want %q", got, want)
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d, want=%d", w.Code, http.StatusMethodNotAllowed)
	}
	if allow := w.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("Allow=%q", allow)
	}
}

func TestHealth_HeadHasNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	HealthHandler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestHealth_InvalidChecksPanic(t *testing.T) {
	assertPanics(t, func() { _ = HealthHandler([]Check{{Func: okCheck("x").Func}}) })
	assertPanics(t, func() { _ = HealthHandler([]Check{{Name: "x"}}) })
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}
