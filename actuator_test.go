package actuator

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evan-idocoding/actuator/admin"
	"github.com/evan-idocoding/actuator/endpoint"
	"github.com/evan-idocoding/actuator/ops"
	"github.com/evan-idocoding/actuator/settings"
)

func exposeAll() *settings.Store {
	return settings.NewStore(settings.FromFlat(map[string]string{
		"Management:Endpoints:Path":                      "/actuator",
		"Management:Endpoints:Actuator:Exposure:Include": "*",
	}), "test")
}

func get(h http.Handler, method, target string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://admin.test"+target, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestNewDefault_NilReadGuardPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_, _ = NewDefault(DefaultSpec{Store: exposeAll()})
}

func TestNewDefault_WritesWithoutGuardPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_, _ = NewDefault(DefaultSpec{Store: exposeAll(), ReadGuard: AllowAll(), Writes: &WriteSpec{}})
}

func TestNewDefault_RegistrationOrder(t *testing.T) {
	h, err := NewDefault(DefaultSpec{
		Store:     exposeAll(),
		ReadGuard: AllowAll(),
		Loggers:   ops.NewLoggers(),
		Refresh:   func(context.Context) ([]string, error) { return nil, nil },
		Gatherer:  prometheus.NewRegistry(),
		Endpoints: []admin.EndpointSpec{{ID: "custom", Guard: AllowAll(), Handler: http.NotFoundHandler()}},
	})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	var ids []string
	for _, d := range h.Registry().Descriptors() {
		ids = append(ids, d.ID)
	}
	want := "actuator,health,info,loggers,env,mappings,refresh,threaddump,heapdump,metrics,prometheus,custom"
	if got := strings.Join(ids, ","); got != want {
		t.Fatalf("order=%s, want %s", got, want)
	}
}

func TestNewDefault_OptionalEndpointsOmitted(t *testing.T) {
	h, err := NewDefault(DefaultSpec{Store: exposeAll(), ReadGuard: AllowAll(), Gatherer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	if _, ok := h.Registry().Lookup("loggers"); ok {
		t.Fatalf("loggers registered without Loggers")
	}
	if rw := get(h, http.MethodPost, "/actuator/refresh"); rw.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want %d", rw.Code, http.StatusNotFound)
	}
}

func TestNewDefault_DuplicateCustomEndpoint(t *testing.T) {
	_, err := NewDefault(DefaultSpec{
		Store:     exposeAll(),
		ReadGuard: AllowAll(),
		Endpoints: []admin.EndpointSpec{{ID: "Env", Guard: AllowAll(), Handler: http.NotFoundHandler()}},
	})
	if !errors.Is(err, endpoint.ErrDuplicate) {
		t.Fatalf("err=%v, want ErrDuplicate", err)
	}
}

func TestNewDefault_PublicAndReadGuards(t *testing.T) {
	h, err := NewDefault(DefaultSpec{
		Store:       exposeAll(),
		ReadGuard:   Tokens([]string{"r"}),
		PublicGuard: AllowAll(),
		Gatherer:    prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	if rw := get(h, http.MethodGet, "/actuator/health"); rw.Code != http.StatusOK {
		t.Fatalf("health status=%d, want %d", rw.Code, http.StatusOK)
	}
	if rw := get(h, http.MethodGet, "/actuator/env"); rw.Code != http.StatusForbidden {
		t.Fatalf("env status=%d, want %d", rw.Code, http.StatusForbidden)
	}
	if rw := get(h, http.MethodGet, "/actuator/env", DefaultTokenHeader, "r"); rw.Code != http.StatusOK {
		t.Fatalf("env status=%d, want %d", rw.Code, http.StatusOK)
	}
}

func TestNewDefault_WritesDeniedByDefault(t *testing.T) {
	var lv slog.LevelVar
	loggers := ops.NewLoggers()
	loggers.Register(ops.RootLogger, ops.SlogLevel(&lv))

	refreshed := false
	spec := DefaultSpec{
		Store:     exposeAll(),
		ReadGuard: AllowAll(),
		Loggers:   loggers,
		Refresh: func(context.Context) ([]string, error) {
			refreshed = true
			return nil, nil
		},
	}
	h, err := NewDefault(spec)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	if rw := get(h, http.MethodPost, "/actuator/loggers/root?level=debug"); rw.Code != http.StatusForbidden {
		t.Fatalf("loggers POST status=%d, want %d", rw.Code, http.StatusForbidden)
	}
	if rw := get(h, http.MethodPost, "/actuator/refresh"); rw.Code != http.StatusForbidden {
		t.Fatalf("refresh status=%d, want %d", rw.Code, http.StatusForbidden)
	}
	if refreshed {
		t.Fatalf("refresh ran behind a deny guard")
	}

	spec.Store = exposeAll()
	spec.Writes = &WriteSpec{Guard: Tokens([]string{"w"})}
	h, err = NewDefault(spec)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	if rw := get(h, http.MethodPost, "/actuator/refresh", DefaultTokenHeader, "w"); rw.Code != http.StatusOK {
		t.Fatalf("refresh status=%d, want %d, body=%s", rw.Code, http.StatusOK, rw.Body.String())
	}
	if !refreshed {
		t.Fatalf("refresh did not run")
	}
}

func TestServeListener_GracefulStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	h, err := NewDefault(DefaultSpec{Store: settings.NewStore(nil, "test"), ReadGuard: AllowAll()})
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeListener(ctx, ln, ServeSpec{Handler: h, DisableSignals: true, ShutdownTimeout: time.Second})
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want %d", resp.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ServeListener: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ServeListener did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	err := Serve(context.Background(), ServeSpec{Addr: "256.0.0.1:1", Handler: http.NotFoundHandler(), DisableSignals: true})
	if err == nil || !strings.Contains(err.Error(), "listen") {
		t.Fatalf("err=%v, want listen error", err)
	}
}

func TestGuards_LocalAndRotating(t *testing.T) {
	probe := func(g Guard, remote string, token string) int {
		h := g.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "http://admin.test/", nil)
		req.RemoteAddr = remote
		if token != "" {
			req.Header.Set(DefaultTokenHeader, token)
		}
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		return rw.Code
	}

	if got := probe(LocalOnly(), "127.0.0.1:5000", ""); got != http.StatusOK {
		t.Fatalf("LocalOnly loopback status=%d", got)
	}
	if got := probe(LocalOnly(), "[::1]:5000", ""); got != http.StatusOK {
		t.Fatalf("LocalOnly ::1 status=%d", got)
	}
	if got := probe(LocalOnly(), "10.0.0.1:5000", ""); got != http.StatusForbidden {
		t.Fatalf("LocalOnly remote status=%d", got)
	}

	g := TokensOrLocal([]string{"t"})
	if got := probe(g, "10.0.0.1:5000", "t"); got != http.StatusOK {
		t.Fatalf("TokensOrLocal token status=%d", got)
	}
	if got := probe(g, "10.0.0.1:5000", ""); got != http.StatusForbidden {
		t.Fatalf("TokensOrLocal remote status=%d", got)
	}

	set := admin.NewAtomicTokenSet()
	rot := RotatingTokens(set)
	if got := probe(rot, "10.0.0.1:5000", "a"); got != http.StatusForbidden {
		t.Fatalf("empty set status=%d", got)
	}
	set.Update([]string{"a"})
	if got := probe(rot, "10.0.0.1:5000", "a"); got != http.StatusOK {
		t.Fatalf("rotated set status=%d", got)
	}
}
