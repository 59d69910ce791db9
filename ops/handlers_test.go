package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMappings(t *testing.T) {
	h := MappingsHandler(func() []Mapping {
		return []Mapping{
			{ID: "health", Route: "/actuator/health", Methods: []string{"GET", "HEAD"}},
			{ID: "loggers", Route: "/actuator/loggers", Methods: []string{"GET", "HEAD", "POST"}, Subtree: true},
		}
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?format=text", nil))
	want := "health\t/actuator/health\tGET,HEAD\nloggers\t/actuator/loggers/**\tGET,HEAD,POST\n"
	if got := w.Body.String(); got != want {
		t.Fatalf("body=%q, want %q", got, want)
	}

	w = httptest.NewRecorder()
	MappingsHandler(func() []Mapping { return nil }).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := strings.TrimSpace(w.Body.String()); got != `{"mappings":[]}` {
		t.Fatalf("body=%s", got)
	}
}

func TestLinks(t *testing.T) {
	h := LinksHandler(func() map[string]string {
		return map[string]string{
			SelfLink:       "/actuator",
			"health":       "/actuator/health",
			"loggers-name": "/actuator/loggers/{name}",
		}
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example.test/actuator", nil))

	var resp struct {
		Links map[string]Link `json:"_links"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := resp.Links["health"]; got.Href != "http://example.test/actuator/health" || got.Templated {
		t.Fatalf("health link=%+v", got)
	}
	if got := resp.Links["loggers-name"]; !got.Templated {
		t.Fatalf("loggers-name link=%+v", got)
	}
	if got := resp.Links[SelfLink]; got.Href != "http://example.test/actuator" {
		t.Fatalf("self link=%+v", got)
	}
}

func TestRefresh(t *testing.T) {
	var calls int
	h := RefreshHandler(func(context.Context) ([]string, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("reload failed")
		}
		return []string{"Management:Endpoints:Health:Enabled"}, nil
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "POST" || calls != 0 {
		t.Fatalf("GET: status=%d allow=%q calls=%d", w.Code, w.Header().Get("Allow"), calls)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	var resp refreshResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Code != http.StatusOK || len(resp.Changed) != 1 {
		t.Fatalf("status=%d resp=%+v", w.Code, resp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "reload failed") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestThreadDump(t *testing.T) {
	w := httptest.NewRecorder()
	ThreadDumpHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?format=text", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "goroutine ") {
		t.Fatalf("status=%d body=%.200s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	ThreadDumpHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp threadDumpResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Goroutines < 1 || resp.Dump == "" {
		t.Fatalf("unexpected: goroutines=%d", resp.Goroutines)
	}
}

func TestHeapDump(t *testing.T) {
	w := httptest.NewRecorder()
	HeapDumpHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Fatalf("Content-Type=%q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=\"heapdump-") {
		t.Fatalf("Content-Disposition=%q", cd)
	}
	// gzip magic
	if b := w.Body.Bytes(); len(b) < 2 || b[0] != 0x1f || b[1] != 0x8b {
		t.Fatalf("expected gzip body")
	}

	w = httptest.NewRecorder()
	HeapDumpHandler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", w.Code)
	}
}

func testGatherer(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "demo_events_total", Help: "Demo events."}, []string{"kind"})
	reg.MustRegister(c)
	c.WithLabelValues("a").Add(3)
	return reg
}

func TestMetrics_NamesAndFamily(t *testing.T) {
	h := MetricsHandler(testGatherer(t))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var names metricNamesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &names); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(names.Names) != 1 || names.Names[0] != "demo_events_total" {
		t.Fatalf("names=%v", names.Names)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/demo_events_total", nil))
	var mf MetricFamily
	if err := json.Unmarshal(w.Body.Bytes(), &mf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if mf.Type != "counter" || len(mf.Samples) != 1 || mf.Samples[0].Value != 3 || mf.Samples[0].Labels["kind"] != "a" {
		t.Fatalf("family=%+v", mf)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/demo_events_total?format=text", nil))
	if got := w.Body.String(); got != "sample\tdemo_events_total{kind=a}\t3\n" {
		t.Fatalf("text=%q", got)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestPrometheus(t *testing.T) {
	h := PrometheusHandler(testGatherer(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `demo_events_total{kind="a"} 3`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", w.Code)
	}
}
