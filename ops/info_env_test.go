package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evan-idocoding/actuator/settings"
)

func testStore() *settings.Store {
	return settings.NewStore(settings.Node{
		"Info": settings.Node{"App": settings.Node{"Name": "demo"}},
		"Db": settings.Node{
			"Host":     "localhost",
			"Password": "hunter2",
			"ApiKeys":  []any{"k1", "k2"},
		},
		"VCAP_SERVICES": "{}",
		"Management":    settings.Node{"Endpoints": settings.Node{"Path": "/actuator"}},
	}, "test")
}

func TestInfo_JSON(t *testing.T) {
	w := httptest.NewRecorder()
	InfoHandler(testStore()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var rep InfoReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.Build.GoVersion == "" || rep.Process.PID == 0 {
		t.Fatalf("missing build/process info: %+v", rep)
	}
	app, _ := rep.App["App"].(map[string]any)
	if app["Name"] != "demo" {
		t.Fatalf("app=%v", rep.App)
	}
}

func TestInfo_Text(t *testing.T) {
	w := httptest.NewRecorder()
	InfoHandler(testStore()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?format=text", nil))
	body := w.Body.String()
	for _, want := range []string{"build\tgo_version\t", "process\tpid\t", "app\tApp:Name\tdemo\n"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestDefaultSanitizer(t *testing.T) {
	for key, want := range map[string]bool{
		"Db:Password":               true,
		"db:password":               true,
		"Auth:ClientSecret":         true,
		"Db:ApiKey":                 true,
		"Auth:Token":                true,
		"Cloud:Credentials:User":    true,
		"VCAP_SERVICES":             true,
		"Db:Host":                   false,
		"Keychain:Path":             false,
		"Management:Endpoints:Path": false,
	} {
		if got := DefaultSanitizer(key); got != want {
			t.Fatalf("DefaultSanitizer(%q)=%v, want %v", key, got, want)
		}
	}
}

func TestEnv_SanitizesAndFilters(t *testing.T) {
	st := testStore()
	w := httptest.NewRecorder()
	EnvHandler(st).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var rep EnvReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.Source != "test" || rep.Version != 1 {
		t.Fatalf("snapshot meta: %+v", rep)
	}
	if rep.Properties["Db:Password"] != SanitizedValue || rep.Properties["VCAP_SERVICES"] != SanitizedValue {
		t.Fatalf("not sanitized: %v", rep.Properties)
	}
	if rep.Properties["Db:Host"] != "localhost" || rep.Properties["Db:ApiKeys:1"] != "k2" {
		t.Fatalf("unexpected properties: %v", rep.Properties)
	}

	w = httptest.NewRecorder()
	EnvHandler(st, WithSanitizer(func(string) bool { return false }), WithEnvFormat(WithDefaultFormat(FormatText))).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?prefix=db", nil))
	body := w.Body.String()
	if !strings.Contains(body, "property\tDb:Password\thunter2\n") || strings.Contains(body, "Management") {
		t.Fatalf("unexpected text body:\n%s", body)
	}
}
