package ops

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/evan-idocoding/actuator/settings"
)

// Format controls the response rendering format.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// Option configures the handlers in this package.
type Option func(*config)

type config struct {
	format Format
}

// WithDefaultFormat sets the default response format.
//
// The default can be overridden per request with ?format=json or ?format=text.
// Default is FormatJSON.
func WithDefaultFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

func applyOptions(opts []Option) config {
	cfg := config{format: FormatJSON}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.format != FormatText && cfg.format != FormatJSON {
		cfg.format = FormatJSON
	}
	return cfg
}

// Snapshotter returns the current configuration snapshot. *settings.Store implements it.
type Snapshotter interface {
	Load() *settings.Snapshot
}

func formatFromRequest(r *http.Request, def Format) Format {
	if r == nil || r.URL == nil {
		return def
	}
	switch r.URL.Query().Get("format") {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return def
	}
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (e errorResponse) text(b *strings.Builder) {
	b.WriteString(e.Error)
	b.WriteByte('\n')
}

// textRenderer renders the text form of a response.
type textRenderer interface {
	text(b *strings.Builder)
}

func write(w http.ResponseWriter, r *http.Request, f Format, code int, resp textRenderer) {
	w.Header().Set("Cache-Control", "no-store")
	if f == FormatJSON {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	var b strings.Builder
	resp.text(&b)
	_, _ = w.Write([]byte(b.String()))
}

func writeError(w http.ResponseWriter, r *http.Request, f Format, code int, msg string) {
	write(w, r, f, code, errorResponse{Error: msg})
}

// allowMethods writes a 405 and returns false unless r.Method is one of allowed.
func allowMethods(w http.ResponseWriter, r *http.Request, f Format, allowed ...string) bool {
	for _, m := range allowed {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, f, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func readOnly(w http.ResponseWriter, r *http.Request, f Format) bool {
	return allowMethods(w, r, f, http.MethodGet, http.MethodHead)
}

// writeKV writes one "<section>\t<key>\t<value>" line.
func writeKV(b *strings.Builder, section, key, value string) {
	b.WriteString(section)
	b.WriteByte('\t')
	b.WriteString(key)
	b.WriteByte('\t')
	b.WriteString(value)
	b.WriteByte('\n')
}
