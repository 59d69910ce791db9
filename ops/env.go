package ops

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SanitizedValue replaces the value of every sensitive property.
const SanitizedValue = "******"

// DefaultSanitizeSuffixes mark a property as sensitive when its last named segment ends
// with one of them (case-insensitive).
var DefaultSanitizeSuffixes = []string{"password", "secret", "key", "token"}

// DefaultSanitizeContains mark a property as sensitive when any segment contains one of
// them (case-insensitive).
var DefaultSanitizeContains = []string{"credentials", "vcap_services"}

// Sanitizer decides whether a flattened property key is sensitive.
type Sanitizer func(key string) bool

// DefaultSanitizer applies DefaultSanitizeSuffixes and DefaultSanitizeContains.
func DefaultSanitizer(key string) bool {
	segs := strings.Split(strings.ToLower(key), ":")
	for _, s := range segs {
		for _, c := range DefaultSanitizeContains {
			if strings.Contains(s, c) {
				return true
			}
		}
	}
	// List entries are keyed by index; judge them by the list's name.
	last := ""
	for i := len(segs) - 1; i >= 0; i-- {
		if _, err := strconv.Atoi(segs[i]); err != nil {
			last = segs[i]
			break
		}
	}
	for _, suf := range DefaultSanitizeSuffixes {
		if strings.HasSuffix(last, suf) {
			return true
		}
	}
	return false
}

// EnvReport is the body of the env endpoint.
type EnvReport struct {
	Source     string            `json:"source"`
	Version    uint64            `json:"version"`
	LoadedAt   time.Time         `json:"loaded_at"`
	Properties map[string]string `json:"properties"`
}

func (rep EnvReport) text(b *strings.Builder) {
	writeKV(b, "snapshot", "source", rep.Source)
	writeKV(b, "snapshot", "version", strconv.FormatUint(rep.Version, 10))
	writeKV(b, "snapshot", "loaded_at", rep.LoadedAt.UTC().Format(time.RFC3339))
	keys := make([]string, 0, len(rep.Properties))
	for k := range rep.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeKV(b, "property", k, rep.Properties[k])
	}
}

// EnvOption configures EnvHandler.
type EnvOption func(*envConfig)

type envConfig struct {
	sanitize Sanitizer
	opts     []Option
}

// WithSanitizer replaces DefaultSanitizer. A nil Sanitizer is ignored.
func WithSanitizer(s Sanitizer) EnvOption {
	return func(c *envConfig) {
		if s != nil {
			c.sanitize = s
		}
	}
}

// WithEnvFormat applies handler options such as WithDefaultFormat.
func WithEnvFormat(opts ...Option) EnvOption {
	return func(c *envConfig) { c.opts = append(c.opts, opts...) }
}

// EnvHandler returns the env endpoint: the flattened properties of the current
// snapshot, with sensitive values replaced by SanitizedValue.
//
// ?prefix=Management:Endpoints limits the output to keys under that prefix
// (case-insensitive). GET/HEAD only.
func EnvHandler(src Snapshotter, opts ...EnvOption) http.Handler {
	if src == nil {
		panic("ops: nil Snapshotter")
	}
	ec := envConfig{sanitize: DefaultSanitizer}
	for _, opt := range opts {
		if opt != nil {
			opt(&ec)
		}
	}
	cfg := applyOptions(ec.opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		snap := src.Load()
		if snap == nil {
			writeError(w, r, format, http.StatusServiceUnavailable, "no configuration loaded")
			return
		}
		prefix := strings.ToLower(strings.Trim(r.URL.Query().Get("prefix"), ":"))
		rep := EnvReport{
			Source:     snap.Source,
			Version:    snap.Version,
			LoadedAt:   snap.LoadedAt,
			Properties: make(map[string]string),
		}
		for k, v := range snap.Root.Flatten() {
			lk := strings.ToLower(k)
			if prefix != "" && lk != prefix && !strings.HasPrefix(lk, prefix+":") {
				continue
			}
			if ec.sanitize(k) {
				v = SanitizedValue
			}
			rep.Properties[k] = v
		}
		write(w, r, format, http.StatusOK, rep)
	})
}
