package ops

import (
	"net/http"
	"strings"
)

// Mapping is one mounted endpoint route.
type Mapping struct {
	ID      string   `json:"id"`
	Route   string   `json:"route"`
	Methods []string `json:"methods"`
	// Subtree is true when every path below Route is served too.
	Subtree bool `json:"subtree,omitempty"`
}

type mappingsResponse struct {
	Mappings []Mapping `json:"mappings"`
}

func (resp mappingsResponse) text(b *strings.Builder) {
	for _, m := range resp.Mappings {
		route := m.Route
		if m.Subtree {
			route = strings.TrimSuffix(route, "/") + "/**"
		}
		writeKV(b, m.ID, route, strings.Join(m.Methods, ","))
	}
}

// MappingsHandler returns the mappings endpoint. current is called per request and
// returns the route table in mount order. GET/HEAD only.
func MappingsHandler(current func() []Mapping, opts ...Option) http.Handler {
	if current == nil {
		panic("ops: nil mappings func")
	}
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		ms := current()
		if ms == nil {
			ms = []Mapping{}
		}
		write(w, r, format, http.StatusOK, mappingsResponse{Mappings: ms})
	})
}
