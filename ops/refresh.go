package ops

import (
	"context"
	"net/http"
	"strings"
)

// RefreshFunc reloads configuration and returns the keys whose values changed.
type RefreshFunc func(ctx context.Context) ([]string, error)

type refreshResponse struct {
	OK      bool     `json:"ok"`
	Changed []string `json:"changed"`
}

func (resp refreshResponse) text(b *strings.Builder) {
	for _, k := range resp.Changed {
		b.WriteString(k)
		b.WriteByte('\n')
	}
}

// RefreshHandler returns the refresh endpoint. POST only.
//
// A failed reload answers 500 and leaves the current configuration in place.
func RefreshHandler(fn RefreshFunc, opts ...Option) http.Handler {
	if fn == nil {
		panic("ops: nil RefreshFunc")
	}
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !allowMethods(w, r, format, http.MethodPost) {
			return
		}
		changed, err := fn(r.Context())
		if err != nil {
			writeError(w, r, format, http.StatusInternalServerError, err.Error())
			return
		}
		if changed == nil {
			changed = []string{}
		}
		write(w, r, format, http.StatusOK, refreshResponse{OK: true, Changed: changed})
	})
}
