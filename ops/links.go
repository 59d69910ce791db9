package ops

import (
	"net/http"
	"sort"
	"strings"
)

// SelfLink names the link to the links endpoint itself.
const SelfLink = "self"

// Link is one entry of the links index.
type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated"`
}

type linksResponse struct {
	Links map[string]Link `json:"_links"`
}

func (resp linksResponse) text(b *strings.Builder) {
	names := make([]string, 0, len(resp.Links))
	for n := range resp.Links {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		writeKV(b, "link", n, resp.Links[n].Href)
	}
}

// LinksHandler returns the hypermedia index of the exposed endpoints.
//
// current is called per request with the routes it should list (name -> route,
// e.g. "health" -> "/actuator/health"). Hrefs are made absolute using the request's
// scheme and host. A route containing "{" is marked templated.
func LinksHandler(current func() map[string]string, opts ...Option) http.Handler {
	if current == nil {
		panic("ops: nil links func")
	}
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		base := requestOrigin(r)
		resp := linksResponse{Links: make(map[string]Link)}
		for name, route := range current() {
			resp.Links[name] = Link{Href: base + route, Templated: strings.Contains(route, "{")}
		}
		write(w, r, format, http.StatusOK, resp)
	})
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if r.Host == "" {
		return ""
	}
	return scheme + "://" + r.Host
}
