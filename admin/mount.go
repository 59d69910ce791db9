package admin

import (
	"net/http"
	"strings"

	"github.com/evan-idocoding/actuator/endpoint"
)

var (
	readMethods      = []string{http.MethodGet, http.MethodHead}
	readWriteMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost}
	writeMethods     = []string{http.MethodPost}
)

// mountSpec is one enabled endpoint, collected by the Enable options.
type mountSpec struct {
	desc    endpoint.Descriptor
	read    Guard // GET / HEAD
	write   Guard // every other method
	methods []string
	// subtree endpoints serve every path below their route, with the route stripped.
	subtree bool
	// template is the path parameter name advertised in links for subtree endpoints.
	template string
	build    func(h *Handler) http.Handler

	handler http.Handler // built once by New
}

func (b *Builder) add(name string, s mountSpec) {
	if b == nil {
		panic("admin: nil builder")
	}
	if s.read == nil {
		panic("admin: " + name + ": nil Guard")
	}
	if s.write == nil {
		s.write = s.read
	}
	if s.build == nil {
		panic("admin: " + name + ": nil handler")
	}
	if strings.ContainsAny(s.desc.DefaultPath, "{}*") {
		panic("admin: " + name + ": invalid path (contains {, } or *): " + s.desc.DefaultPath)
	}
	b.specs = append(b.specs, s)
}

// guarded routes safe methods through s.read and the rest through s.write.
func (s *mountSpec) guarded(h http.Handler) http.Handler {
	rh := s.read.Middleware()(h)
	wh := s.write.Middleware()(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			rh.ServeHTTP(w, r)
			return
		}
		wh.ServeHTTP(w, r)
	})
}

// mountable reports whether route can be used as a router pattern verbatim.
func mountable(route string) bool {
	return strings.HasPrefix(route, "/") && !strings.ContainsAny(route, "{}* \t\r\n?#")
}

func subtreePattern(route string) string {
	return strings.TrimSuffix(route, "/") + "/*"
}

func resolvePath(specPath, def string) string {
	if strings.TrimSpace(specPath) == "" {
		return def
	}
	return specPath
}
