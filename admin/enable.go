package admin

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evan-idocoding/actuator/endpoint"
	"github.com/evan-idocoding/actuator/ops"
)

// Built-in endpoint ids.
const (
	LinksID      = "actuator"
	HealthID     = "health"
	InfoID       = "info"
	LoggersID    = "loggers"
	EnvID        = "env"
	MappingsID   = "mappings"
	RefreshID    = "refresh"
	ThreadDumpID = "threaddump"
	HeapDumpID   = "heapdump"
	MetricsID    = "metrics"
	PrometheusID = "prometheus"
)

// --- links ---

type LinksSpec struct {
	Guard Guard
	Path  string // default "/"
}

// EnableLinks mounts the hypermedia index of the currently mounted endpoints.
func EnableLinks(spec LinksSpec) Option {
	return func(b *Builder) {
		b.add(LinksID, mountSpec{
			desc:    endpoint.Descriptor{ID: LinksID, DefaultPath: resolvePath(spec.Path, "/")},
			read:    spec.Guard,
			methods: readMethods,
			build: func(h *Handler) http.Handler {
				return ops.LinksHandler(h.Links, h.format...)
			},
		})
	}
}

// --- health ---

type HealthSpec struct {
	Guard  Guard
	Path   string // default "health"
	Checks []ops.Check
}

func EnableHealth(spec HealthSpec) Option {
	return func(b *Builder) {
		checks := append([]ops.Check(nil), spec.Checks...)
		b.add(HealthID, mountSpec{
			desc:    endpoint.Descriptor{ID: HealthID, DefaultPath: resolvePath(spec.Path, HealthID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(h *Handler) http.Handler {
				return ops.HealthHandler(checks, h.format...)
			},
		})
	}
}

// --- info ---

type InfoSpec struct {
	Guard Guard
	Path  string // default "info"
}

func EnableInfo(spec InfoSpec) Option {
	return func(b *Builder) {
		b.add(InfoID, mountSpec{
			desc:    endpoint.Descriptor{ID: InfoID, DefaultPath: resolvePath(spec.Path, InfoID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(h *Handler) http.Handler {
				return ops.InfoHandler(h.store, h.format...)
			},
		})
	}
}

// --- loggers ---

type LoggersSpec struct {
	// Guard protects reads.
	Guard Guard
	// WriteGuard protects level changes. Default DenyAll.
	WriteGuard Guard
	Path       string // default "loggers"
	Loggers    *ops.Loggers
}

func EnableLoggers(spec LoggersSpec) Option {
	return func(b *Builder) {
		if spec.Loggers == nil {
			panic("admin: loggers: nil Loggers")
		}
		write := spec.WriteGuard
		if write == nil {
			write = DenyAll()
		}
		b.add(LoggersID, mountSpec{
			desc:     endpoint.Descriptor{ID: LoggersID, DefaultPath: resolvePath(spec.Path, LoggersID)},
			read:     spec.Guard,
			write:    write,
			methods:  readWriteMethods,
			subtree:  true,
			template: "name",
			build: func(h *Handler) http.Handler {
				return ops.LoggersHandler(spec.Loggers, h.format...)
			},
		})
	}
}

// --- env ---

type EnvSpec struct {
	Guard     Guard
	Path      string        // default "env"
	Sanitizer ops.Sanitizer // default ops.DefaultSanitizer
}

func EnableEnv(spec EnvSpec) Option {
	return func(b *Builder) {
		b.add(EnvID, mountSpec{
			desc:    endpoint.Descriptor{ID: EnvID, DefaultPath: resolvePath(spec.Path, EnvID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(h *Handler) http.Handler {
				return ops.EnvHandler(h.store, ops.WithSanitizer(spec.Sanitizer), ops.WithEnvFormat(h.format...))
			},
		})
	}
}

// --- mappings ---

type MappingsSpec struct {
	Guard Guard
	Path  string // default "mappings"
}

func EnableMappings(spec MappingsSpec) Option {
	return func(b *Builder) {
		b.add(MappingsID, mountSpec{
			desc:    endpoint.Descriptor{ID: MappingsID, DefaultPath: resolvePath(spec.Path, MappingsID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(h *Handler) http.Handler {
				return ops.MappingsHandler(h.Mappings, h.format...)
			},
		})
	}
}

// --- refresh ---

type RefreshSpec struct {
	// Guard protects the POST. There is no read access.
	Guard   Guard
	Path    string // default "refresh"
	Refresh ops.RefreshFunc
}

// EnableRefresh mounts the configuration refresh endpoint.
//
// A successful refresh that swaps the store also rebuilds the route table.
func EnableRefresh(spec RefreshSpec) Option {
	return func(b *Builder) {
		if spec.Refresh == nil {
			panic("admin: refresh: nil Refresh")
		}
		b.add(RefreshID, mountSpec{
			desc:    endpoint.Descriptor{ID: RefreshID, DefaultPath: resolvePath(spec.Path, RefreshID)},
			read:    spec.Guard,
			write:   spec.Guard,
			methods: writeMethods,
			build: func(h *Handler) http.Handler {
				return ops.RefreshHandler(spec.Refresh, h.format...)
			},
		})
	}
}

// --- dumps ---

type ThreadDumpSpec struct {
	Guard Guard
	Path  string // default "threaddump"
}

func EnableThreadDump(spec ThreadDumpSpec) Option {
	return func(b *Builder) {
		b.add(ThreadDumpID, mountSpec{
			desc:    endpoint.Descriptor{ID: ThreadDumpID, DefaultPath: resolvePath(spec.Path, ThreadDumpID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(h *Handler) http.Handler {
				return ops.ThreadDumpHandler(h.format...)
			},
		})
	}
}

type HeapDumpSpec struct {
	Guard Guard
	Path  string // default "heapdump"
}

func EnableHeapDump(spec HeapDumpSpec) Option {
	return func(b *Builder) {
		b.add(HeapDumpID, mountSpec{
			desc:    endpoint.Descriptor{ID: HeapDumpID, DefaultPath: resolvePath(spec.Path, HeapDumpID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(*Handler) http.Handler {
				return ops.HeapDumpHandler()
			},
		})
	}
}

// --- metrics ---

type MetricsSpec struct {
	Guard    Guard
	Path     string              // default "metrics"
	Gatherer prometheus.Gatherer // default prometheus.DefaultGatherer
}

// EnableMetrics mounts the browsable metrics endpoint (family names, then one family
// per sub-path).
func EnableMetrics(spec MetricsSpec) Option {
	return func(b *Builder) {
		g := spec.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		b.add(MetricsID, mountSpec{
			desc:     endpoint.Descriptor{ID: MetricsID, DefaultPath: resolvePath(spec.Path, MetricsID)},
			read:     spec.Guard,
			methods:  readMethods,
			subtree:  true,
			template: "name",
			build: func(h *Handler) http.Handler {
				return ops.MetricsHandler(g, h.format...)
			},
		})
	}
}

type PrometheusSpec struct {
	Guard    Guard
	Path     string              // default "prometheus"
	Gatherer prometheus.Gatherer // default prometheus.DefaultGatherer
}

// EnablePrometheus mounts the Prometheus scrape endpoint.
func EnablePrometheus(spec PrometheusSpec) Option {
	return func(b *Builder) {
		g := spec.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		b.add(PrometheusID, mountSpec{
			desc:    endpoint.Descriptor{ID: PrometheusID, DefaultPath: resolvePath(spec.Path, PrometheusID)},
			read:    spec.Guard,
			methods: readMethods,
			build: func(*Handler) http.Handler {
				return ops.PrometheusHandler(g)
			},
		})
	}
}

// --- custom ---

// EndpointSpec mounts an application-defined endpoint under the same configuration
// and exposure rules as the built-in ones.
type EndpointSpec struct {
	ID   string
	Path string // default is the id
	// Guard protects GET and HEAD.
	Guard Guard
	// WriteGuard protects every other method. Default DenyAll.
	WriteGuard Guard
	Handler    http.Handler
	// Methods is informational (mappings). Default GET, HEAD.
	Methods []string
	// Subtree mounts Handler for every path below the route, with the route stripped.
	Subtree bool
}

func EnableEndpoint(spec EndpointSpec) Option {
	return func(b *Builder) {
		name := spec.ID
		if name == "" {
			name = "endpoint"
		}
		if spec.Handler == nil {
			panic("admin: " + name + ": nil handler")
		}
		write := spec.WriteGuard
		if write == nil {
			write = DenyAll()
		}
		methods := readMethods
		if len(spec.Methods) > 0 {
			methods = append([]string(nil), spec.Methods...)
		}
		b.add(name, mountSpec{
			desc:    endpoint.Descriptor{ID: spec.ID, DefaultPath: resolvePath(spec.Path, spec.ID)},
			read:    spec.Guard,
			write:   write,
			methods: methods,
			subtree: spec.Subtree,
			build:   func(*Handler) http.Handler { return spec.Handler },
		})
	}
}
