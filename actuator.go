package actuator

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evan-idocoding/actuator/admin"
	"github.com/evan-idocoding/actuator/ops"
	"github.com/evan-idocoding/actuator/settings"
)

// DefaultSpec configures NewDefault.
//
// Assembly errors are fail-fast and will panic.
type DefaultSpec struct {
	// Store is required. Its snapshots drive enablement, exposure and routes.
	Store *settings.Store

	// ReadGuard is required. It protects all read endpoints except health and info.
	ReadGuard admin.Guard
	// PublicGuard protects health and info. Default ReadGuard.
	PublicGuard admin.Guard

	// Checks feed the health endpoint (none => UP).
	Checks []ops.Check

	// Loggers enables the loggers endpoint when non-nil.
	Loggers *ops.Loggers

	// Refresh enables the refresh endpoint when non-nil.
	Refresh ops.RefreshFunc

	// Sanitizer masks env values. Default ops.DefaultSanitizer.
	Sanitizer ops.Sanitizer

	// Gatherer backs the metrics and prometheus endpoints. Default prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Registerer receives the admin request metrics when non-nil.
	Registerer prometheus.Registerer

	// Logger receives assembly and resolution diagnostics.
	Logger *slog.Logger

	// Writes controls write access. nil => every write is denied (default).
	Writes *WriteSpec

	// Endpoints are registered after the built-in ones.
	Endpoints []admin.EndpointSpec
}

// WriteSpec controls write access (loggers POST, refresh).
type WriteSpec struct {
	// Guard is required when Writes != nil.
	Guard admin.Guard
}

// NewDefault assembles the standard endpoint set in a fixed registration order:
// actuator, health, info, loggers, env, mappings, refresh, threaddump, heapdump,
// metrics, prometheus, then spec.Endpoints.
//
// loggers and refresh are registered only when their backing component is set.
// Which endpoints are served is decided by configuration (see package admin).
func NewDefault(spec DefaultSpec) (*admin.Handler, error) {
	if spec.Store == nil {
		panic("actuator: NewDefault: nil Store")
	}
	if spec.ReadGuard == nil {
		panic("actuator: NewDefault: nil ReadGuard")
	}
	public := spec.PublicGuard
	if public == nil {
		public = spec.ReadGuard
	}
	write := DenyAll()
	if spec.Writes != nil {
		if spec.Writes.Guard == nil {
			panic("actuator: NewDefault: Writes != nil but Writes.Guard is nil")
		}
		write = spec.Writes.Guard
	}
	read := spec.ReadGuard

	opts := make([]admin.Option, 0, 16+len(spec.Endpoints))
	opts = append(opts,
		admin.WithLogger(spec.Logger),
		admin.EnableLinks(admin.LinksSpec{Guard: read}),
		admin.EnableHealth(admin.HealthSpec{Guard: public, Checks: spec.Checks}),
		admin.EnableInfo(admin.InfoSpec{Guard: public}),
	)
	if spec.Registerer != nil {
		opts = append(opts, admin.WithMetrics(spec.Registerer))
	}
	if spec.Loggers != nil {
		opts = append(opts, admin.EnableLoggers(admin.LoggersSpec{
			Guard:      read,
			WriteGuard: write,
			Loggers:    spec.Loggers,
		}))
	}
	opts = append(opts,
		admin.EnableEnv(admin.EnvSpec{Guard: read, Sanitizer: spec.Sanitizer}),
		admin.EnableMappings(admin.MappingsSpec{Guard: read}),
	)
	if spec.Refresh != nil {
		opts = append(opts, admin.EnableRefresh(admin.RefreshSpec{Guard: write, Refresh: spec.Refresh}))
	}
	opts = append(opts,
		admin.EnableThreadDump(admin.ThreadDumpSpec{Guard: read}),
		admin.EnableHeapDump(admin.HeapDumpSpec{Guard: read}),
		admin.EnableMetrics(admin.MetricsSpec{Guard: read, Gatherer: spec.Gatherer}),
		admin.EnablePrometheus(admin.PrometheusSpec{Guard: read, Gatherer: spec.Gatherer}),
	)
	for _, e := range spec.Endpoints {
		opts = append(opts, admin.EnableEndpoint(e))
	}

	return admin.New(spec.Store, opts...)
}
