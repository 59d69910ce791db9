// Package ops provides the net/http handlers behind the management endpoints.
//
// ops handlers do not choose their own routes and do not make access decisions; package
// admin mounts them at resolved routes behind guards. They can also be mounted directly.
//
// # Formats
//
// Handlers render JSON by default. The default can be changed with WithDefaultFormat and
// overridden per request:
//   - ?format=json
//   - ?format=text
//
// Text output is line-based, tab-separated and greppable. Every response carries
// Cache-Control: no-store. Read-only handlers accept GET and HEAD and answer 405 with an
// Allow header otherwise.
//
// # What ops provides
//
//   - health: HealthHandler, RunChecks (UP/DOWN, 503 when DOWN)
//   - info: InfoHandler (build, process and the Info configuration section)
//   - loggers: Loggers, LoggersHandler, ApplyConfiguredLevels (slog and zerolog backends)
//   - env: EnvHandler (flattened configuration with sensitive values masked)
//   - mappings, links: MappingsHandler, LinksHandler
//   - refresh: RefreshHandler
//   - dumps: ThreadDumpHandler, HeapDumpHandler
//   - metrics: MetricsHandler (browse), PrometheusHandler (scrape)
package ops
