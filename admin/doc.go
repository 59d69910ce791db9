// Package admin assembles the management endpoints into one configuration-driven
// http.Handler.
//
// # What is admin?
//
// admin is an assembly layer. It registers the ops handlers (plus application-defined
// ones) as endpoints in an endpoint.Registry, resolves their settings and exposure from
// the current settings snapshot, and serves the exposed ones from a chi router behind
// guards.
//
// You mount the returned handler anywhere in your HTTP stack:
//
//	store := settings.NewStore(root, "startup")
//	h, err := admin.New(store,
//		admin.EnableHealth(admin.HealthSpec{Guard: admin.AllowAll()}),
//		admin.EnableEnv(admin.EnvSpec{Guard: admin.Tokens([]string{"s3cr3t"})}),
//	)
//	if err != nil {
//		return err
//	}
//	mux := http.NewServeMux()
//	mux.Handle("/", h)
//
// # Core rules
//
// ## Explicit enable + explicit guard
//
// Nothing is mounted unless enabled via an EnableXxx option, and every enabled endpoint
// must have a non-nil Guard (nil is an assembly error and panics). Endpoints that change
// state (loggers POST, refresh) have a separate write guard; for loggers and custom
// endpoints it defaults to DenyAll.
//
// ## Configuration decides exposure and routes
//
// An enabled endpoint is served only when its resolved settings enable it and the
// exposure policy includes it (by default: health and info). Its route is the global
// base path joined with the endpoint's path segment:
//
//	Management:Endpoints:Path = /actuator
//	Management:Endpoints:Health:Path = status   =>  /actuator/status
//
// Unexposed endpoints answer 404. A configuration problem affects only the endpoint
// that has it; it is logged and reported by Err.
//
// ## Refresh rebuilds
//
// The handler watches its settings.Store. Every swap (for example a successful refresh)
// re-resolves all endpoints and replaces the route table atomically; in-flight
// requests finish on the table they started on.
//
// # Guards
//
// Guard is a middleware factory. Built-ins: AllowAll, DenyAll, Tokens, HotTokens,
// IPAllowList, TokensOrIPAllowList, TokensAndIPAllowList and Check. Denials answer 403.
// IP checks use r.RemoteAddr; put the handler behind your own proxy-aware middleware if
// you need forwarded addresses.
//
// # Metrics
//
// WithMetrics registers request counters and latency histograms per endpoint id, the
// number of mounted endpoints and the rebuild count.
package admin
