// Package actuator provides configuration-driven management endpoints for net/http
// services: health, info, loggers, env, mappings, refresh, dumps and metrics, each
// enabled, exposed and routed by the application's own configuration tree.
//
// The main entry points are:
//   - NewDefault: assemble the standard endpoint set as an *admin.Handler.
//   - Serve: run a handler on its own HTTP server with graceful shutdown.
//
// # Quick start
//
//	loader := settings.NewLoader(
//		settings.OptionalFile("appsettings.yaml"),
//		settings.Env("APP_", os.Environ),
//	)
//	root, err := loader.Load(ctx)
//	if err != nil {
//		return err
//	}
//	store := settings.NewStore(root, loader.Describe())
//
//	h, err := actuator.NewDefault(actuator.DefaultSpec{
//		Store:     store,
//		ReadGuard: actuator.Tokens([]string{os.Getenv("ADMIN_TOKEN")}),
//		// health and info stay reachable for probes.
//		PublicGuard: actuator.AllowAll(),
//		Refresh: func(ctx context.Context) ([]string, error) {
//			return loader.Reload(ctx, store)
//		},
//	})
//	if err != nil {
//		return err
//	}
//	return actuator.Serve(ctx, actuator.ServeSpec{Addr: ":8081", Handler: h})
//
// With no configuration, only health and info are exposed, at /health and /info:
//
//	Management:
//	  Endpoints:
//	    Path: /actuator          # base path for every endpoint
//	    Health:
//	      Path: status           # /actuator/status
//	    Env:
//	      Enabled: false
//	    Actuator:
//	      Exposure:
//	        Include: ["*"]
//	        Exclude: [heapdump]
//
// # Security model (read vs write)
//
//   - Reads are explicit and guarded: DefaultSpec.ReadGuard is required. A nil ReadGuard
//     is an assembly error and panics.
//   - Writes are off by default: DefaultSpec.Writes == nil denies loggers POST and
//     refresh. If Writes is set, Writes.Guard is required.
//   - Exposure is configuration: an endpoint that is not exposed answers 404, whatever
//     its guard.
//
// # Building blocks
//
//   - github.com/evan-idocoding/actuator/settings: configuration tree, sources and the swappable store
//   - github.com/evan-idocoding/actuator/exposure: include/exclude exposure policy
//   - github.com/evan-idocoding/actuator/endpoint: endpoint registry and settings resolution
//   - github.com/evan-idocoding/actuator/admin: mounting, guards and request metrics
//   - github.com/evan-idocoding/actuator/ops: the endpoint handlers
//   - github.com/evan-idocoding/actuator/httpx: net/http middleware chain helpers
//   - github.com/evan-idocoding/actuator/contrib/consulhealth: Consul discovery health check
package actuator
