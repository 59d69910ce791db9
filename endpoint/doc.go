// Package endpoint registers management endpoints and resolves their effective settings.
//
// Settings come from the Management:Endpoints section of a settings.Node, with three
// levels of precedence:
//
//	baseline (Enabled=true, Path="/")
//	  < Management:Endpoints:<key>        (global)
//	  < Management:Endpoints:<Id>:<key>   (per endpoint)
//
// A Registry keeps descriptors in registration order. ResolveAll combines the resolved
// settings with the exposure policy (see package exposure) and computes each endpoint's
// route as <global Path>/<endpoint Path or default path>:
//
//	reg := endpoint.NewRegistry()
//	reg.MustRegister(endpoint.Descriptor{ID: "health"})
//	reg.MustRegister(endpoint.Descriptor{ID: "env"})
//
//	res, err := reg.ResolveAll(snapshot.Root)
//	// err is a *ResolveError when some endpoints reported problems;
//	// res is complete either way.
//
// Registering the same id twice (case-insensitive) fails with a *DuplicateError. Every
// other problem degrades to defaults and is reported.
package endpoint
