// Package settings holds the configuration tree consumed by the management endpoints.
//
// A Node is a case-insensitive, hierarchical key/value tree. Trees are produced by
// layered Sources (YAML files, JSON files with comments, environment variables, static
// nodes) and merged by a Loader, later layers winning.
//
// The current tree lives in a Store as an immutable Snapshot. Reloading builds a new
// tree and swaps it in atomically:
//
//	loader := settings.NewLoader(
//		settings.OptionalFile("appsettings.yaml"),
//		settings.Env("", nil),
//	)
//	root, err := loader.Load(ctx)
//	// ...
//	st := settings.NewStore(root, loader.Describe())
//
//	changed, err := loader.Reload(ctx, st) // later, e.g. from the refresh endpoint
//
// Typed accessors (Bool, String, StringList) never coerce silently: a value of the
// wrong shape yields a *TypeError naming the key and the expected type.
package settings
