// Package config loads the actuatord process options.
//
// Options are layered: [Default], then environment variables prefixed with
// [EnvPrefix] (parsed with caarlos0/env), then command-line flags (pflag). Layers are
// merged with mergo so a later layer only overrides the fields it sets, and the result
// is validated before use.
package config
