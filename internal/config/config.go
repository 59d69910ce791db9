package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every process option read from the environment.
const EnvPrefix = "ACTUATORD_"

// Options are the daemon's own process options. The managed configuration tree is
// loaded separately from ConfigFiles and the environment (see package settings).
type Options struct {
	// Listen is the HTTP listen address.
	Listen string `env:"LISTEN"`
	// ConfigFiles are YAML or JSON (with comments) files, later files win.
	ConfigFiles []string `env:"CONFIG_FILES" envSeparator:","`
	// SettingsEnvPrefix selects the environment variables merged into the managed
	// tree, e.g. "APP_" for APP_Management__Endpoints__Path.
	SettingsEnvPrefix string `env:"SETTINGS_ENV_PREFIX"`
	// LogLevel is the initial root level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL"`
	// LogFormat is "text" or "json".
	LogFormat string `env:"LOG_FORMAT"`
	// AdminToken, when set, is required for every endpoint except health and info,
	// and for all writes.
	AdminToken string `env:"ADMIN_TOKEN"`
	// ConsulAddr enables the discovery health check when set.
	ConsulAddr string `env:"CONSUL_ADDR"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Validation errors returned by Load.
var (
	ErrInvalidListen    = errors.New("invalid listen address")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidTimeout   = errors.New("invalid shutdown timeout")
)

// Default returns the options used when nothing is configured.
func Default() *Options {
	return &Options{
		Listen:          ":8081",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the options from defaults, then the environment, then flags; later
// layers override earlier ones field by field. pflag.ErrHelp is returned as-is.
func Load(args []string, environ []string) (*Options, error) {
	return newBuilder().
		with(Default(), nil).
		withEnv(environ).
		withFlags(args).
		build()
}

type builder struct {
	layers []*Options
	err    error
}

func newBuilder() *builder {
	return &builder{layers: make([]*Options, 0, 3)}
}

func (b *builder) with(o *Options, err error) *builder {
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.layers = append(b.layers, o)
	return b
}

func (b *builder) withEnv(environ []string) *builder {
	o := &Options{}
	err := env.ParseWithOptions(o, env.Options{
		Prefix:      EnvPrefix,
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return b.with(nil, fmt.Errorf("error getting env configs: %w", err))
	}
	return b.with(o, nil)
}

func (b *builder) withFlags(args []string) *builder {
	o, err := parseFlags(args)
	if err != nil {
		return b.with(nil, err)
	}
	return b.with(o, nil)
}

func (b *builder) build() (*Options, error) {
	if b.err != nil {
		if errors.Is(b.err, pflag.ErrHelp) {
			return nil, pflag.ErrHelp
		}
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}
	out := new(Options)
	for _, o := range b.layers {
		if err := mergo.Merge(out, o, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// FlagSet returns the daemon's flag set bound to o. Zero defaults keep unset flags
// from overriding lower layers.
func FlagSet(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("actuatord", pflag.ContinueOnError)
	fs.StringVar(&o.Listen, "listen", "", "HTTP listen address (default :8081)")
	fs.StringSliceVarP(&o.ConfigFiles, "config", "c", nil, "configuration file (YAML or JSON), repeatable")
	fs.StringVar(&o.SettingsEnvPrefix, "settings-env-prefix", "", "environment prefix merged into the managed configuration")
	fs.StringVar(&o.LogLevel, "log-level", "", "initial log level: debug, info, warn, error (default info)")
	fs.StringVar(&o.LogFormat, "log-format", "", "log format: text or json (default text)")
	fs.StringVar(&o.AdminToken, "admin-token", "", "token required by non-public endpoints")
	fs.StringVar(&o.ConsulAddr, "consul", "", "Consul agent address for the discovery health check")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout (default 10s)")
	return fs
}

func parseFlags(args []string) (*Options, error) {
	o := &Options{}
	fs := FlagSet(o)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, pflag.ErrHelp
		}
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}
	return o, nil
}

func (o *Options) validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(o.Listen); err != nil {
		errs = append(errs, fmt.Errorf("%w %q: %v", ErrInvalidListen, o.Listen, err))
	}
	switch strings.ToLower(o.LogLevel) {
	case "debug", "info", "warn", "error":
		o.LogLevel = strings.ToLower(o.LogLevel)
	default:
		errs = append(errs, fmt.Errorf("%w %q", ErrInvalidLogLevel, o.LogLevel))
	}
	switch strings.ToLower(o.LogFormat) {
	case "text", "json":
		o.LogFormat = strings.ToLower(o.LogFormat)
	default:
		errs = append(errs, fmt.Errorf("%w %q", ErrInvalidLogFormat, o.LogFormat))
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidTimeout, o.ShutdownTimeout))
	}
	return errors.Join(errs...)
}
