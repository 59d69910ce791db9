// actuatord serves the management endpoints for a configuration tree loaded from
// files and the environment. It is a runnable demo of package actuator and a
// reference for wiring it into a service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/evan-idocoding/actuator"
	"github.com/evan-idocoding/actuator/contrib/consulhealth"
	"github.com/evan-idocoding/actuator/httpx"
	"github.com/evan-idocoding/actuator/internal/config"
	"github.com/evan-idocoding/actuator/ops"
	"github.com/evan-idocoding/actuator/settings"
)

// accessLoggerName is the loggers entry controlling the zerolog access log.
const accessLoggerName = "access"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Environ(), os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args, environ []string, stderr io.Writer) error {
	opts, err := config.Load(args, environ)
	if errors.Is(err, pflag.ErrHelp) {
		fs := config.FlagSet(new(config.Options))
		fs.SetOutput(stderr)
		fmt.Fprintln(stderr, "Usage: actuatord [flags]")
		fs.PrintDefaults()
		return nil
	}
	if err != nil {
		return err
	}

	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return err
	}
	logger := newLogger(stderr, opts.LogFormat, level)
	slog.SetDefault(logger)

	access := zerolog.New(os.Stdout).With().Timestamp().Str("logger", accessLoggerName).Logger()

	loggers := ops.NewLoggers()
	loggers.Register(ops.RootLogger, ops.SlogLevel(level))
	loggers.Register(accessLoggerName, ops.ZerologGlobalLevel())

	loader := settings.NewLoader(settingsSources(opts, environ)...)
	root, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	store := settings.NewStore(root, loader.Describe())
	applyLevels := func(snap *settings.Snapshot) {
		if err := ops.ApplyConfiguredLevels(loggers, snap.Root); err != nil {
			logger.Warn("invalid configured log level", "error", err)
		}
	}
	applyLevels(store.Load())
	store.Watch(applyLevels)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var checks []ops.Check
	if opts.ConsulAddr != "" {
		client, err := consulhealth.NewClient(opts.ConsulAddr)
		if err != nil {
			return fmt.Errorf("consul client: %w", err)
		}
		discovery, discoveryLevel := consulhealth.NewLogger(stderr)
		loggers.Register(consulhealth.LoggerName, ops.SlogLevel(discoveryLevel))
		checks = append(checks, consulhealth.Check(client, consulhealth.WithLogger(discovery)))
	}

	spec := actuator.DefaultSpec{
		Store:       store,
		ReadGuard:   actuator.AllowAll(),
		PublicGuard: actuator.AllowAll(),
		Checks:      checks,
		Loggers:     loggers,
		Refresh: func(ctx context.Context) ([]string, error) {
			changed, err := loader.Reload(ctx, store)
			if err != nil {
				logger.Error("refresh failed", "error", err)
				return nil, err
			}
			logger.Info("configuration refreshed", "changed", len(changed))
			return changed, nil
		},
		Gatherer:   reg,
		Registerer: reg,
		Logger:     logger,
	}
	if opts.AdminToken != "" {
		spec.ReadGuard = actuator.Tokens([]string{opts.AdminToken})
		spec.Writes = &actuator.WriteSpec{Guard: spec.ReadGuard}
	} else {
		logger.Warn("no admin token configured: reads are open, writes are disabled")
	}

	h, err := actuator.NewDefault(spec)
	if err != nil {
		return err
	}
	if err := h.Err(); err != nil {
		logger.Warn("management configuration has problems", "error", err)
	}

	return actuator.Serve(ctx, actuator.ServeSpec{
		Addr:            opts.Listen,
		Handler:         httpx.Chain(httpx.RequestID(), httpx.AccessLog(access)).Handler(h),
		ShutdownTimeout: opts.ShutdownTimeout,
		Logger:          logger,
	})
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// settingsSources layers the configured files (or the optional appsettings files)
// under the environment.
func settingsSources(opts *config.Options, environ []string) []settings.Source {
	var sources []settings.Source
	if len(opts.ConfigFiles) == 0 {
		sources = append(sources,
			settings.OptionalFile("appsettings.yaml"),
			settings.OptionalFile("appsettings.json"),
		)
	}
	for _, f := range opts.ConfigFiles {
		if f = strings.TrimSpace(f); f != "" {
			sources = append(sources, settings.File(f))
		}
	}
	return append(sources, settings.Env(opts.SettingsEnvPrefix, func() []string { return environ }))
}
