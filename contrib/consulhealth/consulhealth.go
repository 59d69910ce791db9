// Package consulhealth provides a health check for the Consul service-discovery client.
//
// The check is meant for the health endpoint:
//
//	client, _ := consulhealth.NewClient("127.0.0.1:8500")
//	logger, level := consulhealth.NewLogger(os.Stderr)
//	loggers.Register(consulhealth.LoggerName, ops.SlogLevel(level))
//	checks := []ops.Check{consulhealth.Check(client, consulhealth.WithLogger(logger))}
//
// Lookups are logged at debug level, so discovery debug logging can be switched on at
// runtime through the loggers endpoint.
package consulhealth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"github.com/evan-idocoding/actuator/ops"
)

// LoggerName is the name to register the discovery logger's level under.
const LoggerName = "discovery"

// DefaultName and DefaultTimeout apply when no option overrides them.
const (
	DefaultName    = "consul"
	DefaultTimeout = 2 * time.Second
)

// ErrNoLeader is returned when the agent does not know a raft leader.
var ErrNoLeader = errors.New("consulhealth: no cluster leader")

// ErrNoPassingInstances is returned when a required service has no passing instance.
var ErrNoPassingInstances = errors.New("consulhealth: no passing instances")

type headerRoundTripper struct {
	rt http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	return h.rt.RoundTrip(req)
}

// NewClient creates a Consul client for addr ("host:port" or a full http(s) URL).
func NewClient(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		if !strings.Contains(addr, "://") {
			addr = "http://" + addr
		}
		cfg.Address = addr
	}
	cfg.HttpClient = &http.Client{
		Transport: &headerRoundTripper{rt: http.DefaultTransport},
	}
	return consulapi.NewClient(cfg)
}

// NewLogger returns a text logger on w whose level starts at Info, and the LevelVar
// controlling it.
func NewLogger(w io.Writer) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})).With("logger", LoggerName), lv
}

// Option configures Check.
type Option func(*config)

type config struct {
	name     string
	timeout  time.Duration
	services []string
	logger   *slog.Logger
}

// WithName overrides the component name in the health report.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithTimeout overrides DefaultTimeout. d <= 0 disables the extra timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithServices additionally requires every named service to have a passing instance.
func WithServices(names ...string) Option {
	return func(c *config) { c.services = append(c.services, names...) }
}

// WithLogger sets the logger lookups are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Check returns a health check that succeeds when the agent reports a raft leader and
// every service given by WithServices has at least one passing instance.
func Check(client *consulapi.Client, opts ...Option) ops.Check {
	if client == nil {
		panic("consulhealth: nil client")
	}
	cfg := config{name: DefaultName, timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	services := append([]string(nil), cfg.services...)

	return ops.Check{
		Name:    cfg.name,
		Timeout: cfg.timeout,
		Func: func(ctx context.Context) error {
			return probe(ctx, client, services, cfg.logger)
		},
	}
}

func probe(ctx context.Context, client *consulapi.Client, services []string, logger *slog.Logger) error {
	q := (&consulapi.QueryOptions{}).WithContext(ctx)

	start := time.Now()
	leader, err := client.Status().LeaderWithQueryOptions(q)
	if err != nil {
		logger.Debug("consul leader lookup failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("consulhealth: leader lookup: %w", err)
	}
	logger.Debug("consul leader lookup", "leader", leader, "duration", time.Since(start))
	if leader == "" {
		return ErrNoLeader
	}

	for _, svc := range services {
		entries, _, err := client.Health().Service(svc, "", true, q)
		if err != nil {
			logger.Debug("consul service lookup failed", "service", svc, "error", err)
			return fmt.Errorf("consulhealth: service %q: %w", svc, err)
		}
		logger.Debug("consul service lookup", "service", svc, "passing", len(entries))
		if len(entries) == 0 {
			return fmt.Errorf("%w: %s", ErrNoPassingInstances, svc)
		}
	}
	return nil
}
