package admin

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/evan-idocoding/actuator/endpoint"
	"github.com/evan-idocoding/actuator/httpx"
	"github.com/evan-idocoding/actuator/ops"
	"github.com/evan-idocoding/actuator/settings"
)

// Option configures admin assembly.
type Option func(*Builder)

// Builder collects endpoints and settings for New.
//
// It is not exposed; callers configure admin via Options.
type Builder struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	format     []ops.Option
	specs      []mountSpec
}

// WithLogger sets the logger for assembly, resolution diagnostics and recovered panics.
// Default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics registers request and rebuild metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(b *Builder) { b.registerer = reg }
}

// WithDefaultFormat sets the default response format of the built-in endpoints.
func WithDefaultFormat(f ops.Format) Option {
	return func(b *Builder) { b.format = []ops.Option{ops.WithDefaultFormat(f)} }
}

// Handler serves the management endpoints that are currently enabled and exposed.
//
// The route table is rebuilt from the store's snapshot whenever the store swaps, so a
// configuration refresh changes exposure and paths without restarting the listener.
type Handler struct {
	store   *settings.Store
	reg     *endpoint.Registry
	specs   map[string]*mountSpec // id -> spec
	logger  *slog.Logger
	format  []ops.Option
	metrics *metrics
	entry   http.Handler

	mu  sync.Mutex // serializes rebuilds
	cur atomic.Pointer[mountState]
}

type mountState struct {
	router   http.Handler
	version  uint64
	resolved []endpoint.Resolved
	mappings []ops.Mapping
	links    map[string]string
	err      error
}

// New assembles the management handler for store.
//
// Nothing is mounted unless enabled via options, and every enabled endpoint needs an
// explicit Guard; assembly mistakes panic. Registering the same endpoint id twice
// returns the *endpoint.DuplicateError. Configuration problems are not fatal: they are
// logged, reported by Err, and the affected endpoints fall back to defaults.
func New(store *settings.Store, opts ...Option) (*Handler, error) {
	if store == nil {
		panic("admin: nil settings store")
	}
	b := &Builder{}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}

	h := &Handler{
		store:  store,
		reg:    endpoint.NewRegistry(endpoint.WithLogger(b.logger)),
		specs:  make(map[string]*mountSpec, len(b.specs)),
		logger: b.logger,
		format: b.format,
	}
	for i := range b.specs {
		s := &b.specs[i]
		if err := h.reg.Register(s.desc); err != nil {
			return nil, err
		}
		s.desc, _ = h.reg.Lookup(s.desc.ID)
		h.specs[s.desc.ID] = s
	}
	if b.registerer != nil {
		m, err := newMetrics(b.registerer)
		if err != nil {
			return nil, err
		}
		h.metrics = m
	}
	for _, s := range h.specs {
		s.handler = s.build(h)
		if s.handler == nil {
			panic("admin: " + s.desc.ID + ": nil handler")
		}
	}

	h.entry = httpx.Chain(
		httpx.Recover(httpx.WithRecoverLogger(h.logger)),
		httpx.RequestID(),
	).Handler(http.HandlerFunc(h.dispatch))

	h.rebuild(store.Load())
	store.Watch(h.rebuild)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.entry.ServeHTTP(w, r)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	h.cur.Load().router.ServeHTTP(w, r)
}

// Rebuild re-resolves every endpoint against the store's current snapshot and swaps
// the route table. It returns the resolution problems, if any (see Err).
func (h *Handler) Rebuild() error {
	h.rebuild(h.store.Load())
	return h.Err()
}

// Err returns the problems reported by the last rebuild (a *endpoint.ResolveError), or nil.
func (h *Handler) Err() error { return h.cur.Load().err }

// Resolved returns the resolution result the current route table was built from.
func (h *Handler) Resolved() []endpoint.Resolved {
	return append([]endpoint.Resolved(nil), h.cur.Load().resolved...)
}

// Mappings returns the mounted routes in registration order.
func (h *Handler) Mappings() []ops.Mapping {
	return append([]ops.Mapping(nil), h.cur.Load().mappings...)
}

// Links returns the link name -> route index of the mounted endpoints.
func (h *Handler) Links() map[string]string {
	src := h.cur.Load().links
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Registry returns the registry holding the enabled endpoint descriptors.
func (h *Handler) Registry() *endpoint.Registry { return h.reg }

func (h *Handler) rebuild(snap *settings.Snapshot) {
	if snap == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev := h.cur.Load(); prev != nil && prev.version > snap.Version {
		return
	}

	resolved, err := h.reg.ResolveAll(snap.Root)
	st := &mountState{
		version:  snap.Version,
		resolved: resolved,
		links:    make(map[string]string),
		err:      err,
	}

	r := chi.NewRouter()
	selfRoute := ""
	for _, res := range resolved {
		if !res.Exposed {
			continue
		}
		id := res.Descriptor.ID
		if !mountable(res.Route) {
			h.logger.Warn("admin: route cannot be mounted, endpoint skipped", "endpoint", id, "route", res.Route)
			continue
		}
		s := h.specs[id]
		eh := s.handler
		if s.subtree {
			eh = http.StripPrefix(strings.TrimSuffix(res.Route, "/"), eh)
		}
		eh = s.guarded(eh)
		if h.metrics != nil {
			eh = h.metrics.instrument(id, eh)
		}
		r.Handle(res.Route, eh)
		if s.subtree {
			r.Handle(subtreePattern(res.Route), eh)
		}

		st.mappings = append(st.mappings, ops.Mapping{
			ID:      id,
			Route:   res.Route,
			Methods: append([]string(nil), s.methods...),
			Subtree: s.subtree,
		})
		if id == LinksID {
			selfRoute = res.Route
			continue
		}
		st.links[id] = res.Route
		if s.subtree && s.template != "" {
			st.links[id+"-"+s.template] = strings.TrimSuffix(res.Route, "/") + "/{" + s.template + "}"
		}
	}
	if selfRoute != "" {
		st.links[ops.SelfLink] = selfRoute
	}
	st.router = r
	h.cur.Store(st)

	if h.metrics != nil {
		h.metrics.rebuilds.Inc()
		h.metrics.exposed.Set(float64(len(st.mappings)))
	}
	h.logger.Info("admin: endpoints mounted",
		"version", snap.Version,
		"source", snap.Source,
		"mounted", len(st.mappings),
		"registered", len(resolved),
	)
}
