package endpoint

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/evan-idocoding/actuator/exposure"
	"github.com/evan-idocoding/actuator/settings"
)

// Descriptor identifies a management endpoint.
type Descriptor struct {
	// ID is unique case-insensitively and stored lowercase (e.g. "health").
	ID string
	// DefaultPath is the route segment under the global base path.
	// Empty means ID; "/" mounts the endpoint at the base path itself.
	DefaultPath string
}

// Resolved is the outcome of one resolution pass for one endpoint.
type Resolved struct {
	Descriptor Descriptor
	Settings   Settings
	// Exposed is Settings.Enabled && policy.IsExposed(ID), minus route conflicts.
	Exposed bool
	// Route is the externally visible path, e.g. "/actuator/health".
	Route string
	// Err is non-nil when resolution reported problems; Settings holds fallbacks.
	Err error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the diagnostics logger. Without one, diagnostics are only returned as errors.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry holds endpoint descriptors in registration order.
//
// Registration is expected at startup; reads are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	descs []Descriptor
	index map[string]int // lowercase id -> position

	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds d. It fails with a *DuplicateError when the id is already registered
// (case-insensitive) and with ErrInvalidDescriptor when d is malformed.
func (r *Registry) Register(d Descriptor) error {
	norm, err := normalizeDescriptor(d)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[norm.ID]; ok {
		return &DuplicateError{ID: strings.TrimSpace(d.ID), Existing: r.descs[i].ID}
	}
	r.index[norm.ID] = len(r.descs)
	r.descs = append(r.descs, norm)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Descriptor(nil), r.descs...)
}

// Lookup returns the descriptor registered under id (case-insensitive).
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Descriptor{}, false
	}
	return r.descs[i], true
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descs)
}

// ResolveAll resolves every registered endpoint against root, in registration order.
//
// Problems are isolated per endpoint: the returned slice is always complete, and the
// error (a *ResolveError) names every endpoint that reported one.
func (r *Registry) ResolveAll(root settings.Node) ([]Resolved, error) {
	descs := r.Descriptors()
	ids := make([]string, len(descs))
	for i, d := range descs {
		ids[i] = d.ID
	}

	global, overrides, unknown := Sections(root, ids)
	for _, k := range unknown {
		r.warn("configuration section matches no registered endpoint", "section", RootKey+":"+k)
	}

	var rerr ResolveError
	policy, perr := exposure.FromNode(root)
	if perr != nil {
		rerr.Policy = perr
		r.warn("invalid exposure configuration, using defaults", "error", perr)
	}
	for _, id := range policy.UnknownReferences(ids) {
		r.warn("exposure list references unknown endpoint", "endpoint", id)
	}

	base := basePath(global)
	routes := make(map[string]string, len(descs))
	out := make([]Resolved, 0, len(descs))
	for _, d := range descs {
		s, err := Resolve(global, overrides, d.ID)
		res := Resolved{
			Descriptor: d,
			Settings:   s,
			Exposed:    s.Enabled && policy.IsExposed(d.ID),
			Route:      joinRoute(base, segment(d, overrides[d.ID])),
			Err:        err,
		}
		if res.Exposed {
			if owner, taken := routes[res.Route]; taken {
				res.Exposed = false
				res.Err = errors.Join(res.Err, fmt.Errorf("%w: %s is already served by %s", ErrRouteConflict, res.Route, owner))
			} else {
				routes[res.Route] = d.ID
			}
		}
		if res.Err != nil {
			rerr.add(d.ID, res.Err)
			r.warn("endpoint resolution reported problems", "endpoint", d.ID, "error", res.Err)
		}
		out = append(out, res)
	}

	if len(rerr.order) == 0 && rerr.Policy == nil {
		return out, nil
	}
	return out, &rerr
}

func (r *Registry) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn("endpoint: "+msg, args...)
	}
}

func normalizeDescriptor(d Descriptor) (Descriptor, error) {
	id := strings.ToLower(strings.TrimSpace(d.ID))
	if id == "" {
		return Descriptor{}, fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return Descriptor{}, fmt.Errorf("%w: id %q contains %q", ErrInvalidDescriptor, d.ID, c)
		}
	}
	p := strings.TrimSpace(d.DefaultPath)
	if p == "" {
		p = id
	}
	if strings.ContainsAny(p, " \t\r\n?#") {
		return Descriptor{}, fmt.Errorf("%w: default path %q", ErrInvalidDescriptor, d.DefaultPath)
	}
	return Descriptor{ID: id, DefaultPath: p}, nil
}

func basePath(global settings.Node) string {
	v, ok := global.Get(KeyPath)
	if !ok {
		return DefaultPath
	}
	s, err := settings.String(RootKey+":"+KeyPath, v)
	if err != nil {
		return DefaultPath
	}
	return s
}

func segment(d Descriptor, override settings.Node) string {
	if v, ok := override.Get(KeyPath); ok {
		if s, err := settings.String(KeyPath, v); err == nil {
			return s
		}
	}
	return d.DefaultPath
}

func joinRoute(base, seg string) string {
	return path.Clean("/" + strings.Trim(base, "/") + "/" + strings.Trim(seg, "/"))
}
