package endpoint

import (
	"errors"
	"strings"

	"github.com/evan-idocoding/actuator/settings"
)

// Key names interpreted by the resolver; all other keys go to Settings.Extra.
const (
	KeyEnabled = "Enabled"
	KeyPath    = "Path"
)

// RootKey is where the management tree starts.
const RootKey = "Management:Endpoints"

// actuatorKey is reserved for the exposure section.
const actuatorKey = "actuator"

// Baseline values applied before any configuration.
const (
	DefaultEnabled = true
	DefaultPath    = "/"
)

// Settings are the effective settings of one endpoint.
//
// A Settings value is produced fresh by every resolution pass and never updated in place.
type Settings struct {
	Enabled bool
	Path    string
	Extra   map[string]any
}

// Resolve merges the baseline, the global node and the endpoint's own override node.
//
// Precedence is baseline < global < overrides[id]. Missing keys inherit from the level
// above. A value of the wrong type is reported as a *settings.TypeError and the level
// above is kept for that key; resolution of the other keys continues.
func Resolve(global settings.Node, overrides map[string]settings.Node, id string) (Settings, error) {
	s := Settings{
		Enabled: DefaultEnabled,
		Path:    DefaultPath,
		Extra:   make(map[string]any),
	}
	var errs []error
	errs = s.overlay(global, RootKey, errs)

	if o, key := overrideFor(overrides, id); o != nil {
		errs = s.overlay(o, RootKey+":"+key, errs)
	}
	if len(s.Extra) == 0 {
		s.Extra = nil
	}
	return s, errors.Join(errs...)
}

func overrideFor(overrides map[string]settings.Node, id string) (settings.Node, string) {
	if o, ok := overrides[id]; ok {
		return o, id
	}
	for k, o := range overrides {
		if strings.EqualFold(k, id) {
			return o, k
		}
	}
	return nil, ""
}

func (s *Settings) overlay(n settings.Node, prefix string, errs []error) []error {
	for _, k := range n.Keys() {
		v := n[k]
		path := prefix + ":" + k
		switch {
		case strings.EqualFold(k, KeyEnabled):
			b, err := settings.Bool(path, v)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			s.Enabled = b
		case strings.EqualFold(k, KeyPath):
			p, err := settings.String(path, v)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			s.Path = p
		default:
			// Same key at a lower level (any casing) is replaced.
			for ek := range s.Extra {
				if strings.EqualFold(ek, k) {
					delete(s.Extra, ek)
				}
			}
			s.Extra[k] = v
		}
	}
	return errs
}

// Sections splits the management tree of root into the global node and the per-endpoint
// override nodes.
//
// The global node keeps only scalar and list values. Nested nodes whose key matches one of
// ids (case-insensitive) become overrides, keyed by the matching id. The remaining nested
// nodes are returned as unknown, except the reserved Actuator exposure section.
func Sections(root settings.Node, ids []string) (global settings.Node, overrides map[string]settings.Node, unknown []string) {
	mgmt := root.LookupNode(RootKey)
	global = settings.Node{}
	overrides = make(map[string]settings.Node)

	known := make(map[string]string, len(ids))
	for _, id := range ids {
		known[strings.ToLower(id)] = id
	}

	for _, k := range mgmt.Keys() {
		v := mgmt[k]
		n, isNode := v.(settings.Node)
		if !isNode {
			global[k] = v
			continue
		}
		if id, ok := known[strings.ToLower(k)]; ok {
			overrides[id] = n
			continue
		}
		if strings.EqualFold(k, actuatorKey) {
			continue
		}
		unknown = append(unknown, k)
	}
	return global, overrides, unknown
}
