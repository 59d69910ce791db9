package exposure

import (
	"errors"
	"sort"
	"strings"

	"github.com/evan-idocoding/actuator/settings"
)

// Wildcard matches every endpoint id in Include and Exclude.
const Wildcard = "*"

// Configuration paths read by FromNode.
const (
	IncludeKey = "Management:Endpoints:Actuator:Exposure:Include"
	ExcludeKey = "Management:Endpoints:Actuator:Exposure:Exclude"
)

// DefaultInclude is the include list used when none is configured.
var DefaultInclude = []string{"health", "info"}

// Policy decides which endpoint ids are reachable over the transport.
//
// A Policy is an immutable value; the zero value exposes nothing.
type Policy struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

// New builds a policy. Entries are trimmed and lowercased; blanks are dropped.
func New(include, exclude []string) Policy {
	return Policy{include: toSet(include), exclude: toSet(exclude)}
}

// Default returns the policy used when nothing is configured: include health and info.
func Default() Policy { return New(DefaultInclude, nil) }

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = normalizeID(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

func normalizeID(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

// IsExposed reports whether id passes the policy.
//
// Evaluation order:
//  1. Exclude contains the wildcard: false. A literal include cannot override it.
//  2. Exclude contains id: false.
//  3. Include contains the wildcard or id: true.
//  4. Otherwise false.
func (p Policy) IsExposed(id string) bool {
	id = normalizeID(id)
	if _, ok := p.exclude[Wildcard]; ok {
		return false
	}
	if _, ok := p.exclude[id]; ok {
		return false
	}
	if _, ok := p.include[Wildcard]; ok {
		return true
	}
	_, ok := p.include[id]
	return ok
}

// IsExposed is the free-function form of Policy.IsExposed.
func IsExposed(id string, p Policy) bool { return p.IsExposed(id) }

// Include returns the include entries, sorted.
func (p Policy) Include() []string { return sortedKeys(p.include) }

// Exclude returns the exclude entries, sorted.
func (p Policy) Exclude() []string { return sortedKeys(p.exclude) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UnknownReferences returns the non-wildcard entries that name no known id, sorted.
//
// Such entries have no effect; callers typically log them as warnings.
func (p Policy) UnknownReferences(known []string) []string {
	k := toSet(known)
	seen := make(map[string]struct{})
	var out []string
	for _, set := range []map[string]struct{}{p.include, p.exclude} {
		for id := range set {
			if id == Wildcard {
				continue
			}
			if _, ok := k[id]; ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// FromNode reads the policy from a configuration tree.
//
// An absent Include keeps DefaultInclude; an absent Exclude is empty. A malformed list
// falls back the same way and is reported as a *settings.TypeError; the returned policy
// is always usable.
func FromNode(root settings.Node) (Policy, error) {
	var errs []error

	include := DefaultInclude
	if v, ok := root.Lookup(IncludeKey); ok {
		list, err := settings.StringList(IncludeKey, v)
		if err != nil {
			errs = append(errs, err)
		} else {
			include = list
		}
	}

	var exclude []string
	if v, ok := root.Lookup(ExcludeKey); ok {
		list, err := settings.StringList(ExcludeKey, v)
		if err != nil {
			errs = append(errs, err)
		} else {
			exclude = list
		}
	}

	return New(include, exclude), errors.Join(errs...)
}
