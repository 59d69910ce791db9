package settings

import (
	"sort"
	"strconv"
	"strings"
)

// Node is a configuration tree.
//
// Values are scalars (string, bool, int, int64, float64, nil), nested Nodes or lists ([]any).
// Keys are matched case-insensitively; the casing seen first is preserved.
//
// A Node obtained from a Snapshot must be treated as read-only.
type Node map[string]any

// Get returns the value stored under key (case-insensitive; an exact match wins).
func (n Node) Get(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	if v, ok := n[key]; ok {
		return v, true
	}
	for k, v := range n {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (n Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Key returns the stored casing of key, or "" if absent.
func (n Node) Key(key string) string {
	if n == nil {
		return ""
	}
	if _, ok := n[key]; ok {
		return key
	}
	for k := range n {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return ""
}

// Child returns the nested node stored under key, or nil.
func (n Node) Child(key string) Node {
	v, ok := n.Get(key)
	if !ok {
		return nil
	}
	c, _ := v.(Node)
	return c
}

// Lookup walks a separated path ("Management:Endpoints:Enabled").
//
// ':' , '.' and "__" are all accepted as separators.
func (n Node) Lookup(path string) (any, bool) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	cur := n
	for i, p := range parts {
		v, ok := cur.Get(p)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.(Node)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// LookupNode is like Lookup but only returns nested nodes.
func (n Node) LookupNode(path string) Node {
	v, ok := n.Lookup(path)
	if !ok {
		return nil
	}
	c, _ := v.(Node)
	return c
}

// Keys returns the keys in lexical order.
func (n Node) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (n Node) Clone() Node {
	if n == nil {
		return nil
	}
	out := make(Node, len(n))
	for k, v := range n {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Node:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Overlay returns a new tree with top merged over base.
//
// Nested nodes are merged recursively; any other value in top replaces the value in base.
// Neither input is modified.
func Overlay(base, top Node) Node {
	out := base.Clone()
	if out == nil {
		out = make(Node, len(top))
	}
	for k, tv := range top {
		bk := out.Key(k)
		if bk == "" {
			out[k] = cloneValue(tv)
			continue
		}
		bn, bok := out[bk].(Node)
		tn, tok := tv.(Node)
		if bok && tok {
			out[bk] = Overlay(bn, tn)
			continue
		}
		out[bk] = cloneValue(tv)
	}
	return out
}

// SplitPath splits a configuration path into its segments.
func SplitPath(path string) []string {
	path = strings.ReplaceAll(path, "__", ":")
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == ':' || r == '.' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FromFlat builds a tree from flat "A:B:C" keys.
//
// All values stay strings. When a key is both a leaf and a prefix of another key,
// the nested node wins.
func FromFlat(flat map[string]string) Node {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Shorter keys first so deeper keys overwrite leaf/prefix clashes deterministically.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	root := Node{}
	for _, k := range keys {
		parts := SplitPath(k)
		if len(parts) == 0 {
			continue
		}
		cur := root
		for _, p := range parts[:len(parts)-1] {
			ck := cur.Key(p)
			if ck == "" {
				next := Node{}
				cur[p] = next
				cur = next
				continue
			}
			next, ok := cur[ck].(Node)
			if !ok {
				next = Node{}
				cur[ck] = next
			}
			cur = next
		}
		leaf := parts[len(parts)-1]
		if lk := cur.Key(leaf); lk != "" {
			if _, isNode := cur[lk].(Node); isNode {
				continue
			}
			leaf = lk
		}
		cur[leaf] = flat[k]
	}
	return root
}

// Flatten returns the tree as "A:B:C" keys with string values.
//
// List elements are keyed by index ("Include:0").
func (n Node) Flatten() map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", n)
	return out
}

func flattenInto(out map[string]string, prefix string, v any) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + ":" + k
	}
	switch x := v.(type) {
	case Node:
		for k, c := range x {
			flattenInto(out, join(k), c)
		}
	case []any:
		for i, c := range x {
			flattenInto(out, join(strconv.Itoa(i)), c)
		}
	default:
		if prefix != "" {
			out[prefix] = scalarString(x)
		}
	}
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return ""
	}
}

// Normalize converts decoded YAML/JSON values into tree values.
//
// Maps become Nodes (non-string keys are formatted), integers are widened to int64,
// unsupported values are dropped.
func Normalize(v any) any {
	switch x := v.(type) {
	case Node:
		return normalizeMap(x)
	case map[string]any:
		return normalizeMap(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[anyKey(k)] = e
		}
		return normalizeMap(m)
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			out = append(out, Normalize(e))
		}
		return out
	case []string:
		out := make([]any, 0, len(x))
		for _, e := range x {
			out = append(out, e)
		}
		return out
	case string, bool, float64, int64, nil:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		return x
	case float32:
		return float64(x)
	default:
		return nil
	}
}

func normalizeMap(m map[string]any) Node {
	out := make(Node, len(m))
	for k, e := range m {
		if ek := out.Key(k); ek != "" {
			k = ek
		}
		out[k] = Normalize(e)
	}
	return out
}

func anyKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	if s := scalarString(Normalize(k)); s != "" {
		return s
	}
	return ""
}
