package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type names used in TypeError.Expected.
const (
	TypeBool       = "bool"
	TypeString     = "string"
	TypeStringList = "list of string"
)

// TypeError reports a configuration value that cannot be used as the expected type.
type TypeError struct {
	Key      string // full configuration path of the offending value
	Expected string
	Got      any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("settings: %s: expected %s, got %s", e.Key, e.Expected, describe(e.Got))
}

// Is makes errors.Is(err, ErrType) match any *TypeError.
func (e *TypeError) Is(target error) bool { return target == ErrType }

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case Node:
		return "section"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("%T(%v)", v, v)
	}
}

// Bool coerces v to a bool.
//
// Accepts a bool, or a string equal to "true"/"false" (case-insensitive, trimmed).
// Flat sources such as environment variables only carry strings.
func Bool(key string, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, &TypeError{Key: key, Expected: TypeBool, Got: v}
}

// String coerces v to a string. Only strings are accepted.
func String(key string, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", &TypeError{Key: key, Expected: TypeString, Got: v}
}

// StringList coerces v to a list of strings.
//
// Accepted shapes:
//   - a list of strings (YAML/JSON arrays)
//   - a section keyed by list index ("0", "1", ...), as produced by flat sources
//   - a single comma-separated string
//
// Blank elements are dropped.
func StringList(key string, v any) ([]string, error) {
	switch x := v.(type) {
	case string:
		return splitList(x), nil
	case []string:
		return compact(x), nil
	case []any:
		out := make([]string, 0, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, &TypeError{Key: key + ":" + strconv.Itoa(i), Expected: TypeString, Got: e}
			}
			out = append(out, s)
		}
		return compact(out), nil
	case Node:
		type indexed struct {
			i int
			s string
		}
		items := make([]indexed, 0, len(x))
		for k, e := range x {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 {
				return nil, &TypeError{Key: key, Expected: TypeStringList, Got: v}
			}
			s, ok := e.(string)
			if !ok {
				return nil, &TypeError{Key: key + ":" + k, Expected: TypeString, Got: e}
			}
			items = append(items, indexed{i: i, s: s})
		}
		sort.Slice(items, func(a, b int) bool { return items[a].i < items[b].i })
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.s)
		}
		return compact(out), nil
	}
	return nil, &TypeError{Key: key, Expected: TypeStringList, Got: v}
}

func splitList(s string) []string {
	return compact(strings.Split(s, ","))
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
