package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Source produces one configuration layer.
type Source interface {
	Name() string
	Load(ctx context.Context) (Node, error)
}

// Loader overlays its sources in order; later sources win.
type Loader struct {
	Sources []Source
}

// NewLoader returns a loader over the given sources. Nil sources are ignored.
func NewLoader(sources ...Source) *Loader {
	l := &Loader{Sources: make([]Source, 0, len(sources))}
	for _, s := range sources {
		if s != nil {
			l.Sources = append(l.Sources, s)
		}
	}
	return l
}

// Load reads every source and returns the merged tree.
func (l *Loader) Load(ctx context.Context) (Node, error) {
	root := Node{}
	if l == nil {
		return root, nil
	}
	for _, s := range l.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("settings: load %s: %w", s.Name(), err)
		}
		root = Overlay(root, n)
	}
	return root, nil
}

// Describe returns the source names joined for Snapshot.Source.
func (l *Loader) Describe() string {
	if l == nil || len(l.Sources) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(l.Sources))
	for _, s := range l.Sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, ",")
}

// Reload loads all sources and swaps the result into st.
//
// It returns the flattened keys that changed. On error the store is left untouched.
func (l *Loader) Reload(ctx context.Context, st *Store) ([]string, error) {
	root, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	before := st.Load().Root
	st.Swap(root, l.Describe())
	return ChangedKeys(before, root), nil
}

// --- file ---

type fileSource struct {
	path     string
	optional bool
}

// File returns a source reading a YAML (.yaml, .yml) or JSON (.json, .jsonc) file.
//
// JSON files may contain comments and trailing commas.
func File(path string) Source { return fileSource{path: path} }

// OptionalFile is like File, but a missing file yields an empty layer.
func OptionalFile(path string) Source { return fileSource{path: path, optional: true} }

func (f fileSource) Name() string { return "file:" + f.path }

func (f fileSource) Load(_ context.Context) (Node, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if f.optional && os.IsNotExist(err) {
			return Node{}, nil
		}
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json", ".jsonc":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f.path)
	}
}

// ParseYAML decodes a YAML document into a tree.
func ParseYAML(data []byte) (Node, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return documentRoot(raw)
}

// ParseJSON decodes a JSON document (comments and trailing commas allowed) into a tree.
func ParseJSON(data []byte) (Node, error) {
	var raw any
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, err
	}
	return documentRoot(raw)
}

func documentRoot(raw any) (Node, error) {
	if raw == nil {
		return Node{}, nil
	}
	n, ok := Normalize(raw).(Node)
	if !ok {
		return nil, ErrInvalidDocument
	}
	return n, nil
}

// --- env ---

type envSource struct {
	prefix  string
	environ func() []string
}

// Env returns a source reading environment variables.
//
// Keys use "__" (or ':') as the path separator, e.g. Management__Endpoints__Enabled=false.
// With a non-empty prefix only variables starting with it are read, and the prefix is
// stripped. environ defaults to os.Environ.
func Env(prefix string, environ func() []string) Source {
	if environ == nil {
		environ = os.Environ
	}
	return envSource{prefix: prefix, environ: environ}
}

func (e envSource) Name() string {
	if e.prefix == "" {
		return "env"
	}
	return "env:" + e.prefix
}

func (e envSource) Load(_ context.Context) (Node, error) {
	flat := make(map[string]string)
	for _, kv := range e.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		if e.prefix != "" {
			if !strings.HasPrefix(k, e.prefix) {
				continue
			}
			k = strings.TrimPrefix(k, e.prefix)
		}
		// Only hierarchical keys; plain variables like PATH or HOME are not configuration.
		if !strings.Contains(k, "__") && !strings.Contains(k, ":") {
			if e.prefix == "" {
				continue
			}
		}
		flat[k] = v
	}
	return FromFlat(flat), nil
}

// --- static ---

type staticSource struct {
	name string
	root Node
}

// Static returns a source that always yields a copy of root.
func Static(name string, root Node) Source { return staticSource{name: name, root: root.Clone()} }

func (s staticSource) Name() string { return "static:" + s.name }

func (s staticSource) Load(_ context.Context) (Node, error) {
	if s.root == nil {
		return Node{}, nil
	}
	return s.root.Clone(), nil
}
