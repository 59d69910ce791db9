package settings

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of the configuration tree.
type Snapshot struct {
	Root     Node
	Version  uint64
	Source   string
	LoadedAt time.Time
}

// Store holds the current Snapshot and swaps it atomically on reload.
//
// Readers call Load once per pass and work on that snapshot only; they never see a
// partially updated tree. It is safe for concurrent use.
type Store struct {
	cur atomic.Pointer[Snapshot]

	// swapMu serializes Swap so versions are monotonic and watchers run in order.
	swapMu   sync.Mutex
	watchers []func(*Snapshot)
}

// NewStore creates a store holding a copy of root as version 1.
func NewStore(root Node, source string) *Store {
	s := &Store{}
	s.cur.Store(&Snapshot{
		Root:     root.Clone(),
		Version:  1,
		Source:   source,
		LoadedAt: time.Now(),
	})
	return s
}

// Load returns the current snapshot. It never returns nil for a store built by NewStore.
func (s *Store) Load() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	if snap := s.cur.Load(); snap != nil {
		return snap
	}
	return &Snapshot{}
}

// Swap installs a copy of root as the new snapshot and notifies watchers.
func (s *Store) Swap(root Node, source string) *Snapshot {
	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	var version uint64 = 1
	if old := s.cur.Load(); old != nil {
		version = old.Version + 1
	}
	next := &Snapshot{
		Root:     root.Clone(),
		Version:  version,
		Source:   source,
		LoadedAt: time.Now(),
	}
	s.cur.Store(next)

	for _, fn := range s.watchers {
		safeNotify(fn, next)
	}
	return next
}

// Watch registers fn to be called synchronously after every Swap.
//
// Watchers must be fast. Panics are recovered and swallowed.
func (s *Store) Watch(fn func(*Snapshot)) {
	if fn == nil {
		return
	}
	s.swapMu.Lock()
	s.watchers = append(s.watchers, fn)
	s.swapMu.Unlock()
}

func safeNotify(fn func(*Snapshot), snap *Snapshot) {
	defer func() { _ = recover() }()
	fn(snap)
}

// ChangedKeys returns the flattened keys whose values differ between two trees, sorted.
func ChangedKeys(before, after Node) []string {
	a := before.Flatten()
	b := after.Flatten()
	var out []string
	for k, v := range b {
		if old, ok := a[k]; !ok || old != v {
			out = append(out, k)
		}
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
