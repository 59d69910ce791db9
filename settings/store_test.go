package settings

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SwapBumpsVersionAndCopies(t *testing.T) {
	root := Node{"a": "1"}
	st := NewStore(root, "test")
	root["a"] = "mutated"

	s1 := st.Load()
	assert.Equal(t, uint64(1), s1.Version)
	assert.Equal(t, "1", s1.Root["a"])

	var seen atomic.Uint64
	st.Watch(func(s *Snapshot) { seen.Store(s.Version) })
	st.Watch(func(*Snapshot) { panic("boom") }) // swallowed

	s2 := st.Swap(Node{"a": "2"}, "reload")
	assert.Equal(t, uint64(2), s2.Version)
	assert.Equal(t, "reload", s2.Source)
	assert.Equal(t, uint64(2), seen.Load())
	assert.Same(t, s2, st.Load())

	// The old snapshot is not modified by the swap.
	assert.Equal(t, "1", s1.Root["a"])
}

func TestStore_ConcurrentReadersNeverSeeMixedSnapshot(t *testing.T) {
	gen := func(i int) Node {
		v := fmt.Sprintf("gen-%d", i)
		return Node{
			"Management": Node{"Endpoints": Node{"Path": v, "Marker": v}},
			"Other":      v,
		}
	}
	st := NewStore(gen(0), "init")

	const swaps = 200
	var wg sync.WaitGroup
	stop := make(chan struct{})
	var mixed atomic.Int64

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := st.Load()
				p, _ := snap.Root.Lookup("Management:Endpoints:Path")
				m, _ := snap.Root.Lookup("Management:Endpoints:Marker")
				o, _ := snap.Root.Lookup("Other")
				if p != m || p != o {
					mixed.Add(1)
				}
			}
		}()
	}

	for i := 1; i <= swaps; i++ {
		st.Swap(gen(i), "swap")
	}
	close(stop)
	wg.Wait()

	require.Zero(t, mixed.Load())
	assert.Equal(t, uint64(swaps+1), st.Load().Version)
}

func TestChangedKeys(t *testing.T) {
	before := Node{"a": "1", "b": Node{"c": "2"}, "gone": "x"}
	after := Node{"a": "1", "b": Node{"c": "3"}, "new": "y"}
	assert.Equal(t, []string{"b:c", "gone", "new"}, ChangedKeys(before, after))
}
