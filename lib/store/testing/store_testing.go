package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the conformance suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory store.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, newStore(t, factory))
		})

		t.Run("SetReturnsPrevious", func(t *testing.T) {
			testSetReturnsPrevious(t, newStore(t, factory))
		})

		t.Run("Del", func(t *testing.T) {
			testDel(t, newStore(t, factory))
		})

		t.Run("Contains", func(t *testing.T) {
			testContains(t, newStore(t, factory))
		})

		t.Run("GetAll", func(t *testing.T) {
			testGetAll(t, newStore(t, factory))
		})

		t.Run("GetAllEmptyTable", func(t *testing.T) {
			testGetAllEmptyTable(t, newStore(t, factory))
		})

		t.Run("GetIter", func(t *testing.T) {
			testGetIter(t, newStore(t, factory))
		})

		t.Run("TableIsolation", func(t *testing.T) {
			testTableIsolation(t, newStore(t, factory))
		})

		t.Run("AllValueKinds", func(t *testing.T) {
			testAllValueKinds(t, newStore(t, factory))
		})

		t.Run("ConcurrentWrites", func(t *testing.T) {
			testConcurrentWrites(t, newStore(t, factory))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, newStore(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// newStore creates a store and closes it when the test finishes.
func newStore(tb testing.TB, factory store.Factory) store.IStore {
	s, err := factory()
	require.NoError(tb, err)
	tb.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func keysOf(pairs []store.Kvpair) []string {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	_, existed, err := s.Set("t1", "hello", store.String("world"))
	require.NoError(t, err)
	assert.False(t, existed)

	v, found, err := s.Get("t1", "hello")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, store.String("world").Equal(v), "got %s", v)

	_, found, err = s.Get("t1", "nonexistent")
	require.NoError(t, err)
	assert.False(t, found, "missing key must not be found")

	_, found, err = s.Get("never-written", "hello")
	require.NoError(t, err)
	assert.False(t, found)
}

func testSetReturnsPrevious(t *testing.T, s store.IStore) {
	old, existed, err := s.Set("t1", "hello", store.String("world"))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.True(t, old.IsNone())

	old, existed, err = s.Set("t1", "hello", store.String("world1"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.True(t, store.String("world").Equal(old), "got %s", old)

	v, _, err := s.Get("t1", "hello")
	require.NoError(t, err)
	assert.True(t, store.String("world1").Equal(v))
}

func testDel(t *testing.T, s store.IStore) {
	_, _, err := s.Set("t1", "k", store.Int(10))
	require.NoError(t, err)

	old, existed, err := s.Del("t1", "k")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.True(t, store.Int(10).Equal(old))

	_, found, err := s.Get("t1", "k")
	require.NoError(t, err)
	assert.False(t, found)

	old, existed, err = s.Del("t1", "k")
	require.NoError(t, err)
	assert.False(t, existed, "deleting twice must report absence")
	assert.True(t, old.IsNone())
}

func testContains(t *testing.T, s store.IStore) {
	ok, err := s.Contains("t1", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.Set("t1", "k", store.Value{})
	require.NoError(t, err)

	ok, err = s.Contains("t1", "k")
	require.NoError(t, err)
	assert.True(t, ok, "a default value is still a present key")

	_, _, err = s.Del("t1", "k")
	require.NoError(t, err)

	ok, err = s.Contains("t1", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testGetAll(t *testing.T, s store.IStore) {
	for i, name := range []string{"alice", "bob", "carol"} {
		_, _, err := s.Set("users", fmt.Sprintf("u%d", i+1), store.String(name))
		require.NoError(t, err)
	}
	_, _, err := s.Set("other", "u9", store.String("mallory"))
	require.NoError(t, err)

	pairs, err := s.GetAll("users")
	require.NoError(t, err)
	store.SortPairs(pairs)

	assert.Equal(t, []store.Kvpair{
		store.NewKvpair("u1", store.String("alice")),
		store.NewKvpair("u2", store.String("bob")),
		store.NewKvpair("u3", store.String("carol")),
	}, pairs)
}

func testGetAllEmptyTable(t *testing.T, s store.IStore) {
	pairs, err := s.GetAll("empty")
	require.NoError(t, err)
	assert.Empty(t, pairs)

	it, err := s.GetIter("empty")
	require.NoError(t, err)
	_, ok := it.Next()
	assert.False(t, ok)
	require.NoError(t, it.Close())
}

func testGetIter(t *testing.T, s store.IStore) {
	const n = 100
	for i := 0; i < n; i++ {
		_, _, err := s.Set("iter", fmt.Sprintf("key-%03d", i), store.Int(int64(i)))
		require.NoError(t, err)
	}

	it, err := s.GetIter("iter")
	require.NoError(t, err)

	seen := make(map[string]store.Value, n)
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		_, dup := seen[p.Key]
		assert.False(t, dup, "key %s produced twice", p.Key)
		seen[p.Key] = p.Value
	}
	assert.Len(t, seen, n)
	assert.True(t, store.Int(42).Equal(seen["key-042"]))

	// an exhausted iterator stays exhausted
	_, ok := it.Next()
	assert.False(t, ok)

	require.NoError(t, it.Close())
	require.NoError(t, it.Close(), "close must be idempotent")

	// stopping early releases the iterator
	it, err = s.GetIter("iter")
	require.NoError(t, err)
	_, ok = it.Next()
	assert.True(t, ok)
	require.NoError(t, it.Close())
}

func testTableIsolation(t *testing.T, s store.IStore) {
	_, _, err := s.Set("a", "k", store.String("in-a"))
	require.NoError(t, err)
	_, _, err = s.Set("ab", "k", store.String("in-ab"))
	require.NoError(t, err)
	_, _, err = s.Set("a", "bk", store.String("in-a-bk"))
	require.NoError(t, err)

	v, found, err := s.Get("ab", "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, store.String("in-ab").Equal(v))

	pairs, err := s.GetAll("a")
	require.NoError(t, err)
	store.SortPairs(pairs)
	assert.Equal(t, []string{"bk", "k"}, keysOf(pairs))

	_, _, err = s.Del("a", "k")
	require.NoError(t, err)
	ok, err := s.Contains("ab", "k")
	require.NoError(t, err)
	assert.True(t, ok, "deleting in one table must not touch another")
}

func testAllValueKinds(t *testing.T, s store.IStore) {
	values := map[string]store.Value{
		"none":   {},
		"string": store.String("text"),
		"binary": store.Binary([]byte{0x00, 0x01, 0xfe}),
		"empty":  store.Binary(nil),
		"int":    store.Int(-1 << 40),
		"float":  store.Float(2.5),
		"bool":   store.Bool(true),
	}
	for k, v := range values {
		_, _, err := s.Set("kinds", k, v)
		require.NoError(t, err)
	}
	for k, want := range values {
		got, found, err := s.Get("kinds", k)
		require.NoError(t, err)
		require.True(t, found, k)
		assert.True(t, want.Equal(got), "%s: expected %s, got %s", k, want, got)
		assert.Equal(t, want.Kind(), got.Kind(), k)
	}

	// stored binary values must not alias the caller's buffer
	buf := []byte("mutable")
	_, _, err := s.Set("kinds", "buf", store.Binary(buf))
	require.NoError(t, err)
	buf[0] = 'X'
	got, _, err := s.Get("kinds", "buf")
	require.NoError(t, err)
	assert.True(t, store.Binary([]byte("mutable")).Equal(got))
}

func testConcurrentWrites(t *testing.T, s store.IStore) {
	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-%d", w, i)
				if _, _, err := s.Set("concurrent", key, store.Int(int64(i))); err != nil {
					t.Errorf("set %s: %v", key, err)
				}
			}
		}(w)
	}

	// all workers overwrite the same key, exactly one of them sees no previous value
	var firsts sync.Map
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			_, existed, err := s.Set("concurrent", "shared", store.Int(int64(w)))
			if err != nil {
				t.Errorf("set shared: %v", err)
				return
			}
			if !existed {
				firsts.Store(w, true)
			}
		}(w)
	}
	wg.Wait()

	count := 0
	firsts.Range(func(_, _ any) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)

	pairs, err := s.GetAll("concurrent")
	require.NoError(t, err)
	assert.Len(t, pairs, workers*perWorker+1)
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	_, _, err := s.Set("sessions", "s1", store.String("token-1"))
	require.NoError(t, err)
	_, _, err = s.Set("sessions", "s2", store.String("token-2"))
	require.NoError(t, err)
	_, _, err = s.Set("counters", "visits", store.Int(1))
	require.NoError(t, err)

	old, _, err := s.Set("counters", "visits", store.Int(2))
	require.NoError(t, err)
	assert.True(t, store.Int(1).Equal(old))

	_, _, err = s.Del("sessions", "s1")
	require.NoError(t, err)

	pairs, err := s.GetAll("sessions")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, keysOf(pairs))

	it, err := s.GetIter("counters")
	require.NoError(t, err)
	collected, err := store.Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []store.Kvpair{store.NewKvpair("visits", store.Int(2))}, collected)
}
