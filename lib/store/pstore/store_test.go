package pstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	storetesting "github.com/ValentinKolb/skv/lib/store/testing"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFactory opens every store on its own in-memory file system.
func memFactory() store.Factory {
	return func() (store.IStore, error) {
		return Open("db", &Options{FS: vfs.NewMem(), CacheSize: 1 << 20})
	}
}

func TestPebbleStore(t *testing.T) {
	storetesting.RunStoreTests(t, "pstore", memFactory())
}

func BenchmarkPebbleStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "pstore", memFactory())
}

func openMem(t *testing.T, fs vfs.FS) *storeImpl {
	s, err := Open("db", &Options{FS: fs})
	require.NoError(t, err)
	return s.(*storeImpl)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte{0x01, 'a', 'c'}, prefixUpperBound([]byte{0x01, 'a', 'b'}))
	assert.Equal(t, []byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff, 0xff}))
}

func TestTableWithTrailingFFBytes(t *testing.T) {
	s := openMem(t, vfs.NewMem())
	defer s.Close()

	table := string([]byte{0xff, 0xff})
	_, _, err := s.Set(table, "k", store.Int(1))
	require.NoError(t, err)

	pairs, err := s.GetAll(table)
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestPersistsAcrossReopen(t *testing.T) {
	fs := vfs.NewMem()

	s := openMem(t, fs)
	_, _, err := s.Set("users", "u1", store.String("alice"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openMem(t, fs)
	defer s.Close()
	v, found, err := s.Get("users", "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, store.String("alice").Equal(v))
}

func TestUndecodableEntries(t *testing.T) {
	s := openMem(t, vfs.NewMem())
	defer s.Close()

	_, _, err := s.Set("t", "good", store.String("ok"))
	require.NoError(t, err)
	require.NoError(t, s.db.Set(encodeKey("t", "bad"), []byte{0xff}, pebble.Sync))

	// single key reads report a conversion error
	_, _, err = s.Get("t", "bad")
	assert.Equal(t, store.RetCConversion, store.CodeOf(err))

	// scans degrade the entry to an empty pair
	pairs, err := s.GetAll("t")
	require.NoError(t, err)
	store.SortPairs(pairs)
	require.Len(t, pairs, 2)
	assert.Equal(t, store.Kvpair{}, pairs[0])
	assert.Equal(t, "good", pairs[1].Key)

	// overwriting still happens, the conversion error is reported
	_, _, err = s.Set("t", "bad", store.Int(3))
	assert.Equal(t, store.RetCConversion, store.CodeOf(err))
	v, found, err := s.Get("t", "bad")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, store.Int(3).Equal(v))
}

func TestClosedStore(t *testing.T) {
	s := openMem(t, vfs.NewMem())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err := s.Get("t", "k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.GetIter("t")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestIteratorAfterClose(t *testing.T) {
	s := openMem(t, vfs.NewMem())
	_, _, err := s.Set("t", "k", store.Int(1))
	require.NoError(t, err)

	it, err := s.GetIter("t")
	require.NoError(t, err)
	// the open iterator is reported by pebble on close
	_ = s.Close()

	_, ok := it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Close())
}

func TestCloseWhileOperationsRun(t *testing.T) {
	s := openMem(t, vfs.NewMem())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d-%d", w, i)
				if _, _, err := s.Set("t", key, store.Int(int64(i))); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
				if _, err := s.Contains("t", key); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
				if _, _, err := s.Get("t", key); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}
		}(w)
	}

	require.NoError(t, s.Close())
	wg.Wait()

	_, _, err := s.Del("t", "k0-0")
	assert.ErrorIs(t, err, ErrClosed)
}
