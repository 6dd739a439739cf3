package pstore

import (
	"encoding/binary"
	"sync"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("store")

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("pebble store is closed")

// Options configure the pebble backend.
type Options struct {
	// Sync forces an fsync after every write.
	Sync bool
	// FS is the file system pebble runs on, nil means the OS file system.
	FS vfs.FS
	// CacheSize is the size of the block cache in bytes, 0 uses pebble's default.
	CacheSize int64
}

// DefaultOptions returns the options used when nil is passed to Open.
func DefaultOptions() *Options {
	return &Options{
		Sync: true,
	}
}

// storeImpl holds mu for reading during every operation, Close takes it for writing
// so the database is never closed under a running call.
type storeImpl struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	locks     *xsync.MapOf[string, *sync.Mutex]

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a pebble database in dir and returns it as a store.
func Open(dir string, opts *Options) (store.IStore, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pOpts := &pebble.Options{FS: opts.FS}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		pOpts.Cache = cache
	}

	db, err := pebble.Open(dir, pOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open pebble store in %q", dir)
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	log.Infof("opened pebble store in %q (sync=%t)", dir, opts.Sync)
	return &storeImpl{
		db:        db,
		writeOpts: writeOpts,
		locks:     xsync.NewMapOf[string, *sync.Mutex](),
	}, nil
}

// Factory returns a store.Factory that opens a pebble store in dir.
func Factory(dir string, opts *Options) store.Factory {
	return func() (store.IStore, error) {
		return Open(dir, opts)
	}
}

// --------------------------------------------------------------------------
// Key Encoding
// --------------------------------------------------------------------------

// tablePrefix returns the key prefix shared by all rows of a table.
func tablePrefix(table string) []byte {
	b := make([]byte, 0, binary.MaxVarintLen64+len(table))
	b = binary.AppendUvarint(b, uint64(len(table)))
	return append(b, table...)
}

// encodeKey returns the pebble key of a row.
func encodeKey(table, key string) []byte {
	return append(tablePrefix(table), key...)
}

// decodeKey strips the table prefix from a pebble key.
func decodeKey(prefixLen int, k []byte) string {
	return string(k[prefixLen:])
}

// prefixUpperBound returns the smallest key that is greater than every key starting with prefix.
// nil is returned if no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// tableLock returns the write lock of a table.
func (s *storeImpl) tableLock(table string) *sync.Mutex {
	mu, _ := s.locks.LoadOrCompute(table, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	return mu
}

// load reads and decodes the value stored under k.
func (s *storeImpl) load(op, table, key string, k []byte) (store.Value, bool, error) {
	raw, closer, err := s.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return store.Value{}, false, nil
	}
	if err != nil {
		return store.Value{}, false, store.ErrBackend(err, op, table, key)
	}
	defer closer.Close()

	var v store.Value
	if err := v.UnmarshalBinary(raw); err != nil {
		return store.Value{}, true, store.ErrConversion(err, "table: %s, key: %s", table, key)
	}
	return v, true, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(table, key string) (store.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Value{}, false, ErrClosed
	}
	v, found, err := s.load("get", table, key, encodeKey(table, key))
	if err != nil {
		return store.Value{}, false, err
	}
	return v, found, nil
}

func (s *storeImpl) Set(table, key string, value store.Value) (store.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Value{}, false, ErrClosed
	}
	raw, err := value.MarshalBinary()
	if err != nil {
		return store.Value{}, false, store.ErrConversion(err, "table: %s, key: %s", table, key)
	}
	k := encodeKey(table, key)

	mu := s.tableLock(table)
	mu.Lock()
	defer mu.Unlock()

	old, existed, loadErr := s.load("set", table, key, k)
	if store.CodeOf(loadErr) == store.RetCBackend {
		return store.Value{}, false, loadErr
	}
	// an undecodable previous value is still overwritten
	if err := s.db.Set(k, raw, s.writeOpts); err != nil {
		return store.Value{}, false, store.ErrBackend(err, "set", table, key)
	}
	if loadErr != nil {
		return store.Value{}, false, loadErr
	}
	return old, existed, nil
}

func (s *storeImpl) Del(table, key string) (store.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Value{}, false, ErrClosed
	}
	k := encodeKey(table, key)

	mu := s.tableLock(table)
	mu.Lock()
	defer mu.Unlock()

	old, existed, loadErr := s.load("del", table, key, k)
	if store.CodeOf(loadErr) == store.RetCBackend {
		return store.Value{}, false, loadErr
	}
	if !existed {
		return store.Value{}, false, nil
	}
	if err := s.db.Delete(k, s.writeOpts); err != nil {
		return store.Value{}, false, store.ErrBackend(err, "del", table, key)
	}
	if loadErr != nil {
		return store.Value{}, false, loadErr
	}
	return old, true, nil
}

func (s *storeImpl) Contains(table, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, closer, err := s.db.Get(encodeKey(table, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, store.ErrBackend(err, "contains", table, key)
	}
	_ = closer.Close()
	return true, nil
}

func (s *storeImpl) GetAll(table string) ([]store.Kvpair, error) {
	it, err := s.GetIter(table)
	if err != nil {
		return nil, err
	}
	pairs, err := store.Collect(it)
	if err != nil {
		return nil, store.ErrBackend(err, "getall", table, "")
	}
	if pairs == nil {
		pairs = []store.Kvpair{}
	}
	return pairs, nil
}

func (s *storeImpl) GetIter(table string) (store.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	prefix := tablePrefix(table)
	pIt, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, store.ErrBackend(err, "iter", table, "")
	}
	return &iterator{
		store:     s,
		it:        pIt,
		table:     table,
		prefixLen: len(prefix),
	}, nil
}

func (s *storeImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "cannot close pebble store")
	}
	return nil
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

type iterator struct {
	store     *storeImpl
	it        *pebble.Iterator
	table     string
	prefixLen int
	started   bool
	done      bool
}

func (i *iterator) Next() (store.Kvpair, bool) {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	if i.done || i.store.closed {
		i.done = true
		return store.Kvpair{}, false
	}

	var valid bool
	if !i.started {
		i.started = true
		valid = i.it.First()
	} else {
		valid = i.it.Next()
	}
	if !valid {
		i.done = true
		return store.Kvpair{}, false
	}

	var v store.Value
	if err := v.UnmarshalBinary(i.it.Value()); err != nil {
		log.Warningf("skipping undecodable entry in table %q: %v", i.table, err)
		return store.Kvpair{}, true
	}
	return store.NewKvpair(decodeKey(i.prefixLen, i.it.Key()), v), true
}

func (i *iterator) Close() error {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	if i.it == nil {
		return nil
	}
	it := i.it
	i.it = nil
	i.done = true
	// pebble iterators must not be used once the database is closed
	if i.store.closed {
		return nil
	}
	return it.Close()
}
