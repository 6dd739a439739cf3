package mstore

import (
	"iter"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
)

type table = xsync.MapOf[string, store.Value]

type storeImpl struct {
	tables *xsync.MapOf[string, *table]
}

// New creates a new in-memory store.
func New() store.IStore {
	return &storeImpl{
		tables: xsync.NewMapOf[string, *table](),
	}
}

// Factory returns a store.Factory producing fresh in-memory stores.
func Factory() store.Factory {
	return func() (store.IStore, error) {
		return New(), nil
	}
}

// getOrCreateTable returns the table with the given name. If the table does not exist yet, it is created.
//
// Thread-safety: concurrent callers for the same name always receive the same table.
func (s *storeImpl) getOrCreateTable(name string) *table {
	t, _ := s.tables.LoadOrCompute(name, func() *table {
		return xsync.NewMapOf[string, store.Value]()
	})
	return t
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(table, key string) (store.Value, bool, error) {
	v, ok := s.getOrCreateTable(table).Load(key)
	return v, ok, nil
}

func (s *storeImpl) Set(table, key string, value store.Value) (store.Value, bool, error) {
	old, existed := s.getOrCreateTable(table).LoadAndStore(key, value.Clone())
	return old, existed, nil
}

func (s *storeImpl) Del(table, key string) (store.Value, bool, error) {
	old, existed := s.getOrCreateTable(table).LoadAndDelete(key)
	return old, existed, nil
}

func (s *storeImpl) Contains(table, key string) (bool, error) {
	_, ok := s.getOrCreateTable(table).Load(key)
	return ok, nil
}

func (s *storeImpl) GetAll(table string) ([]store.Kvpair, error) {
	t := s.getOrCreateTable(table)
	pairs := make([]store.Kvpair, 0, t.Size())
	t.Range(func(key string, value store.Value) bool {
		pairs = append(pairs, store.NewKvpair(key, value))
		return true
	})
	return pairs, nil
}

func (s *storeImpl) GetIter(table string) (store.Iterator, error) {
	t := s.getOrCreateTable(table)
	next, stop := iter.Pull2(iter.Seq2[string, store.Value](t.Range))
	return &iterator{next: next, stop: stop}, nil
}

func (s *storeImpl) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Iterator
// --------------------------------------------------------------------------

type iterator struct {
	next func() (string, store.Value, bool)
	stop func()
}

func (it *iterator) Next() (store.Kvpair, bool) {
	key, value, ok := it.next()
	if !ok {
		return store.Kvpair{}, false
	}
	return store.NewKvpair(key, value), true
}

func (it *iterator) Close() error {
	it.stop()
	return nil
}
