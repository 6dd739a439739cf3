package store

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Factory is a function type that creates a new store.
// This is used to abstract the creation of the backend from its users.
type Factory func() (IStore, error)

// IStore is the generic interface for interacting with a table based key–value store.
// Table and key are always non-empty strings. A missing key is not an error: read
// operations report it through their boolean return value.
type IStore interface {
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(table, key string) (value Value, found bool, err error)
	// Set inserts or overwrites a key–value pair. It returns the previous value and whether one existed.
	Set(table, key string, value Value) (old Value, existed bool, err error)
	// Del removes a key–value pair. It returns the removed value and whether it existed.
	Del(table, key string) (old Value, existed bool, err error)
	// Contains returns whether a key exists in the table.
	Contains(table, key string) (found bool, err error)
	// GetAll materializes all entries of a table. The order is backend-defined and must not be relied upon.
	GetAll(table string) (pairs []Kvpair, err error)
	// GetIter returns a lazy iterator over all entries of a table.
	// The iterator is single-pass and must be closed by the caller.
	GetIter(table string) (it Iterator, err error)
	// Close releases all resources held by the store.
	Close() (err error)
}

// Iterator is a finite, pull-based sequence of Kvpairs. It can not be restarted.
//
// Thread-safety: An Iterator must only be used by one goroutine at a time.
type Iterator interface {
	// Next returns the next pair. The boolean is false once the sequence is exhausted,
	// every following call returns false as well.
	Next() (pair Kvpair, ok bool)
	// Close releases the resources of the iterator. It is safe to call Close more than once.
	Close() (err error)
}

// Collect drains an iterator into a slice and closes it.
func Collect(it Iterator) ([]Kvpair, error) {
	var pairs []Kvpair
	for {
		pair, ok := it.Next()
		if !ok {
			break
		}
		pairs = append(pairs, pair)
	}
	return pairs, it.Close()
}
