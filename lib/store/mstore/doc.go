// Package mstore implements an in-memory, single-node table store based on the
// store.IStore interface. Data is stored entirely in memory and is not persisted
// between process restarts.
//
// Key Features:
//   - One concurrent hash map per table, created lazily on first access
//   - Lock-free reads and per-key atomic writes
//   - Lazy iteration that does not copy the table
//
// Implementation Details:
//
//   - Tables: The store holds a concurrent map from table name to table. A table is
//     created the first time it is accessed, this includes reads. An empty table
//     therefore exists after the first Get against it, which is not observable
//     through the IStore interface.
//
//   - Values: Values are held directly. Set stores a clone of the value, so callers
//     may reuse binary payload buffers after the call returns.
//
//   - Iteration: GetIter pulls pairs from the live table. Writes that happen while an
//     iterator is open may or may not be observed, each key is produced at most once.
//
// Usage Example:
//
//	s := mstore.New()
//	defer s.Close()
//
//	old, existed, err := s.Set("users", "u1", store.String("alice"))
package mstore
