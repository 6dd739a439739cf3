// Package pstore implements the store.IStore interface on top of pebble, an ordered
// LSM key-value store. Unlike mstore, data survives process restarts.
//
// Every table is a key-prefix partition of a single pebble database. A stored key is
// the table name prefixed with its uvarint encoded length followed by the row key:
//
//	uvarint(len(table)) | table | key
//
// The length prefix keeps tables whose names share a prefix apart ("a" vs "ab").
// Values are stored in the byte encoding of store.Value.
//
// Reads are lock-free. Set and Del hold a per-table mutex across reading the previous
// value and writing the new one, so the returned previous value is always the one that
// was replaced. Entries that fail to decode make Get, Set and Del return a conversion
// error, while GetAll and GetIter degrade such entries to an empty Kvpair and log a
// warning.
package pstore
