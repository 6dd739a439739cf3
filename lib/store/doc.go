// Package store provides the storage contract of skv: a set of named tables, each an
// independently keyed mapping from string keys to typed values, together with the data
// model shared by every backend and the wire layer.
//
// The package focuses on:
//   - A unified interface (IStore) for table operations across different backends
//   - The Value / Kvpair data model with a total order and a compact byte encoding
//   - A structured error taxonomy that the RPC layer maps onto status codes
//
// Key Components:
//
//   - IStore Interface: The core abstraction. All operations are per-table, per-key
//     atomic with respect to concurrent callers. Absence of a key is never an error;
//     it is reported through the boolean return values. No cross-key or cross-table
//     atomicity is provided.
//
//   - Iterator: A single-pass, finite, pull-based sequence of Kvpairs returned by
//     GetIter. It allows large tables to be streamed without materializing them.
//     Iterators cannot be restarted and must be closed.
//
//   - Value: A tagged union over string, int64, float64, bool and raw bytes, plus an
//     empty default. Values are ordered (kind first, then payload) and encode to the
//     protobuf wire format of the Value message, which is the byte form used by
//     backends that store values as opaque bytes.
//
//   - Error System: Typed error codes (not found, invalid command, conversion, backend,
//     internal) carried by *Error. CodeOf extracts the code through wrapping.
//
//   - Factory: A function type that abstracts the creation of an IStore, providing
//     dependency injection of the storage backend.
//
// Implementations:
//
//	The package includes two implementations of the IStore interface:
//
//	- Memory Store (mstore): one concurrent map per table, created lazily on first
//	  access. Values are held directly. GetAll order is unspecified.
//	  Available in the "github.com/ValentinKolb/skv/lib/store/mstore" package.
//
//	- Pebble Store (pstore): an adapter over the pebble ordered key-value store. Each
//	  table is a key-prefix partition, values are stored in their byte encoding and
//	  scans are ordered by key. Entries that fail to decode during a scan degrade to
//	  an empty Kvpair instead of aborting the scan.
//	  Available in the "github.com/ValentinKolb/skv/lib/store/pstore" package.
//
// The testing package (github.com/ValentinKolb/skv/lib/store/testing) provides a
// conformance suite and benchmarks that every implementation runs.
package store
