// Package testing provides standardised tests and benchmarks for
// table store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - RunStoreTests: a conformance suite for the IStore contract
//   - RunStoreBenchmarks: parallel benchmarks of the common operations
//
// Every call of the factory must return a fresh, empty store.
//
// Example usage:
//
//	factory := func() (store.IStore, error) {
//		return mstore.New(), nil
//	}
//
//	storetesting.RunStoreTests(t, "MyStore", factory)
//	storetesting.RunStoreBenchmarks(b, "MyStore", factory)
package testing
