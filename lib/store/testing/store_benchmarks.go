package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for a table store implementation.
func RunStoreBenchmarks(b *testing.B, name string, factory store.Factory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Set", func(b *testing.B) {
			benchmarkSet(b, newStore(b, factory))
		})

		b.Run("SetExisting", func(b *testing.B) {
			benchmarkSetExisting(b, newStore(b, factory))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, newStore(b, factory))
		})

		b.Run("Contains(not)", func(b *testing.B) {
			benchmarkContainsNot(b, newStore(b, factory))
		})

		b.Run("GetAll", func(b *testing.B) {
			benchmarkGetAll(b, newStore(b, factory))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, newStore(b, factory))
		})
	})
}

// fill writes n keys into table.
func fill(b *testing.B, s store.IStore, table string, n int) {
	for i := 0; i < n; i++ {
		if _, _, err := s.Set(table, fmt.Sprintf("key-%d", i), store.String(fmt.Sprintf("value-%d", i))); err != nil {
			b.Fatal(err)
		}
	}
}

// Parallel benchmarking for Set operation with new keys
func benchmarkSet(b *testing.B, s store.IStore) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		id := rand.Int63()
		counter := 0
		for pb.Next() {
			_, _, _ = s.Set("bench", fmt.Sprintf("key-%d-%d", id, counter), store.Int(int64(counter)))
			counter++
		}
	})
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, s store.IStore) {
	const numKeys = 1000
	fill(b, s, "bench", numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _, _ = s.Set("bench", fmt.Sprintf("key-%d", counter%numKeys), store.Int(int64(counter)))
			counter++
		}
	})
}

// Parallel benchmarking for Get operation
func benchmarkGet(b *testing.B, s store.IStore) {
	const numKeys = 10000
	fill(b, s, "bench", numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _, _ = s.Get("bench", fmt.Sprintf("key-%d", r.Intn(numKeys)))
		}
	})
}

func benchmarkContainsNot(b *testing.B, s store.IStore) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = s.Contains("bench", fmt.Sprintf("missing-%d", counter))
			counter++
		}
	})
}

func benchmarkGetAll(b *testing.B, s store.IStore) {
	fill(b, s, "bench", 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.GetAll("bench"); err != nil {
			b.Fatal(err)
		}
	}
}

// Realistic mix of 80% reads, 15% writes and 5% deletes
func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	const numKeys = 1000
	fill(b, s, "bench", numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("key-%d", r.Intn(numKeys))
			switch op := r.Intn(100); {
			case op < 80:
				_, _, _ = s.Get("bench", key)
			case op < 95:
				_, _, _ = s.Set("bench", key, store.Int(int64(op)))
			default:
				_, _, _ = s.Del("bench", key)
			}
		}
	})
}
