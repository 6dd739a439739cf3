package serializer

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
)

// benchmarkRequests returns a set of requests for targeted benchmarking
func benchmarkRequests() map[string]*common.CommandRequest {
	keys := make([]string, 100)
	pairs := make([]store.Kvpair, 100)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		pairs[i] = store.NewKvpair(keys[i], store.String(fmt.Sprintf("value-%d", i)))
	}

	return map[string]*common.CommandRequest{
		"Hget":         common.NewHgetRequest("table", "key"),
		"HsetSmall":    common.NewHsetRequest("table", "key", store.String("v")),
		"HsetLarge":    common.NewHsetRequest("table", "key", store.Binary(make([]byte, 16*1024))),
		"Hmget100":     common.NewHmgetRequest("table", keys...),
		"Hmset100":     common.NewHmsetRequest("table", pairs...),
		"HexistSingle": common.NewHexistRequest("table", "key"),
	}
}

// BenchmarkSerializeRequest benchmarks request serialization for every serializer
func BenchmarkSerializeRequest(b *testing.B) {
	for name, factory := range testSerializers {
		serializer := factory()
		for reqName, req := range benchmarkRequests() {
			b.Run(fmt.Sprintf("%s/%s", name, reqName), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := serializer.SerializeRequest(req); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkRoundTripRequest benchmarks serialization plus deserialization
func BenchmarkRoundTripRequest(b *testing.B) {
	for name, factory := range testSerializers {
		serializer := factory()
		for reqName, req := range benchmarkRequests() {
			b.Run(fmt.Sprintf("%s/%s", name, reqName), func(b *testing.B) {
				b.ReportAllocs()
				var data []byte
				var err error
				for i := 0; i < b.N; i++ {
					if data, err = serializer.SerializeRequest(req); err != nil {
						b.Fatal(err)
					}
					var result common.CommandRequest
					if err = serializer.DeserializeRequest(data, &result); err != nil {
						b.Fatal(err)
					}
				}
				b.ReportMetric(float64(len(data)), "bytes/msg")
			})
		}
	}
}
