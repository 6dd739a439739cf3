package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testRequests creates one request per command variant
func testRequests() []*common.CommandRequest {
	return []*common.CommandRequest{
		// Request without data
		{},

		common.NewHgetRequest("users", "u1"),
		common.NewHgetallRequest("users"),
		common.NewHmgetRequest("users", "u1", "", "u3"),
		common.NewHsetRequest("users", "u1", store.String("alice")),
		{Data: common.Hset{Table: "users"}},
		common.NewHmsetRequest("mixed",
			store.NewKvpair("none", store.Value{}),
			store.NewKvpair("string", store.String("")),
			store.NewKvpair("binary", store.Binary([]byte{0x00, 0xff})),
			store.NewKvpair("int", store.Int(-7)),
			store.NewKvpair("float", store.Float(0.125)),
			store.NewKvpair("bool", store.Bool(false)),
		),
		common.NewHdelRequest("users", "u1"),
		common.NewHmdelRequest("users", "u1", "u2"),
		common.NewHexistRequest("users", "u1"),
		common.NewHmexistRequest("users", "u1", "u2"),
	}
}

// testResponses creates responses with different fields filled
func testResponses() []*common.CommandResponse {
	return []*common.CommandResponse{
		common.NewValueResponse(store.String("world")),
		common.NewValueResponse(store.Value{}),
		common.NewValuesResponse([]store.Value{{}, store.Int(3), {}, store.Bool(true)}),
		common.NewPairsResponse([]store.Kvpair{
			store.NewKvpair("u1", store.String("alice")),
			store.NewKvpair("u2", store.Binary([]byte("bob"))),
		}),
		common.NewPairsResponse(nil),
		common.NewErrorResponse(store.ErrNotFound("users", "u9")),
		common.NewErrorResponse(store.ErrInvalidCommand("Request has no data")),
	}
}

// TestRequestRoundTrip tests that requests can be serialized and deserialized correctly
func TestRequestRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, req := range testRequests() {
				// Serialize
				data, err := serializer.SerializeRequest(req)
				if err != nil {
					t.Errorf("Failed to serialize request %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.CommandRequest
				if err := serializer.DeserializeRequest(data, &result); err != nil {
					t.Errorf("Failed to deserialize request %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(*req, result) {
					t.Errorf("Request %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, *req, result)
				}
			}
		})
	}
}

// TestResponseRoundTrip tests that responses can be serialized and deserialized correctly
func TestResponseRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, resp := range testResponses() {
				data, err := serializer.SerializeResponse(resp)
				if err != nil {
					t.Errorf("Failed to serialize response %d: %v", i, err)
					continue
				}

				var result common.CommandResponse
				if err := serializer.DeserializeResponse(data, &result); err != nil {
					t.Errorf("Failed to deserialize response %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(*resp, result) {
					t.Errorf("Response %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v", i, *resp, result)
				}
			}
		})
	}
}

// TestGarbageInput tests that every serializer rejects payloads it can not decode
func TestGarbageInput(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			garbage := []byte{0xff, 0xff, 0xff}

			var req common.CommandRequest
			if err := serializer.DeserializeRequest(garbage, &req); err == nil {
				t.Errorf("Expected error when deserializing garbage request")
			}

			var resp common.CommandResponse
			if err := serializer.DeserializeResponse(garbage, &resp); err == nil {
				t.Errorf("Expected error when deserializing garbage response")
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	t.Run("Empty payload is a request without data", func(t *testing.T) {
		req := common.CommandRequest{Data: common.Hget{Table: "x"}}
		if err := serializer.DeserializeRequest(nil, &req); err != nil {
			t.Fatalf("Failed to deserialize: %v", err)
		}
		if req.Data != nil {
			t.Errorf("Expected nil data, got %+v", req.Data)
		}
	})

	t.Run("Last oneof field wins", func(t *testing.T) {
		first, _ := serializer.SerializeRequest(common.NewHgetRequest("a", "k"))
		second, _ := serializer.SerializeRequest(common.NewHdelRequest("b", "k"))

		var req common.CommandRequest
		if err := serializer.DeserializeRequest(append(first, second...), &req); err != nil {
			t.Fatalf("Failed to deserialize: %v", err)
		}
		if _, ok := req.Data.(common.Hdel); !ok {
			t.Errorf("Expected hdel, got %T", req.Data)
		}
	})

	t.Run("Unknown fields are skipped", func(t *testing.T) {
		data := protowire.AppendTag(nil, 42, protowire.VarintType)
		data = protowire.AppendVarint(data, 1)
		req, _ := serializer.SerializeRequest(common.NewHgetallRequest("users"))
		data = append(data, req...)

		var result common.CommandRequest
		if err := serializer.DeserializeRequest(data, &result); err != nil {
			t.Fatalf("Failed to deserialize: %v", err)
		}
		if !reflect.DeepEqual(common.Hgetall{Table: "users"}, result.Data) {
			t.Errorf("Unexpected data %+v", result.Data)
		}
	})

	t.Run("Command with wrong wire type", func(t *testing.T) {
		data := protowire.AppendTag(nil, 1, protowire.VarintType)
		data = protowire.AppendVarint(data, 1)

		var req common.CommandRequest
		if err := serializer.DeserializeRequest(data, &req); err == nil {
			t.Errorf("Expected error for varint encoded command")
		}
	})
}

func TestNew(t *testing.T) {
	for _, name := range []string{"binary", "json", "gob"} {
		s, err := New(name)
		if err != nil {
			t.Fatalf("Failed to create serializer %s: %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Expected name %s, got %s", name, s.Name())
		}
	}
	if _, err := New("xml"); err == nil {
		t.Errorf("Expected error for unknown serializer")
	}
}
