// Package serializer turns the skv command model (common.CommandRequest and
// common.CommandResponse) into frame payloads and back. It defines a common interface
// and three implementations that are selected by name in the client and server config.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl ("binary"): The protobuf wire format of the CommandRequest
//     and CommandResponse messages, written by hand with protowire. A request is a
//     oneof over the nine hash commands (field numbers 1-9), each a nested message with
//     the table as field 1 and the key(s) or pair(s) as field 2. Unknown fields are
//     skipped and an empty payload is a request without a command. This is the
//     default and the only format other protobuf implementations can speak.
//
//   - jsonSerializerImpl ("json"): A JSON object with exactly one command field,
//     e.g. {"hget":{"table":"t","key":"k"}}. Useful for debugging.
//
//   - gobSerializerImpl ("gob"): Go's gob encoding of the same shape. Every payload is
//     a self-contained gob stream and therefore carries its type information.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	s, err := serializer.New("binary")
//	data, err := s.SerializeRequest(common.NewHgetRequest("users", "u1"))
//	// ... send data ...
//	var resp common.CommandResponse
//	err = s.DeserializeResponse(received, &resp)
package serializer
