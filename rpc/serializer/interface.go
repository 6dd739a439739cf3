package serializer

import "github.com/ValentinKolb/skv/rpc/common"

// IRPCSerializer is the interface for all message serializers.
// A serializer turns CommandRequests and CommandResponses into frame payloads and back.
type IRPCSerializer interface {
	// Name returns the configuration name of the serializer (e.g. "binary")
	Name() string
	// SerializeRequest serializes a request into a byte array
	SerializeRequest(req *common.CommandRequest) ([]byte, error)
	// DeserializeRequest deserializes a byte array into the given request.
	// A payload without a command yields a request with nil Data, not an error.
	DeserializeRequest(b []byte, req *common.CommandRequest) error
	// SerializeResponse serializes a response into a byte array
	SerializeResponse(resp *common.CommandResponse) ([]byte, error)
	// DeserializeResponse deserializes a byte array into the given response
	DeserializeResponse(b []byte, resp *common.CommandResponse) error
}

// New returns the serializer with the given name (binary, json or gob).
func New(name string) (IRPCSerializer, error) {
	switch name {
	case "binary":
		return NewBinarySerializer(), nil
	case "json":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	default:
		return nil, errInvalidSerializer(name)
	}
}
