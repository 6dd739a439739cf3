package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/ValentinKolb/skv/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding.
// Every payload is a self-contained gob stream (type information included).
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Name() string {
	return "gob"
}

func (g gobSerializerImpl) SerializeRequest(req *common.CommandRequest) ([]byte, error) {
	w, err := toWireRequest(req)
	if err != nil {
		return nil, err
	}
	return gobEncode(&w)
}

func (g gobSerializerImpl) DeserializeRequest(b []byte, req *common.CommandRequest) error {
	var w wireRequest
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return err
	}
	fromWireRequest(&w, req)
	return nil
}

func (g gobSerializerImpl) SerializeResponse(resp *common.CommandResponse) ([]byte, error) {
	w := toWireResponse(resp)
	return gobEncode(&w)
}

func (g gobSerializerImpl) DeserializeResponse(b []byte, resp *common.CommandResponse) error {
	var w wireResponse
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return err
	}
	fromWireResponse(&w, resp)
	return nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
