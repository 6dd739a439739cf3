package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/skv/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string {
	return "json"
}

func (j jsonSerializerImpl) SerializeRequest(req *common.CommandRequest) ([]byte, error) {
	w, err := toWireRequest(req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (j jsonSerializerImpl) DeserializeRequest(b []byte, req *common.CommandRequest) error {
	var w wireRequest
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	fromWireRequest(&w, req)
	return nil
}

func (j jsonSerializerImpl) SerializeResponse(resp *common.CommandResponse) ([]byte, error) {
	return json.Marshal(toWireResponse(resp))
}

func (j jsonSerializerImpl) DeserializeResponse(b []byte, resp *common.CommandResponse) error {
	var w wireResponse
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	fromWireResponse(&w, resp)
	return nil
}
