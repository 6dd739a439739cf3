package serializer

import (
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/cockroachdb/errors"
)

func errInvalidSerializer(name string) error {
	return errors.Newf("invalid serializer %q (expected one of binary, json, gob)", name)
}

// --------------------------------------------------------------------------
// Wire shape used by the reflection based serializers (json, gob)
// --------------------------------------------------------------------------

// A request is an object with exactly one populated command field.
type wireRequest struct {
	Hget    *wireKey   `json:"hget,omitempty"`
	Hgetall *wireTable `json:"hgetall,omitempty"`
	Hmget   *wireKeys  `json:"hmget,omitempty"`
	Hset    *wirePair  `json:"hset,omitempty"`
	Hmset   *wirePairs `json:"hmset,omitempty"`
	Hdel    *wireKey   `json:"hdel,omitempty"`
	Hmdel   *wireKeys  `json:"hmdel,omitempty"`
	Hexist  *wireKey   `json:"hexist,omitempty"`
	Hmexist *wireKeys  `json:"hmexist,omitempty"`
}

type wireTable struct {
	Table string `json:"table"`
}

type wireKey struct {
	Table string `json:"table"`
	Key   string `json:"key"`
}

type wireKeys struct {
	Table string   `json:"table"`
	Keys  []string `json:"keys,omitempty"`
}

type wirePair struct {
	Table string        `json:"table"`
	Pair  *store.Kvpair `json:"pair,omitempty"`
}

type wirePairs struct {
	Table string         `json:"table"`
	Pairs []store.Kvpair `json:"pairs,omitempty"`
}

type wireResponse struct {
	Status  uint32         `json:"status"`
	Message string         `json:"message,omitempty"`
	Values  []store.Value  `json:"values,omitempty"`
	Pairs   []store.Kvpair `json:"pairs,omitempty"`
}

// toWireRequest converts a request into its wire shape
func toWireRequest(req *common.CommandRequest) (wireRequest, error) {
	var w wireRequest
	switch d := req.Data.(type) {
	case nil:
	case common.Hget:
		w.Hget = &wireKey{Table: d.Table, Key: d.Key}
	case common.Hgetall:
		w.Hgetall = &wireTable{Table: d.Table}
	case common.Hmget:
		w.Hmget = &wireKeys{Table: d.Table, Keys: d.Keys}
	case common.Hset:
		w.Hset = &wirePair{Table: d.Table, Pair: d.Pair}
	case common.Hmset:
		w.Hmset = &wirePairs{Table: d.Table, Pairs: d.Pairs}
	case common.Hdel:
		w.Hdel = &wireKey{Table: d.Table, Key: d.Key}
	case common.Hmdel:
		w.Hmdel = &wireKeys{Table: d.Table, Keys: d.Keys}
	case common.Hexist:
		w.Hexist = &wireKey{Table: d.Table, Key: d.Key}
	case common.Hmexist:
		w.Hmexist = &wireKeys{Table: d.Table, Keys: d.Keys}
	default:
		return w, errors.Newf("unsupported request data %T", d)
	}
	return w, nil
}

// fromWireRequest converts the wire shape into a request.
// If several command fields are set the last one in field order wins.
func fromWireRequest(w *wireRequest, req *common.CommandRequest) {
	req.Data = nil
	if w.Hget != nil {
		req.Data = common.Hget{Table: w.Hget.Table, Key: w.Hget.Key}
	}
	if w.Hgetall != nil {
		req.Data = common.Hgetall{Table: w.Hgetall.Table}
	}
	if w.Hmget != nil {
		req.Data = common.Hmget{Table: w.Hmget.Table, Keys: w.Hmget.Keys}
	}
	if w.Hset != nil {
		req.Data = common.Hset{Table: w.Hset.Table, Pair: w.Hset.Pair}
	}
	if w.Hmset != nil {
		req.Data = common.Hmset{Table: w.Hmset.Table, Pairs: w.Hmset.Pairs}
	}
	if w.Hdel != nil {
		req.Data = common.Hdel{Table: w.Hdel.Table, Key: w.Hdel.Key}
	}
	if w.Hmdel != nil {
		req.Data = common.Hmdel{Table: w.Hmdel.Table, Keys: w.Hmdel.Keys}
	}
	if w.Hexist != nil {
		req.Data = common.Hexist{Table: w.Hexist.Table, Key: w.Hexist.Key}
	}
	if w.Hmexist != nil {
		req.Data = common.Hmexist{Table: w.Hmexist.Table, Keys: w.Hmexist.Keys}
	}
}

func toWireResponse(resp *common.CommandResponse) wireResponse {
	return wireResponse{
		Status:  resp.Status,
		Message: resp.Message,
		Values:  resp.Values,
		Pairs:   resp.Pairs,
	}
}

func fromWireResponse(w *wireResponse, resp *common.CommandResponse) {
	*resp = common.CommandResponse{
		Status:  w.Status,
		Message: w.Message,
		Values:  w.Values,
		Pairs:   w.Pairs,
	}
	if len(resp.Values) == 0 {
		resp.Values = nil
	}
	if len(resp.Pairs) == 0 {
		resp.Pairs = nil
	}
}
