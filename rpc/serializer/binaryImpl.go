package serializer

import (
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewBinarySerializer creates a new serializer using the protobuf wire format.
// The messages are encoded by hand with protowire, no generated code is involved.
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using the protobuf wire format
type binarySerializerImpl struct {
}

// Field numbers of the CommandRequest oneof
const (
	fieldHget    protowire.Number = 1
	fieldHgetall protowire.Number = 2
	fieldHmget   protowire.Number = 3
	fieldHset    protowire.Number = 4
	fieldHmset   protowire.Number = 5
	fieldHdel    protowire.Number = 6
	fieldHmdel   protowire.Number = 7
	fieldHexist  protowire.Number = 8
	fieldHmexist protowire.Number = 9
)

// Field numbers inside the command messages
const (
	fieldTable protowire.Number = 1
	fieldKey   protowire.Number = 2 // key, keys, pair and pairs all use field 2
)

// Field numbers of the CommandResponse
const (
	fieldStatus  protowire.Number = 1
	fieldMessage protowire.Number = 2
	fieldValues  protowire.Number = 3
	fieldPairs   protowire.Number = 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string {
	return "binary"
}

func (b binarySerializerImpl) SerializeRequest(req *common.CommandRequest) ([]byte, error) {
	var (
		num  protowire.Number
		body []byte
		err  error
	)

	switch d := req.Data.(type) {
	case nil:
		return []byte{}, nil
	case common.Hget:
		num, body = fieldHget, appendTableKey(nil, d.Table, d.Key)
	case common.Hgetall:
		num, body = fieldHgetall, appendString(nil, fieldTable, d.Table)
	case common.Hmget:
		num, body = fieldHmget, appendTableKeys(nil, d.Table, d.Keys)
	case common.Hset:
		num = fieldHset
		body = appendString(nil, fieldTable, d.Table)
		if d.Pair != nil {
			body, err = appendPair(body, fieldKey, *d.Pair)
		}
	case common.Hmset:
		num = fieldHmset
		body = appendString(nil, fieldTable, d.Table)
		for _, p := range d.Pairs {
			if body, err = appendPair(body, fieldKey, p); err != nil {
				break
			}
		}
	case common.Hdel:
		num, body = fieldHdel, appendTableKey(nil, d.Table, d.Key)
	case common.Hmdel:
		num, body = fieldHmdel, appendTableKeys(nil, d.Table, d.Keys)
	case common.Hexist:
		num, body = fieldHexist, appendTableKey(nil, d.Table, d.Key)
	case common.Hmexist:
		num, body = fieldHmexist, appendTableKeys(nil, d.Table, d.Keys)
	default:
		return nil, errors.Newf("unsupported request data %T", d)
	}
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+protowire.SizeTag(num)+protowire.SizeVarint(uint64(len(body))))
	out = protowire.AppendTag(out, num, protowire.BytesType)
	out = protowire.AppendBytes(out, body)
	return out, nil
}

func (b binarySerializerImpl) DeserializeRequest(data []byte, req *common.CommandRequest) error {
	req.Data = nil
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "cannot decode request tag")
		}
		data = data[n:]

		if num < fieldHget || num > fieldHmexist {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "cannot skip unknown request field")
			}
			data = data[n:]
			continue
		}
		if typ != protowire.BytesType {
			return errors.Newf("invalid wire type %d for command field %d", typ, num)
		}

		body, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "cannot decode command")
		}
		data = data[n:]

		cmd, err := decodeCommand(num, body)
		if err != nil {
			return err
		}
		req.Data = cmd
	}
	return nil
}

func (b binarySerializerImpl) SerializeResponse(resp *common.CommandResponse) ([]byte, error) {
	out := make([]byte, 0, 16+len(resp.Message))
	if resp.Status != 0 {
		out = protowire.AppendTag(out, fieldStatus, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(resp.Status))
	}
	out = appendString(out, fieldMessage, resp.Message)

	var err error
	for _, v := range resp.Values {
		enc, err := v.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = protowire.AppendTag(out, fieldValues, protowire.BytesType)
		out = protowire.AppendBytes(out, enc)
	}
	for _, p := range resp.Pairs {
		if out, err = appendPair(out, fieldPairs, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b binarySerializerImpl) DeserializeResponse(data []byte, resp *common.CommandResponse) error {
	*resp = common.CommandResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "cannot decode response tag")
		}
		data = data[n:]

		switch {
		case num == fieldStatus && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode status")
			}
			resp.Status, n = uint32(v), m
		case num == fieldMessage && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode message")
			}
			resp.Message, n = s, m
		case num == fieldValues && typ == protowire.BytesType:
			raw, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode value")
			}
			var v store.Value
			if err := v.UnmarshalBinary(raw); err != nil {
				return err
			}
			resp.Values, n = append(resp.Values, v), m
		case num == fieldPairs && typ == protowire.BytesType:
			raw, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode pair")
			}
			var p store.Kvpair
			if err := p.UnmarshalBinary(raw); err != nil {
				return err
			}
			resp.Pairs, n = append(resp.Pairs, p), m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "cannot skip unknown response field")
			}
		}
		data = data[n:]
	}
	return nil
}

// --------------------------------------------------------------------------
// Encoding Helpers
// --------------------------------------------------------------------------

// appendString appends a string field, empty strings are omitted like proto3 does
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTableKey(b []byte, table, key string) []byte {
	b = appendString(b, fieldTable, table)
	return appendString(b, fieldKey, key)
}

// appendTableKeys appends the table and every key. Repeated elements are always
// written, even when empty, so positions are preserved.
func appendTableKeys(b []byte, table string, keys []string) []byte {
	b = appendString(b, fieldTable, table)
	for _, k := range keys {
		b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}
	return b
}

func appendPair(b []byte, num protowire.Number, p store.Kvpair) ([]byte, error) {
	enc, err := p.MarshalBinary()
	if err != nil {
		return b, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, enc), nil
}

// --------------------------------------------------------------------------
// Decoding Helpers
// --------------------------------------------------------------------------

// commandFields holds the union of all fields a command message can carry
type commandFields struct {
	table string
	keys  []string
	pairs []store.Kvpair
}

// decodeCommand decodes the body of a command message with the given oneof field number
func decodeCommand(num protowire.Number, body []byte) (common.RequestData, error) {
	var f commandFields
	pairField := num == fieldHset || num == fieldHmset

	for len(body) > 0 {
		fnum, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "cannot decode command field tag")
		}
		body = body[n:]

		switch {
		case fnum == fieldTable && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(body)
			if m < 0 {
				return nil, errors.Wrap(protowire.ParseError(m), "cannot decode table")
			}
			f.table, n = s, m
		case fnum == fieldKey && typ == protowire.BytesType && pairField:
			raw, m := protowire.ConsumeBytes(body)
			if m < 0 {
				return nil, errors.Wrap(protowire.ParseError(m), "cannot decode pair")
			}
			var p store.Kvpair
			if err := p.UnmarshalBinary(raw); err != nil {
				return nil, err
			}
			f.pairs, n = append(f.pairs, p), m
		case fnum == fieldKey && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(body)
			if m < 0 {
				return nil, errors.Wrap(protowire.ParseError(m), "cannot decode key")
			}
			f.keys, n = append(f.keys, s), m
		default:
			n = protowire.ConsumeFieldValue(fnum, typ, body)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "cannot skip unknown command field")
			}
		}
		body = body[n:]
	}

	// singular fields: the last occurrence wins
	lastKey := ""
	if len(f.keys) > 0 {
		lastKey = f.keys[len(f.keys)-1]
	}

	switch num {
	case fieldHget:
		return common.Hget{Table: f.table, Key: lastKey}, nil
	case fieldHgetall:
		return common.Hgetall{Table: f.table}, nil
	case fieldHmget:
		return common.Hmget{Table: f.table, Keys: f.keys}, nil
	case fieldHset:
		var pair *store.Kvpair
		if len(f.pairs) > 0 {
			p := f.pairs[len(f.pairs)-1]
			pair = &p
		}
		return common.Hset{Table: f.table, Pair: pair}, nil
	case fieldHmset:
		return common.Hmset{Table: f.table, Pairs: f.pairs}, nil
	case fieldHdel:
		return common.Hdel{Table: f.table, Key: lastKey}, nil
	case fieldHmdel:
		return common.Hmdel{Table: f.table, Keys: f.keys}, nil
	case fieldHexist:
		return common.Hexist{Table: f.table, Key: lastKey}, nil
	case fieldHmexist:
		return common.Hmexist{Table: f.table, Keys: f.keys}, nil
	default:
		return nil, errors.Newf("unknown command field %d", num)
	}
}
