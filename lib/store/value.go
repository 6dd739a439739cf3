package store

import (
	"bytes"
	"cmp"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// --------------------------------------------------------------------------
// Value Kind
// --------------------------------------------------------------------------

// Kind identifies which payload a Value carries.
// The numeric order is the order used by Value.Compare.
type Kind uint8

const (
	KindNone    Kind = iota // The empty default value
	KindString              // UTF-8 string
	KindBinary              // Raw byte blob
	KindInteger             // 64-bit signed integer
	KindFloat               // 64-bit float
	KindBool                // Boolean
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// protobuf field numbers of the Value message
const (
	fieldString  protowire.Number = 1
	fieldBinary  protowire.Number = 2
	fieldInteger protowire.Number = 3
	fieldFloat   protowire.Number = 4
	fieldBool    protowire.Number = 5
)

// --------------------------------------------------------------------------
// Value Structure
// --------------------------------------------------------------------------

// Value is a tagged union over the primitive payload kinds a table can hold.
// The zero Value is the empty default value (KindNone). It is distinct from the
// absence of a key, which is never represented by a Value.
type Value struct {
	kind Kind
	str  string
	bin  []byte
	i    int64
	f    float64
	b    bool
}

// String creates a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Binary creates a binary Value. The slice is not copied.
func Binary(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{kind: KindBinary, bin: b}
}

// Int creates an integer Value.
func Int(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// Float creates a float Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Bool creates a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the kind of payload the value carries.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is the empty default value.
func (v Value) IsNone() bool { return v.kind == KindNone }

// AsString returns the string payload, ok is false for any other kind.
func (v Value) AsString() (s string, ok bool) { return v.str, v.kind == KindString }

// AsBinary returns the binary payload, ok is false for any other kind.
func (v Value) AsBinary() (b []byte, ok bool) { return v.bin, v.kind == KindBinary }

// AsInt returns the integer payload, ok is false for any other kind.
func (v Value) AsInt() (i int64, ok bool) { return v.i, v.kind == KindInteger }

// AsFloat returns the float payload, ok is false for any other kind.
func (v Value) AsFloat() (f float64, ok bool) { return v.f, v.kind == KindFloat }

// AsBool returns the boolean payload, ok is false for any other kind.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == KindBool }

// Clone returns a copy of v that shares no memory with it.
func (v Value) Clone() Value {
	if v.kind == KindBinary {
		return Binary(bytes.Clone(v.bin))
	}
	return v
}

// --------------------------------------------------------------------------
// Ordering and Equality
// --------------------------------------------------------------------------

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to or after o.
// Values are ordered by kind first and by payload second. Floats follow cmp.Compare,
// so NaN sorts before every other float and equals itself.
func (v Value) Compare(o Value) int {
	if c := cmp.Compare(v.kind, o.kind); c != 0 {
		return c
	}
	switch v.kind {
	case KindString:
		return strings.Compare(v.str, o.str)
	case KindBinary:
		return bytes.Compare(v.bin, o.bin)
	case KindInteger:
		return cmp.Compare(v.i, o.i)
	case KindFloat:
		return cmp.Compare(v.f, o.f)
	case KindBool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}

// Equal reports whether v and o carry the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v.Compare(o) == 0
}

// String returns a human-readable form of the value.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindBinary:
		return "0x" + strings.ToUpper(hex.EncodeToString(v.bin))
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<none>"
	}
}

// --------------------------------------------------------------------------
// Binary Encoding (protobuf wire format of the Value message)
// --------------------------------------------------------------------------

// AppendBinary appends the wire encoding of v to b.
// The empty default value encodes to zero bytes.
func (v Value) AppendBinary(b []byte) ([]byte, error) {
	switch v.kind {
	case KindString:
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		b = protowire.AppendString(b, v.str)
	case KindBinary:
		b = protowire.AppendTag(b, fieldBinary, protowire.BytesType)
		b = protowire.AppendBytes(b, v.bin)
	case KindInteger:
		b = protowire.AppendTag(b, fieldInteger, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v.i))
	case KindFloat:
		b = protowire.AppendTag(b, fieldFloat, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.f))
	case KindBool:
		b = protowire.AppendTag(b, fieldBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v.b))
	case KindNone:
	default:
		return b, errors.Newf("cannot encode value of unknown kind %d", v.kind)
	}
	return b, nil
}

// MarshalBinary implements encoding.BinaryMarshaler (also used by gob).
func (v Value) MarshalBinary() ([]byte, error) {
	return v.AppendBinary(nil)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// Unknown fields are skipped, if a oneof field occurs more than once the last one wins.
// The decoded value never references data.
func (v *Value) UnmarshalBinary(data []byte) error {
	*v = Value{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "cannot decode value tag")
		}
		data = data[n:]

		switch {
		case num == fieldString && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode string value")
			}
			*v, n = String(s), m
		case num == fieldBinary && typ == protowire.BytesType:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode binary value")
			}
			*v, n = Binary(bytes.Clone(b)), m
		case num == fieldInteger && typ == protowire.VarintType:
			i, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode integer value")
			}
			*v, n = Int(int64(i)), m
		case num == fieldFloat && typ == protowire.Fixed64Type:
			f, m := protowire.ConsumeFixed64(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode float value")
			}
			*v, n = Float(math.Float64frombits(f)), m
		case num == fieldBool && typ == protowire.VarintType:
			b, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode bool value")
			}
			*v, n = Bool(protowire.DecodeBool(b)), m
		case num >= fieldString && num <= fieldBool:
			return errors.Newf("invalid wire type %d for value field %d", typ, num)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "cannot skip unknown value field")
			}
		}
		data = data[n:]
	}
	return nil
}

// --------------------------------------------------------------------------
// JSON Encoding
// --------------------------------------------------------------------------

// jsonValue is the JSON shape of a Value: exactly one field is set, none for the default value.
type jsonValue struct {
	String  *string  `json:"string,omitempty"`
	Binary  []byte   `json:"binary,omitempty"`
	Integer *int64   `json:"integer,omitempty"`
	Float   *float64 `json:"float,omitempty"`
	Bool    *bool    `json:"bool,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var j jsonValue
	switch v.kind {
	case KindString:
		j.String = &v.str
	case KindBinary:
		// an empty slice would be dropped by omitempty, so it is written explicitly
		if len(v.bin) == 0 {
			return []byte(`{"binary":""}`), nil
		}
		j.Binary = v.bin
	case KindInteger:
		j.Integer = &v.i
	case KindFloat:
		j.Float = &v.f
	case KindBool:
		j.Bool = &v.b
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Value{}
	if len(raw) > 1 {
		return errors.Newf("value must have at most one field, got %d", len(raw))
	}
	for field, msg := range raw {
		switch field {
		case "string":
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return err
			}
			*v = String(s)
		case "binary":
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return err
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return errors.Wrap(err, "invalid binary value")
			}
			*v = Binary(b)
		case "integer":
			var i int64
			if err := json.Unmarshal(msg, &i); err != nil {
				return err
			}
			*v = Int(i)
		case "float":
			var f float64
			if err := json.Unmarshal(msg, &f); err != nil {
				return err
			}
			*v = Float(f)
		case "bool":
			var b bool
			if err := json.Unmarshal(msg, &b); err != nil {
				return err
			}
			*v = Bool(b)
		default:
			return errors.Newf("unknown value field %q", field)
		}
	}
	return nil
}
