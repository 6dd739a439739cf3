package store

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// protobuf field numbers of the Kvpair message
const (
	fieldPairKey   protowire.Number = 1
	fieldPairValue protowire.Number = 2
)

// Kvpair is a single entry of a table.
type Kvpair struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// NewKvpair creates a new Kvpair.
func NewKvpair(key string, value Value) Kvpair {
	return Kvpair{Key: key, Value: value}
}

// Compare orders pairs by key first and by value second.
func (p Kvpair) Compare(o Kvpair) int {
	if c := strings.Compare(p.Key, o.Key); c != 0 {
		return c
	}
	return p.Value.Compare(o.Value)
}

// Equal reports whether both key and value are equal.
func (p Kvpair) Equal(o Kvpair) bool {
	return p.Compare(o) == 0
}

// SortPairs sorts pairs in place by (key, value).
func SortPairs(pairs []Kvpair) {
	slices.SortFunc(pairs, Kvpair.Compare)
}

// AppendBinary appends the wire encoding of the pair to b.
// Empty fields are omitted like proto3 does.
func (p Kvpair) AppendBinary(b []byte) ([]byte, error) {
	if p.Key != "" {
		b = protowire.AppendTag(b, fieldPairKey, protowire.BytesType)
		b = protowire.AppendString(b, p.Key)
	}
	if !p.Value.IsNone() {
		v, err := p.Value.MarshalBinary()
		if err != nil {
			return b, err
		}
		b = protowire.AppendTag(b, fieldPairValue, protowire.BytesType)
		b = protowire.AppendBytes(b, v)
	}
	return b, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p Kvpair) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(nil)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Kvpair) UnmarshalBinary(data []byte) error {
	*p = Kvpair{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "cannot decode pair tag")
		}
		data = data[n:]

		switch {
		case num == fieldPairKey && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode pair key")
			}
			p.Key, n = s, m
		case num == fieldPairValue && typ == protowire.BytesType:
			b, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return errors.Wrap(protowire.ParseError(m), "cannot decode pair value")
			}
			if err := p.Value.UnmarshalBinary(b); err != nil {
				return err
			}
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "cannot skip unknown pair field")
			}
		}
		data = data[n:]
	}
	return nil
}
