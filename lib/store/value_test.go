package store

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func allKinds() []Value {
	return []Value{
		{},
		String(""),
		String("world"),
		Binary(nil),
		Binary([]byte{0x00, 0xff, 0x10}),
		Int(0),
		Int(-42),
		Int(math.MaxInt64),
		Float(3.25),
		Float(-1e300),
		Bool(false),
		Bool(true),
	}
}

func TestValueBinaryRoundTrip(t *testing.T) {
	for _, v := range allKinds() {
		t.Run(v.Kind().String()+"/"+v.String(), func(t *testing.T) {
			b, err := v.MarshalBinary()
			require.NoError(t, err)

			var got Value
			require.NoError(t, got.UnmarshalBinary(b))
			assert.True(t, v.Equal(got), "expected %s, got %s", v, got)
			assert.Equal(t, v.Kind(), got.Kind())
		})
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	for _, v := range allKinds() {
		t.Run(v.Kind().String()+"/"+v.String(), func(t *testing.T) {
			b, err := json.Marshal(v)
			require.NoError(t, err)

			var got Value
			require.NoError(t, json.Unmarshal(b, &got))
			assert.True(t, v.Equal(got), "expected %s, got %s (json %s)", v, got, b)
		})
	}
}

func TestValueJSONShape(t *testing.T) {
	b, err := json.Marshal(String("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"string":"x"}`, string(b))

	b, err = json.Marshal(Value{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"string":"a","integer":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"nope":1}`), &v))
}

func TestDefaultValueEncodesEmpty(t *testing.T) {
	b, err := Value{}.MarshalBinary()
	require.NoError(t, err)
	assert.Empty(t, b)

	var v Value
	require.NoError(t, v.UnmarshalBinary(nil))
	assert.True(t, v.IsNone())
}

func TestValueDecodeSkipsUnknownAndLastWins(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, fieldString, protowire.BytesType)
	b = protowire.AppendString(b, "first")
	b = protowire.AppendTag(b, fieldInteger, protowire.VarintType)
	b = protowire.AppendVarint(b, 5)

	var v Value
	require.NoError(t, v.UnmarshalBinary(b))
	assert.True(t, Int(5).Equal(v))
}

func TestValueDecodeGarbage(t *testing.T) {
	var v Value
	assert.Error(t, v.UnmarshalBinary([]byte{0xff}))
	// string field with a length longer than the buffer
	assert.Error(t, v.UnmarshalBinary([]byte{0x0a, 0x05, 'a'}))
}

func TestValueDecodeDoesNotAlias(t *testing.T) {
	b, err := Binary([]byte("abc")).MarshalBinary()
	require.NoError(t, err)

	var v Value
	require.NoError(t, v.UnmarshalBinary(b))
	for i := range b {
		b[i] = 0
	}
	got, ok := v.AsBinary()
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestValueOrder(t *testing.T) {
	ordered := []Value{
		{},
		String("a"),
		String("b"),
		Binary([]byte{0x01}),
		Int(-1),
		Int(1),
		Float(math.NaN()),
		Float(-1.5),
		Float(2),
		Bool(false),
		Bool(true),
	}
	for i := range ordered {
		for j := range ordered {
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			assert.Equal(t, want, ordered[i].Compare(ordered[j]), "compare(%s, %s)", ordered[i], ordered[j])
		}
	}
}

func TestValueEqualityIsKindSensitive(t *testing.T) {
	assert.False(t, Int(1).Equal(Float(1)))
	assert.False(t, String("").Equal(Value{}))
	assert.False(t, Binary(nil).Equal(String("")))
	assert.True(t, Float(math.NaN()).Equal(Float(math.NaN())))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "0xAB01FF", Binary([]byte{0xab, 0x01, 0xff}).String())
	assert.Equal(t, "0x", Binary(nil).String())
	assert.Equal(t, `"alice"`, String("alice").String())
	assert.Equal(t, "-3", Int(-3).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "<none>", Value{}.String())
}

func TestValueClone(t *testing.T) {
	raw := []byte("data")
	v := Binary(raw)
	c := v.Clone()
	raw[0] = 'X'

	got, _ := c.AsBinary()
	assert.Equal(t, []byte("data"), got)
}

func TestKvpairRoundTripAndSort(t *testing.T) {
	p := NewKvpair("k", Int(7))
	b, err := p.MarshalBinary()
	require.NoError(t, err)

	var got Kvpair
	require.NoError(t, got.UnmarshalBinary(b))
	assert.True(t, p.Equal(got))

	pairs := []Kvpair{
		NewKvpair("u3", String("c")),
		NewKvpair("u1", String("a")),
		NewKvpair("u2", String("b")),
	}
	SortPairs(pairs)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{pairs[0].Key, pairs[1].Key, pairs[2].Key})
}

func TestErrorCodes(t *testing.T) {
	err := ErrNotFound("t", "k")
	assert.Equal(t, "Not found for table: t, key: k", err.Error())
	assert.Equal(t, RetCNotFound, CodeOf(err))
	assert.Equal(t, RetCNotFound, CodeOf(errors.Wrap(err, "lookup")))

	assert.Equal(t, "Cannot parse command: `Request has no data`", ErrInvalidCommand("Request has no data").Error())
	assert.Equal(t, RetCSuccess, CodeOf(nil))
	assert.Equal(t, RetCInternal, CodeOf(errors.New("plain")))

	cause := errors.New("disk on fire")
	be := ErrBackend(cause, "get", "t", "k")
	assert.Equal(t, RetCBackend, be.Code)
	assert.True(t, errors.Is(be, cause))
}
