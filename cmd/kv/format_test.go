package kv

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw, typ string
		want     store.Value
	}{
		{"hello", "string", store.String("hello")},
		{"hello", "", store.String("hello")},
		{"-42", "int", store.Int(-42)},
		{"2.5", "float", store.Float(2.5)},
		{"true", "bool", store.Bool(true)},
		{"AQID", "bytes", store.Binary([]byte{1, 2, 3})},
		{"", "bytes", store.Binary([]byte{})},
	}
	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.raw, func(t *testing.T) {
			v, err := parseValue(tt.raw, tt.typ)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(v), "got %s", v)
		})
	}

	for _, tt := range []struct{ raw, typ string }{
		{"x", "int"},
		{"x", "float"},
		{"x", "bool"},
		{"!!", "bytes"},
		{"x", "uuid"},
	} {
		_, err := parseValue(tt.raw, tt.typ)
		assert.Error(t, err, "%s as %s", tt.raw, tt.typ)
	}
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"a=1", "b=2=3"}, "string")
	require.NoError(t, err)
	assert.Equal(t, []store.Kvpair{
		store.NewKvpair("a", store.String("1")),
		store.NewKvpair("b", store.String("2=3")),
	}, pairs)

	_, err = parsePairs([]string{"novalue"}, "string")
	assert.Error(t, err)
	_, err = parsePairs([]string{"=1"}, "string")
	assert.Error(t, err)
	_, err = parsePairs([]string{"a=x"}, "int")
	assert.Error(t, err)
}

func TestEntriesOfPairsSorted(t *testing.T) {
	entries := entriesOfPairs([]store.Kvpair{
		store.NewKvpair("c", store.Int(3)),
		store.NewKvpair("a", store.Binary([]byte{0xff})),
		store.NewKvpair("b", store.Value{}),
	})
	assert.Equal(t, []entry{
		{Key: "a", Type: "binary", Value: "/w=="},
		{Key: "b", Type: "none", Value: nil},
		{Key: "c", Type: "integer", Value: int64(3)},
	}, entries)
}

func TestRender(t *testing.T) {
	entries := entriesOf(
		[]string{"name", "age", "missing"},
		[]store.Value{store.String("alice"), store.Int(30), {}},
	)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, outputText, entries))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"name", "string", "alice"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"age", "integer", "30"}, strings.Fields(lines[1]))
		assert.Equal(t, []string{"missing", "none", "<none>"}, strings.Fields(lines[2]))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, outputJSON, entries))
		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 3)
		assert.Equal(t, "alice", decoded[0]["value"])
		assert.Equal(t, float64(30), decoded[1]["value"])
		assert.Nil(t, decoded[2]["value"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, outputYAML, entries[:2]))
		assert.Equal(t, "- key: name\n  type: string\n  value: alice\n- key: age\n  type: integer\n  value: 30\n", buf.String())
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, render(&bytes.Buffer{}, "xml", entries))
	})
}
