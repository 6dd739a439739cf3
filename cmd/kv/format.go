package kv

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// Value types accepted by --type
var valueTypes = []string{"string", "int", "float", "bool", "bytes"}

// parseValue converts a command line argument into a Value of the given type.
// Bytes are expected in standard base64.
func parseValue(raw, typ string) (store.Value, error) {
	switch typ {
	case "string", "":
		return store.String(raw), nil
	case "int":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return store.Value{}, errors.Wrapf(err, "invalid int value %q", raw)
		}
		return store.Int(i), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return store.Value{}, errors.Wrapf(err, "invalid float value %q", raw)
		}
		return store.Float(f), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return store.Value{}, errors.Wrapf(err, "invalid bool value %q", raw)
		}
		return store.Bool(b), nil
	case "bytes":
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return store.Value{}, errors.Wrapf(err, "invalid base64 value %q", raw)
		}
		return store.Binary(b), nil
	default:
		return store.Value{}, errors.Newf("invalid type %q (expected one of %s)", typ, strings.Join(valueTypes, ", "))
	}
}

// parsePairs parses key=value arguments
func parsePairs(args []string, typ string) ([]store.Kvpair, error) {
	pairs := make([]store.Kvpair, 0, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.Newf("invalid pair %q (expected key=value)", arg)
		}
		v, err := parseValue(raw, typ)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, store.NewKvpair(key, v))
	}
	return pairs, nil
}

// entry is one printed row
type entry struct {
	Key   string `json:"key" yaml:"key"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

func newEntry(key string, v store.Value) entry {
	e := entry{Key: key, Type: v.Kind().String()}
	switch v.Kind() {
	case store.KindString:
		e.Value, _ = v.AsString()
	case store.KindBinary:
		b, _ := v.AsBinary()
		e.Value = base64.StdEncoding.EncodeToString(b)
	case store.KindInteger:
		e.Value, _ = v.AsInt()
	case store.KindFloat:
		e.Value, _ = v.AsFloat()
	case store.KindBool:
		e.Value, _ = v.AsBool()
	}
	return e
}

// entriesOf pairs every key with the value at the same position
func entriesOf(keys []string, values []store.Value) []entry {
	entries := make([]entry, len(values))
	for i, v := range values {
		entries[i] = newEntry(keys[i], v)
	}
	return entries
}

// entriesOfPairs converts pairs into entries sorted by key
func entriesOfPairs(pairs []store.Kvpair) []entry {
	store.SortPairs(pairs)
	entries := make([]entry, len(pairs))
	for i, p := range pairs {
		entries[i] = newEntry(p.Key, p.Value)
	}
	return entries
}

// render writes the entries in the requested format
func render(w io.Writer, format string, entries []entry) error {
	switch format {
	case outputText, "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			value := "<none>"
			if e.Value != nil {
				value = fmt.Sprint(e.Value)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.Type, value)
		}
		return tw.Flush()
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.Newf("invalid output format %q (expected one of text, json, yaml)", format)
	}
}
