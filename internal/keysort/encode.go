// internal/keysort/encode.go
package keysort

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Marshal encodes v as compact JSON with canonically ordered object keys.
func Marshal(v any) ([]byte, error) {
	return MarshalIndent(v, "", "")
}

// MarshalIndent is Marshal with indentation. An empty indent produces compact
// output. v must be built from maps, slices and JSON scalars, as produced by
// decoding into any.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	e := &encoder{prefix: prefix, indent: indent}
	if err := e.value("", v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf    bytes.Buffer
	prefix string
	indent string
}

func (e *encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	e.buf.WriteString(e.prefix)
	for i := 0; i < depth; i++ {
		e.buf.WriteString(e.indent)
	}
}

func (e *encoder) value(key string, v any, depth int) error {
	switch t := v.(type) {
	case map[string]any:
		return e.object(key, t, depth)
	case []any:
		return e.array(key, t, depth)
	default:
		b, err := json.MarshalNoEscape(t)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", key, err)
		}
		e.buf.Write(b)
		return nil
	}
}

func (e *encoder) object(key string, obj map[string]any, depth int) error {
	if len(obj) == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	e.buf.WriteByte('{')
	for i, k := range orderedKeys(key, obj) {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		kb, err := json.MarshalNoEscape(k)
		if err != nil {
			return err
		}
		e.buf.Write(kb)
		e.buf.WriteByte(':')
		if e.indent != "" {
			e.buf.WriteByte(' ')
		}
		if err := e.value(k, obj[k], depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) array(key string, arr []any, depth int) error {
	if len(arr) == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		// array elements inherit the key so their objects sort like siblings
		if err := e.value(key, item, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}
