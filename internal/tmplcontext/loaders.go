package tmplcontext

import (
	"fmt"

	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// LoadJSON registers every top-level field of a raw JSON document as a
// literal DataValue in scope, using gjson for the decode-without-a-struct
// walk the teacher's internal/jsonvalue exists to avoid needing (see
// DESIGN.md for the grounding note on this promotion).
func (c *Context) LoadJSON(scope string, document []byte) error {
	if !gjson.ValidBytes(document) {
		return fmt.Errorf("tmplcontext: invalid JSON document")
	}
	root := gjson.ParseBytes(document)
	if !root.IsObject() {
		return fmt.Errorf("tmplcontext: JSON document must be an object at the top level")
	}
	root.ForEach(func(key, val gjson.Result) bool {
		c.SetLiteral(scope, key.String(), gjsonToData(val))
		return true
	})
	return nil
}

// PatchJSON amends a raw JSON document at dotted path before the caller
// re-registers it via LoadJSON — a host convenience for tweaking a stored
// document without hand-rolling the edit.
func PatchJSON(document []byte, path string, newValue any) ([]byte, error) {
	return sjson.SetBytes(document, path, newValue)
}

func gjsonToData(r gjson.Result) value.Data {
	switch r.Type {
	case gjson.Null:
		return value.TrueNil
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) {
			return value.Int(int64(r.Num))
		}
		return value.Double(r.Num)
	case gjson.String:
		return value.String(r.String())
	case gjson.JSON:
		if r.IsArray() {
			var elems []value.Data
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, gjsonToData(v))
				return true
			})
			return value.Array(elems)
		}
		var keys []string
		values := make(map[string]value.Data)
		r.ForEach(func(k, v gjson.Result) bool {
			keys = append(keys, k.String())
			values[k.String()] = gjsonToData(v)
			return true
		})
		return value.Dict(keys, values)
	default:
		return value.TrueNil
	}
}

// LoadYAML registers every top-level field of a raw YAML document as a
// literal DataValue in scope, for hosts that keep context data in YAML
// instead of JSON.
func (c *Context) LoadYAML(scope string, document []byte) error {
	var decoded map[string]any
	if err := yaml.Unmarshal(document, &decoded); err != nil {
		return fmt.Errorf("tmplcontext: invalid YAML document: %w", err)
	}
	for k, v := range decoded {
		c.SetLiteral(scope, k, anyToData(v))
	}
	return nil
}

func anyToData(v any) value.Data {
	switch t := v.(type) {
	case nil:
		return value.TrueNil
	case bool:
		return value.Bool(t)
	case int:
		return value.Int(int64(t))
	case int64:
		return value.Int(t)
	case float64:
		return value.Double(t)
	case string:
		return value.String(t)
	case []any:
		elems := make([]value.Data, len(t))
		for i, e := range t {
			elems[i] = anyToData(e)
		}
		return value.Array(elems)
	case map[string]any:
		keys := make([]string, 0, len(t))
		values := make(map[string]value.Data, len(t))
		for k, e := range t {
			keys = append(keys, k)
			values[k] = anyToData(e)
		}
		return value.Dict(keys, values)
	default:
		return value.TrueNil
	}
}
