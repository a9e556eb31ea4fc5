package validation

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const maxDepth = 64

// normalize fills property defaults and coerces scalars to the declared
// types. wrapScalars also turns a scalar into a one-element array where an
// array is expected, which is how a single query value arrives.
func normalize(s *jsonschema.Schema, data any, wrapScalars bool) any {
	return walk(s, data, wrapScalars, 0)
}

func walk(s *jsonschema.Schema, data any, wrapScalars bool, depth int) any {
	if s == nil || depth > maxDepth {
		return data
	}
	chain := resolveChain(s)

	if types := declaredTypes(chain); len(types) > 0 {
		data = coerce(data, types, wrapScalars)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, sch := range chain {
			for name, prop := range sch.Properties {
				if value, ok := v[name]; ok {
					v[name] = walk(prop, value, wrapScalars, depth+1)
					continue
				}
				if def := defaultOf(prop); def != nil {
					v[name] = *def
				}
			}
		}
	case []any:
		for _, sch := range chain {
			items := itemSchema(sch)
			if items == nil {
				continue
			}
			for i := range v {
				v[i] = walk(items, v[i], wrapScalars, depth+1)
			}
		}
	}

	return data
}

// resolveChain returns s followed by the schemas it references or combines
// with allOf.
func resolveChain(s *jsonschema.Schema) []*jsonschema.Schema {
	var chain []*jsonschema.Schema
	seen := map[*jsonschema.Schema]bool{}

	var visit func(*jsonschema.Schema)
	visit = func(sch *jsonschema.Schema) {
		if sch == nil || seen[sch] || len(chain) > maxDepth {
			return
		}
		seen[sch] = true
		chain = append(chain, sch)
		visit(sch.Ref)
		for _, sub := range sch.AllOf {
			visit(sub)
		}
	}
	visit(s)

	return chain
}

func declaredTypes(chain []*jsonschema.Schema) []string {
	for _, sch := range chain {
		if sch.Types != nil && !sch.Types.IsEmpty() {
			return sch.Types.ToStrings()
		}
	}
	return nil
}

func defaultOf(s *jsonschema.Schema) *any {
	for _, sch := range resolveChain(s) {
		if sch.Default != nil {
			def := plain(*sch.Default)
			return &def
		}
	}
	return nil
}

func itemSchema(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Items2020 != nil {
		return s.Items2020
	}
	if items, ok := s.Items.(*jsonschema.Schema); ok {
		return items
	}
	return nil
}

// plain deep-copies a schema value, turning json.Number into float64 like
// decoded request bodies.
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	default:
		return v
	}
}

func jsonType(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return "integer"
		}
		return "number"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return ""
	}
}

func accepts(types []string, actual string) bool {
	if slices.Contains(types, actual) {
		return true
	}
	return actual == "integer" && slices.Contains(types, "number")
}

// coerce converts data to the first declared type it can be converted to.
// Values that already match, or that cannot be converted, are returned as is.
func coerce(data any, types []string, wrapScalars bool) any {
	actual := jsonType(data)
	if actual == "" || accepts(types, actual) {
		return data
	}

	for _, target := range types {
		if out, ok := coerceTo(data, actual, target, wrapScalars); ok {
			return out
		}
	}
	return data
}

func coerceTo(data any, actual, target string, wrapScalars bool) (any, bool) {
	switch target {
	case "number", "integer":
		var f float64
		switch actual {
		case "string":
			parsed, err := strconv.ParseFloat(data.(string), 64)
			if err != nil {
				return nil, false
			}
			f = parsed
		case "boolean":
			if data.(bool) {
				f = 1
			}
		case "null":
			f = 0
		default:
			return nil, false
		}
		if target == "integer" && f != math.Trunc(f) {
			return nil, false
		}
		return f, true

	case "string":
		switch actual {
		case "integer", "number":
			return numberString(data), true
		case "boolean":
			return strconv.FormatBool(data.(bool)), true
		case "null":
			return "", true
		}

	case "boolean":
		switch actual {
		case "string":
			switch data.(string) {
			case "true":
				return true, true
			case "false":
				return false, true
			}
		case "integer", "number":
			switch numberString(data) {
			case "1":
				return true, true
			case "0":
				return false, true
			}
		case "null":
			return false, true
		}

	case "null":
		switch actual {
		case "string":
			if data.(string) == "" {
				return nil, true
			}
		case "integer", "number":
			if numberString(data) == "0" {
				return nil, true
			}
		case "boolean":
			if !data.(bool) {
				return nil, true
			}
		}

	case "array":
		if wrapScalars && actual != "object" {
			return []any{data}, true
		}
	}

	return nil, false
}

func numberString(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}
