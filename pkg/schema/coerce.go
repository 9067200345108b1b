package schema

import (
	"encoding/json"
	"net/url"
	"strconv"
)

type property struct {
	typ      string
	itemType string
	def      any
	hasDef   bool
}

func declaredProperties(doc any) map[string]property {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	props, ok := root["properties"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]property, len(props))
	for name, raw := range props {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		prop := property{typ: primaryType(p["type"])}
		if items, ok := p["items"].(map[string]any); ok {
			prop.itemType = primaryType(items["type"])
		}
		if d, ok := p["default"]; ok {
			prop.def, prop.hasDef = d, true
		}
		out[name] = prop
	}
	return out
}

// primaryType picks the first non-null type of a "type" keyword.
func primaryType(t any) string {
	switch v := t.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

// Coerce converts query-string values into the types the schema declares for
// them and fills declared defaults for absent keys. Values that do not parse
// are kept as strings so validation reports them. Numbers become json.Number.
func (v *Validator) Coerce(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		prop, declared := v.props[key]
		if !declared {
			out[key] = vals[0]
			continue
		}
		if prop.typ == "array" {
			items := make([]any, len(vals))
			for i, s := range vals {
				items[i] = coerceScalar(prop.itemType, s)
			}
			out[key] = items
			continue
		}
		out[key] = coerceScalar(prop.typ, vals[0])
	}
	for key, prop := range v.props {
		if _, ok := out[key]; !ok && prop.hasDef {
			out[key] = prop.def
		}
	}
	return out
}

func coerceScalar(typ, s string) any {
	switch typ {
	case "integer":
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return json.Number(s)
		}
	case "number":
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return json.Number(s)
		}
	case "boolean":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}
