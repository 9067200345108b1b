package internal

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// SearchParams holds query values coerced to the types a query schema declares.
// Numbers are json.Number, booleans are bool, everything else stays a string.
type SearchParams map[string]any

// rawSearchParams keeps the first value of every key as a string.
func rawSearchParams(q url.Values) SearchParams {
	out := make(SearchParams, len(q))
	for k, v := range q {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Has reports whether key is present.
func (p SearchParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p SearchParams) String(key, def string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return def
	default:
		return def
	}
}

func (p SearchParams) Int(key string, def int) int {
	switch v := p[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (p SearchParams) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
