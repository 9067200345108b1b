// Package schema compiles JSON Schema documents into reusable validators.
//
// It wraps [github.com/santhosh-tekuri/jsonschema/v6]. A Compiler caches
// validators by the content of their definition, so declaring the same schema
// on several routes compiles it once:
//
//	schemas := schema.NewCompiler()
//	v := schemas.MustCompile(`{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`)
//	if err := v.ValidateJSON(body); err != nil {
//		// errors.Is(err, schema.ErrInvalid)
//	}
//
// Query strings carry only text. Coerce converts url.Values into the types the
// schema declares for each property (integer, number, boolean, arrays of those)
// and applies declared defaults before validation.
package schema
