package middlewares

import (
	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

// ValidateBody returns a stage that checks the JSON body against v.
// An empty body is INVALID_PAYLOAD; a mismatch carries the failing locations.
func ValidateBody(v *schema.Validator) internal.Stage {
	return func(c internal.Context) (internal.Result, error) {
		raw, err := c.Body()
		if err != nil {
			return internal.Continue, err
		}
		if raw == nil {
			return internal.Continue, internal.ErrInvalidPayload
		}
		if err := v.ValidateJSON(raw); err != nil {
			return internal.Continue, internal.InvalidPayload(err)
		}
		return internal.Continue, nil
	}
}

// ValidateQuery returns a stage that coerces and validates the query string
// with v. Later stages read the typed values through SearchParams.
func ValidateQuery(v *schema.Validator) internal.Stage {
	return func(c internal.Context) (internal.Result, error) {
		if _, err := c.BindQuery(v); err != nil {
			return internal.Continue, err
		}
		return internal.Continue, nil
	}
}
