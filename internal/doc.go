// Package internal provides the request pipeline behind the atelier API.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/atelier" instead, which re-exports the public API.
//
// # Stages
//
// A route is an ordered list of stages. Each stage inspects the Context and
// either continues to the next stage or responds:
//
//	func requireAdmin(c atelier.Context) (atelier.Result, error) {
//	    if role, _ := c.Get(roleKey{}).(string); role != "admin" {
//	        return atelier.Continue, atelier.ErrForbidden
//	    }
//	    return atelier.Continue, nil
//	}
//
// Compose validates the list once at registration. At request time the first
// error stops the pipeline and goes to the ErrorHandler; a stage that writes
// the response ends it even if it returned Continue. Running past the last
// stage without a response is reported as INTERNAL_ERROR.
//
// # Routes
//
// Handlers implement the Handler interface and register descriptors on a
// Router. Registration fails eagerly on duplicates, unsupported methods and
// empty pipelines:
//
//	func (h *Labels) Routes(r atelier.Router) {
//	    r.Route("/api/labels", func(r atelier.Router) {
//	        r.GET("/", h.auth, h.list)
//	        r.POST("/", h.auth, h.validate, h.create)
//	    })
//	}
//
// Mux.Dispatch resolves a method and path to its Route, or NotFoundRoute.
//
// # Errors
//
// Every failure reaches the client as {"error": CODE, "message": text}.
// Errors built from the taxonomy in errors.go keep their status and code;
// anything else becomes INTERNAL_ERROR and is only logged.
//
// # Context
//
// Context embeds context.Context and is cancelled with the request. It gives
// stages the request body (read once, size limited), query parameters coerced
// through a JSON schema, a cookie jar and the shared capabilities the App was
// built with: database, token signer, schema compiler, cache and asset store.
package internal
