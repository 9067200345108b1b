package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

// serve runs req through an App whose only route matches pattern with stages.
func serve(t *testing.T, req *http.Request, pattern string, opts []internal.Option, stages ...internal.Stage) *httptest.ResponseRecorder {
	t.Helper()
	opts = append(opts, internal.WithHandlers(routes(func(r internal.Router) {
		require.NoError(t, r.Register(req.Method, pattern, stages...))
	})))
	w := httptest.NewRecorder()
	internal.New(opts...).Handler().ServeHTTP(w, req)
	return w
}

// respond wraps fn into a final stage that answers 204 unless fn wrote.
func respond(fn func(c internal.Context) error) internal.Stage {
	return func(c internal.Context) (internal.Result, error) {
		if err := fn(c); err != nil {
			return internal.Respond, err
		}
		if !c.Written() {
			return internal.Respond, c.NoContent(http.StatusNoContent)
		}
		return internal.Respond, nil
	}
}

func ok(c internal.Context) (internal.Result, error) {
	return internal.Respond, c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
