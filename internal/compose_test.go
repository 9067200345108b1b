package internal_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/atelier/internal"
)

// counter returns a stage that counts its calls and then continues.
func counter(n *int) internal.Stage {
	return func(internal.Context) (internal.Result, error) {
		*n++
		return internal.Continue, nil
	}
}

func respondOK(c internal.Context) (internal.Result, error) {
	return internal.Respond, c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
}

// runStages serves a single GET / request through stages.
func runStages(t *testing.T, opts []internal.Option, stages ...internal.Stage) *httptest.ResponseRecorder {
	t.Helper()
	opts = append(opts, internal.WithHandlers(handlerFunc(func(r internal.Router) {
		r.GET("/", stages...)
	})))
	app := internal.New(opts...)
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

type handlerFunc func(r internal.Router)

func (f handlerFunc) Routes(r internal.Router) { f(r) }

func TestCompose(t *testing.T) {
	t.Parallel()

	t.Run("empty pipeline is rejected", func(t *testing.T) {
		t.Parallel()
		h, err := internal.Compose()
		require.ErrorIs(t, err, internal.ErrEmptyPipeline)
		assert.Nil(t, h)
	})

	t.Run("nil stage is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := internal.Compose(respondOK, nil)
		require.ErrorIs(t, err, internal.ErrNilStage)
	})

	t.Run("stages run in order until respond", func(t *testing.T) {
		t.Parallel()
		var order []string
		step := func(name string, res internal.Result) internal.Stage {
			return func(c internal.Context) (internal.Result, error) {
				order = append(order, name)
				if res == internal.Respond {
					return res, c.NoContent(http.StatusNoContent)
				}
				return res, nil
			}
		}

		w := runStages(t, nil, step("a", internal.Continue), step("b", internal.Continue), step("c", internal.Respond), step("d", internal.Continue))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("error short-circuits later stages", func(t *testing.T) {
		t.Parallel()
		var before, after int
		fail := func(internal.Context) (internal.Result, error) {
			return internal.Continue, internal.ErrForbidden
		}

		w := runStages(t, nil, counter(&before), fail, counter(&after), respondOK)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 1, before)
		assert.Zero(t, after)
		assert.JSONEq(t, `{"error":"FORBIDDEN","message":"access denied"}`, w.Body.String())
	})

	t.Run("writing stage ends the chain even when it continues", func(t *testing.T) {
		t.Parallel()
		var after int
		write := func(c internal.Context) (internal.Result, error) {
			return internal.Continue, c.JSON(http.StatusAccepted, "done")
		}

		w := runStages(t, nil, write, counter(&after))
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Zero(t, after)
	})

	t.Run("continue from the last stage is an internal error", func(t *testing.T) {
		t.Parallel()
		var n int
		h, err := internal.Compose(counter(&n))
		require.NoError(t, err)
		require.NotNil(t, h)

		w := runStages(t, nil, counter(&n))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"INTERNAL_ERROR","message":"internal server error"}`, w.Body.String())
	})

	t.Run("respond without writing is an internal error", func(t *testing.T) {
		t.Parallel()
		silent := func(internal.Context) (internal.Result, error) {
			return internal.Respond, nil
		}
		w := runStages(t, nil, silent)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestChainGuardsNext(t *testing.T) {
	t.Parallel()

	var calls int
	var secondErr error
	twice := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			err := next(c)
			secondErr = next(c)
			return err
		}
	}
	stage := func(c internal.Context) (internal.Result, error) {
		calls++
		return internal.Respond, c.JSON(http.StatusOK, calls)
	}

	w := runStages(t, []internal.Option{internal.WithMiddleware(twice)}, stage)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
	require.ErrorIs(t, secondErr, internal.ErrNextCalledTwice)
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				order = append(order, name+":in")
				err := next(c)
				order = append(order, name+":out")
				return err
			}
		}
	}

	h := internal.Chain(func(internal.Context) error {
		order = append(order, "handler")
		return errors.New("boom")
	}, mw("outer"), mw("inner"))

	err := h(nil)
	require.EqualError(t, err, "boom")
	assert.Equal(t, []string{"outer:in", "inner:in", "handler", "inner:out", "outer:out"}, order)
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	w := runStages(t, nil, internal.Terminal(func(c internal.Context) error {
		return c.JSON(http.StatusCreated, map[string]int{"id": 1})
	}))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	w = runStages(t, nil, internal.Terminal(func(internal.Context) error {
		return internal.ErrNotFound
	}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "continue", internal.Continue.String())
	assert.Equal(t, "respond", internal.Respond.String())
	assert.Equal(t, "unknown", internal.Result(9).String())
}
