package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/schema"
	"github.com/dmitrymomot/atelier/pkg/token"
)

var (
	errBodyTooLarge  = errors.New("request body too large")
	errMalformedJSON = errors.New("malformed json")
	errEmptyBody     = errors.New("empty request body")
)

// Context carries everything one request needs: its input, the shared
// capabilities injected into the App and the response writer.
// It also implements context.Context by delegating to the request context,
// so it can be passed straight to database and storage calls.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the response writer.
	Response() http.ResponseWriter

	// Route returns the descriptor that matched this request.
	Route() *Route

	// Param returns the URL parameter value by name.
	Param(name string) string

	// Query returns the first query value for name.
	Query(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// Body reads the request body once and returns it as raw JSON.
	// An empty body yields nil. Malformed JSON yields ErrInvalidPayload.
	Body() (json.RawMessage, error)

	// BindJSON decodes the body into v. An empty body is ErrInvalidPayload.
	BindJSON(v any) error

	// BindQuery coerces the query string with v, validates it and makes the
	// result available through SearchParams.
	BindQuery(v *schema.Validator) (SearchParams, error)

	// SearchParams returns the values stored by BindQuery, or the raw query
	// values as strings when no query schema ran.
	SearchParams() SearchParams

	Cookies() *cookie.Jar
	Tokens() *token.Signer
	DB() *db.DB
	Schemas() *schema.Compiler
	Cache() *cache.Loader[json.RawMessage]
	Assets() *cas.Store
	Logger() *slog.Logger

	// Set stores a request-scoped value. Values are visible through the
	// context.Context interface, so log extractors can read them.
	Set(key, value any)
	Get(key any) any

	// JSON serializes v and writes it with code. It writes at most once per
	// request: later calls return ErrAlreadyResponded and write nothing.
	JSON(code int, v any) error

	// NoContent writes only the status line.
	NoContent(code int) error

	// Written reports whether the response has been started.
	Written() bool
}

// requestContext is the Context handed to stages. Service accessors come
// from the embedded services; context.Context calls go to the request.
type requestContext struct {
	*services

	request  *http.Request
	response *ResponseWriter
	route    *Route
	bodyMax  int64

	jar    *cookie.Jar
	search SearchParams

	body     json.RawMessage
	bodyErr  error
	bodyRead bool
}

func newContext(w http.ResponseWriter, r *http.Request, app *App, route *Route) *requestContext {
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w)
	}
	return &requestContext{
		services: &app.services,
		request:  r,
		response: rw,
		route:    route,
		bodyMax:  app.maxBodySize,
	}
}

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.response }
func (c *requestContext) Route() *Route                 { return c.route }
func (c *requestContext) Written() bool                 { return c.response.Written() }

func (c *requestContext) Param(name string) string  { return chi.URLParam(c.request, name) }
func (c *requestContext) Query(name string) string  { return c.request.URL.Query().Get(name) }
func (c *requestContext) Header(name string) string { return c.request.Header.Get(name) }

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

// Set replaces the request with one whose context carries value, so later
// stages and log extractors see it through Value.
func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any { return c.Value(key) }

func (c *requestContext) Cookies() *cookie.Jar {
	if c.jar == nil {
		c.jar = c.cookies.Jar(c.response, c.request)
	}
	return c.jar
}

func (c *requestContext) Body() (json.RawMessage, error) {
	if !c.bodyRead {
		c.bodyRead = true
		c.body, c.bodyErr = readBody(c.request, c.bodyMax)
	}
	return c.body, c.bodyErr
}

func readBody(r *http.Request, limit int64) (json.RawMessage, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, ErrInvalidPayload.Wrap(err)
	}
	if int64(len(data)) > limit {
		return nil, ErrInvalidPayload.Wrap(errBodyTooLarge)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, ErrInvalidPayload.Wrap(errMalformedJSON)
	}
	return data, nil
}

func (c *requestContext) BindJSON(v any) error {
	raw, err := c.Body()
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrInvalidPayload.Wrap(errEmptyBody)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrInvalidPayload.Wrap(err)
	}
	return nil
}

func (c *requestContext) BindQuery(v *schema.Validator) (SearchParams, error) {
	params := SearchParams(v.Coerce(c.request.URL.Query()))
	if err := v.Validate(map[string]any(params)); err != nil {
		return nil, InvalidPayload(err)
	}
	c.search = params
	return params, nil
}

func (c *requestContext) SearchParams() SearchParams {
	if c.search == nil {
		c.search = rawSearchParams(c.request.URL.Query())
	}
	return c.search
}

func (c *requestContext) JSON(code int, v any) error {
	if c.response.Written() {
		return ErrAlreadyResponded
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ErrFailedSerialization.Wrap(err)
	}
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	_, err = c.response.Write(append(data, '\n'))
	return err
}

func (c *requestContext) NoContent(code int) error {
	if c.response.Written() {
		return ErrAlreadyResponded
	}
	c.response.WriteHeader(code)
	return nil
}


// InvalidPayload maps a schema failure to ErrInvalidPayload with the
// failing instance locations as details.
func InvalidPayload(err error) error {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		e := ErrInvalidPayload.Wrap(err)
		if len(ve.Fields) > 0 {
			e = e.WithDetails(map[string]any{"fields": ve.Fields})
		}
		return e
	}
	return ErrInvalidPayload.Wrap(err)
}
