package internal

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route describes one endpoint: a method, a chi path pattern with fixed
// segments and {name} parameters, and the stages that serve it.
// Routes are created at registration and never change afterwards.
type Route struct {
	Method  string
	Pattern string
	Stages  []Stage
}

// NotFoundRoute serves every request no registered Route matches.
var NotFoundRoute = &Route{
	Method:  "*",
	Pattern: "*",
	Stages:  []Stage{notFound},
}

func notFound(Context) (Result, error) {
	return Continue, ErrNotFound
}

// Router is the interface handlers use to declare routes.
// The method helpers panic on invalid registrations (empty pipelines,
// duplicates) so mistakes surface when the App is built, not at request time.
type Router interface {
	// Register adds a route and reports invalid registrations as errors.
	Register(method, pattern string, stages ...Stage) error

	GET(pattern string, stages ...Stage)
	POST(pattern string, stages ...Stage)
	PUT(pattern string, stages ...Stage)
	PATCH(pattern string, stages ...Stage)
	DELETE(pattern string, stages ...Stage)

	// Route declares routes under a common pattern prefix.
	Route(prefix string, fn func(r Router))

	// Mount attaches a plain http.Handler below pattern, for static files
	// and probes that are not pipelines.
	Mount(pattern string, h http.Handler)
}

var supportedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

type routeKey struct {
	method  string
	pattern string
}

// Mux is the route table. Matching is delegated to chi; the table keeps the
// descriptors so Dispatch can answer which one a request resolves to.
type Mux struct {
	mux    *chi.Mux
	routes map[routeKey]*Route
	order  []*Route
	serve  func(route *Route, h HandlerFunc) http.Handler
}

func newMux(serve func(route *Route, h HandlerFunc) http.Handler) *Mux {
	m := &Mux{
		mux:    chi.NewRouter(),
		routes: make(map[routeKey]*Route),
		serve:  serve,
	}
	nf, _ := Compose(NotFoundRoute.Stages...)
	h := serve(NotFoundRoute, nf)
	m.mux.NotFound(h.ServeHTTP)
	m.mux.MethodNotAllowed(h.ServeHTTP)
	return m
}

// Register stores a descriptor and wires it into the route tree.
func (m *Mux) Register(method, pattern string, stages ...Stage) error {
	method = strings.ToUpper(method)
	if !slices.Contains(supportedMethods, method) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if !strings.HasPrefix(pattern, "/") || strings.Contains(pattern, "*") {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	key := routeKey{method: method, pattern: pattern}
	if _, ok := m.routes[key]; ok {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, pattern)
	}

	h, err := Compose(stages...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, pattern, err)
	}

	route := &Route{Method: method, Pattern: pattern, Stages: slices.Clone(stages)}
	m.routes[key] = route
	m.order = append(m.order, route)
	m.mux.Method(method, pattern, m.serve(route, h))
	return nil
}

// Dispatch returns the descriptor that serves method and path, or NotFoundRoute.
func (m *Mux) Dispatch(method, path string) *Route {
	method = strings.ToUpper(method)
	rctx := chi.NewRouteContext()
	if !m.mux.Match(rctx, method, path) {
		return NotFoundRoute
	}
	if route, ok := m.routes[routeKey{method: method, pattern: rctx.RoutePattern()}]; ok {
		return route
	}
	return NotFoundRoute
}

// Routes lists descriptors in registration order.
func (m *Mux) Routes() []*Route {
	return slices.Clone(m.order)
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

// group implements Router with a pattern prefix.
type group struct {
	mux    *Mux
	prefix string
}

func (g *group) Register(method, pattern string, stages ...Stage) error {
	return g.mux.Register(method, joinPattern(g.prefix, pattern), stages...)
}

func (g *group) GET(pattern string, stages ...Stage) {
	g.must(http.MethodGet, pattern, stages)
}

func (g *group) POST(pattern string, stages ...Stage) {
	g.must(http.MethodPost, pattern, stages)
}

func (g *group) PUT(pattern string, stages ...Stage) {
	g.must(http.MethodPut, pattern, stages)
}

func (g *group) PATCH(pattern string, stages ...Stage) {
	g.must(http.MethodPatch, pattern, stages)
}

func (g *group) DELETE(pattern string, stages ...Stage) {
	g.must(http.MethodDelete, pattern, stages)
}

func (g *group) Route(prefix string, fn func(Router)) {
	fn(&group{mux: g.mux, prefix: joinPattern(g.prefix, prefix)})
}

func (g *group) Mount(pattern string, h http.Handler) {
	g.mux.mux.Mount(joinPattern(g.prefix, pattern), h)
}

func (g *group) must(method, pattern string, stages []Stage) {
	if err := g.Register(method, pattern, stages...); err != nil {
		panic(err)
	}
}

func joinPattern(prefix, pattern string) string {
	if prefix == "" {
		return pattern
	}
	if pattern == "" || pattern == "/" {
		return prefix
	}
	return strings.TrimSuffix(prefix, "/") + pattern
}
