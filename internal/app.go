package internal

import (
	"net/http"

	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

const defaultMaxBodySize int64 = 1 << 20

// App holds the route table and the shared services each request context
// hands out. Options apply in New; nothing changes afterwards.
type App struct {
	services

	mux          *Mux
	errorHandler ErrorHandler
	maxBodySize int64
	middlewares []Middleware
	health      *healthRoutes
	handlers    []Handler
	mounts      map[string]http.Handler
}

// New applies opts and registers every route. Invalid registrations, such
// as an empty pipeline or a repeated method and pattern, panic.
//
//	app := atelier.New(
//	    atelier.WithLogger(log),
//	    atelier.WithDB(database),
//	    atelier.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    atelier.WithHandlers(handlers.NewLabels(repo, schemas)),
//	)
func New(opts ...Option) *App {
	a := &App{
		services: services{
			logger:  logger.NewNope(),
			cookies: cookie.New(cookie.Config{Secure: true}),
			schemas: schema.NewCompiler(),
		},
		errorHandler: HandleError,
		maxBodySize:  defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux = newMux(a.serve)
	for pattern, h := range a.mounts {
		a.mux.mux.Mount(pattern, h)
	}
	r := &group{mux: a.mux}
	if a.health != nil {
		a.health.log = a.logger
		a.health.Routes(r)
	}
	for _, h := range a.handlers {
		h.Routes(r)
	}
	return a
}

// Handler returns the root http.Handler.
func (a *App) Handler() http.Handler { return a.mux }

// Dispatch reports which route serves method and path.
func (a *App) Dispatch(method, path string) *Route { return a.mux.Dispatch(method, path) }

// Routes lists the registered routes in registration order.
func (a *App) Routes() []*Route { return a.mux.Routes() }

// serve wraps a composed pipeline in the global middlewares and adapts it to
// http.Handler. Each request gets a fresh Context. Returned errors and
// panics that escaped Recover both reach the error handler.
func (a *App) serve(route *Route, h HandlerFunc) http.Handler {
	h = Chain(h, a.middlewares...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a, route)
		defer func() {
			p := recover()
			switch {
			case p == nil:
			case p == http.ErrAbortHandler:
				panic(p)
			default:
				a.errorHandler(c, &panicError{value: p})
			}
		}()
		if err := h(c); err != nil {
			a.errorHandler(c, err)
		}
	})
}

// HTTPStage turns h into a terminal stage.
func HTTPStage(h http.Handler) Stage {
	return func(c Context) (Result, error) {
		h.ServeHTTP(c.Response(), c.Request())
		return Respond, nil
	}
}
