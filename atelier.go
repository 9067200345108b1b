package atelier

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/atelier/internal"
	"github.com/dmitrymomot/atelier/pkg/cache"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/cookie"
	"github.com/dmitrymomot/atelier/pkg/db"
	"github.com/dmitrymomot/atelier/pkg/health"
	"github.com/dmitrymomot/atelier/pkg/lifecycle"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/schema"
	"github.com/dmitrymomot/atelier/pkg/token"
)

// Type aliases - public API
type (
	// App owns the route table and the shared capabilities.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Route is a registered descriptor: method, pattern and stages.
	Route = internal.Route

	// Context gives stages the request and the shared capabilities.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// Stage is one step of a route pipeline.
	Stage = internal.Stage

	// Result tells the pipeline whether to continue after a stage.
	Result = internal.Result

	// HandlerFunc is the signature of a composed pipeline.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps every pipeline to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler turns pipeline errors into responses.
	ErrorHandler = internal.ErrorHandler

	// Error is an API error with a code and a status.
	Error = internal.Error

	// SearchParams are the coerced query values of a request.
	SearchParams = internal.SearchParams

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// Hook is a startup or shutdown function passed to Run.
	Hook = internal.Hook

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// ResponseWriter records status and size of a response.
	ResponseWriter = internal.ResponseWriter

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor
)

// Stage results.
const (
	Continue = internal.Continue
	Respond  = internal.Respond
)

// API error taxonomy.
var (
	ErrInvalidPayload       = internal.ErrInvalidPayload
	ErrUnauthorized         = internal.ErrUnauthorized
	ErrForbidden            = internal.ErrForbidden
	ErrNotFound             = internal.ErrNotFound
	ErrDuplicateLabelName   = internal.ErrDuplicateLabelName
	ErrDuplicateEmail       = internal.ErrDuplicateEmail
	ErrDuplicateRelation    = internal.ErrDuplicateRelation
	ErrMissingEntity        = internal.ErrMissingEntity
	ErrDeleteRelation       = internal.ErrDeleteRelation
	ErrUnsupportedMediaType = internal.ErrUnsupportedMediaType
	ErrUnsupportedImageType = internal.ErrUnsupportedImageType
	ErrWrongFileField       = internal.ErrWrongFileField
	ErrHitFileSizeLimit     = internal.ErrHitFileSizeLimit
	ErrFileStream           = internal.ErrFileStream
	ErrFailedSerialization  = internal.ErrFailedSerialization
	ErrTooManyRequests      = internal.ErrTooManyRequests
	ErrInternal             = internal.ErrInternal
)

// Programming errors.
var (
	ErrEmptyPipeline    = internal.ErrEmptyPipeline
	ErrDuplicateRoute   = internal.ErrDuplicateRoute
	ErrNoResponse       = internal.ErrNoResponse
	ErrNextCalledTwice  = internal.ErrNextCalledTwice
	ErrAlreadyResponded = internal.ErrAlreadyResponded
)

// NotFoundRoute is the descriptor Dispatch returns when nothing matches.
var NotFoundRoute = internal.NotFoundRoute

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := atelier.New(
//	    atelier.WithLogger(log),
//	    atelier.WithDB(database),
//	    atelier.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    atelier.WithHandlers(handlers.NewLabels(repo, compiler)),
//	)
//
//	err := app.Run(atelier.Address(":8080"))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Compose validates stages once and returns the pipeline that runs them.
func Compose(stages ...Stage) (HandlerFunc, error) {
	return internal.Compose(stages...)
}

// Terminal adapts a HandlerFunc into the final stage of a pipeline.
func Terminal(h HandlerFunc) Stage {
	return internal.Terminal(h)
}

// HTTPStage adapts a plain http.Handler into a terminal stage.
func HTTPStage(h http.Handler) Stage {
	return internal.HTTPStage(h)
}

// HandleError is the default ErrorHandler.
func HandleError(c Context, err error) {
	internal.HandleError(c, err)
}

// AsError returns err as an *Error, falling back to INTERNAL_ERROR.
func AsError(err error) *Error {
	return internal.AsError(err)
}

// InvalidPayload maps a schema failure to INVALID_PAYLOAD with field details.
func InvalidPayload(err error) error {
	return internal.InvalidPayload(err)
}

// ParamID parses a positive numeric id parameter, or returns ErrNotFound.
func ParamID(c Context, name string) (int64, error) {
	return internal.ParamID(c, name)
}

// ContextValue returns the value stored under key with Set, or the zero value of T.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// App options

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithMount serves a plain http.Handler under pattern, outside the pipeline.
func WithMount(pattern string, h http.Handler) Option {
	return internal.WithMount(pattern, h)
}

// WithErrorHandler replaces HandleError.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithHealthChecks enables /health, /health/live and /health/ready.
//
// Example:
//
//	atelier.WithHealthChecks(
//	    atelier.WithReadinessCheck("db", db.Healthcheck(database)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithCookies sets the attributes of cookies written through Context.Cookies.
func WithCookies(cfg cookie.Config) Option {
	return internal.WithCookies(cfg)
}

// WithTokens sets the session token signer.
func WithTokens(s *token.Signer) Option {
	return internal.WithTokens(s)
}

// WithDB sets the database handle.
func WithDB(d *db.DB) Option {
	return internal.WithDB(d)
}

// WithSchemas sets the schema compiler.
func WithSchemas(c *schema.Compiler) Option {
	return internal.WithSchemas(c)
}

// WithCache sets the response cache.
func WithCache(l *cache.Loader[json.RawMessage]) Option {
	return internal.WithCache(l)
}

// WithAssets sets the content-addressable asset store.
func WithAssets(s *cas.Store) Option {
	return internal.WithAssets(s)
}

// WithMaxBodySize limits JSON request bodies.
func WithMaxBodySize(n int64) Option {
	return internal.WithMaxBodySize(n)
}

// Run options

// Address sets the HTTP server address.
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Listener serves on an existing listener instead of opening Address.
func Listener(ln net.Listener) RunOption {
	return internal.Listener(ln)
}

// Logger sets the logger used by the runtime.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// Timeouts sets the connection, request and close timeouts.
func Timeouts(cfg lifecycle.Config) RunOption {
	return internal.Timeouts(cfg)
}

// OnConnectionDestroyed observes sockets destroyed by a timeout.
func OnConnectionDestroyed(fn func(reason string)) RunOption {
	return internal.OnConnectionDestroyed(fn)
}

// ShutdownTimeout bounds the total time shutdown hooks may take.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn before the server accepts connections.
func StartupHook(fn Hook) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs fn after the server stopped, in registration order.
func ShutdownHook(fn Hook) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context whose cancellation stops the server.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}
