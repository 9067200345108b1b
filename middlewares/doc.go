// Package middlewares provides the cross-cutting pieces of the atelier request
// pipeline.
//
// Global wrappers have the Middleware form and are installed once on the App:
//
//	metrics := middlewares.NewMetrics("atelier")
//	app := atelier.New(
//	    atelier.WithLogger(logger.New(cfg, middlewares.RequestIDExtractor(), middlewares.UserIDExtractor())),
//	    atelier.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Logging(),
//	        metrics.Middleware(),
//	        middlewares.Recover(),
//	    ),
//	)
//
// RequestID reuses an incoming X-Request-ID (or X-Correlation-ID) or generates
// a UUIDv7. Logging writes one line per request; failed requests are logged
// with the status the error handler writes. Recover turns panics into a
// PanicError, which the error handler reports as INTERNAL_ERROR.
//
// Per-route checks are stages and run in registration order:
//
//	r.POST("/api/auth/login", limiter.Stage(), middlewares.ValidateBody(loginSchema), h.login)
//	r.GET("/api/users", middlewares.Authenticate(), middlewares.RequireRole("admin"), h.list)
//
// Authenticate reads the session token from the atelier_session cookie or a
// Bearer header and verifies it with the App's token signer.
package middlewares
