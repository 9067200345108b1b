// Package atelier is the request pipeline behind the atelier content API:
// programs of quiz, memory and puzzle tasks built on a shared image library.
//
// An App is a route table of stage pipelines plus the capabilities the
// stages share (database, token signer, schema compiler, cache and asset
// store). Everything is injected with options; there are no globals.
//
//	app := atelier.New(
//	    atelier.WithLogger(log),
//	    atelier.WithDB(database),
//	    atelier.WithTokens(signer),
//	    atelier.WithAssets(store),
//	    atelier.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Logging(),
//	        middlewares.Recover(),
//	    ),
//	    atelier.WithHealthChecks(
//	        atelier.WithReadinessCheck("db", db.Healthcheck(database)),
//	    ),
//	    atelier.WithHandlers(handlers.NewLabels(repo, compiler)),
//	)
//
//	err := app.Run(
//	    atelier.Address(":8080"),
//	    atelier.Timeouts(cfg.Lifecycle),
//	    atelier.ShutdownHook(db.Shutdown(database)),
//	)
//
// # Stages
//
// A route is an ordered list of stages. A stage returns Continue to hand the
// request on, Respond once it has written the response, or an error. Errors
// stop the pipeline and reach the ErrorHandler, which writes
// {"error": CODE, "message": text} with the status of the error's code.
//
// # Connections
//
// Run serves through a lifecycle manager: idle connections and requests that
// overrun RequestTimeout are destroyed, and shutdown drains in-flight requests
// for CloseTimeout before closing what remains.
package atelier
