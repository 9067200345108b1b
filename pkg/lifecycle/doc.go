// Package lifecycle enforces socket-level timeouts on an http.Server.
//
// Three timers are independent of each other:
//
//   - the connection timer closes a socket that has been idle (no bytes
//     received and no request in flight) for ConnectionTimeout;
//   - the request timer destroys the socket of a request that has not
//     completed within RequestTimeout, without writing a response;
//   - the close timer bounds graceful shutdown, after which all remaining
//     sockets are destroyed.
//
// A timer firing affects only the connection it belongs to.
//
//	m := lifecycle.New(cfg, lifecycle.WithLogger(log))
//	srv := &http.Server{Handler: router}
//	m.Configure(srv)
//	go srv.Serve(m.Listener(ln))
//	...
//	err := m.Shutdown(ctx, srv)
package lifecycle
