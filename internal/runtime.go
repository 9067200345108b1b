package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/atelier/pkg/lifecycle"
	"github.com/dmitrymomot/atelier/pkg/logger"
)

const (
	readHeaderTimeout  = 5 * time.Second
	maxHeaderBytes     = 1 << 20
	defaultHookTimeout = 30 * time.Second
)

// Hook runs at startup or shutdown of Run.
type Hook = func(context.Context) error

// RunOption configures Run.
type RunOption func(*server)

type server struct {
	address     string
	listener    net.Listener
	base        context.Context
	log         *slog.Logger
	timeouts    lifecycle.Config
	observer    func(reason string)
	hookTimeout time.Duration
	startup     []Hook
	shutdown    []Hook
}

// Address is where Run listens unless Listener is given. Default ":8080".
func Address(addr string) RunOption {
	return func(s *server) {
		if addr != "" {
			s.address = addr
		}
	}
}

// Listener serves on ln instead of opening Address.
func Listener(ln net.Listener) RunOption {
	return func(s *server) { s.listener = ln }
}

// Logger replaces the App logger for server events.
func Logger(l *slog.Logger) RunOption {
	return func(s *server) {
		if l != nil {
			s.log = l
		}
	}
}

// Timeouts sets the idle, request and drain budgets. A zero field turns that
// timer off.
func Timeouts(cfg lifecycle.Config) RunOption {
	return func(s *server) { s.timeouts = cfg }
}

// OnConnectionDestroyed is told the reason each time a socket is killed by
// a timeout.
func OnConnectionDestroyed(fn func(reason string)) RunOption {
	return func(s *server) { s.observer = fn }
}

// ShutdownTimeout bounds the shutdown hooks together. Default 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(s *server) {
		if d > 0 {
			s.hookTimeout = d
		}
	}
}

// StartupHook runs fn after the socket is bound and before serving. Its
// context ends when shutdown begins, so background loops may keep it.
func StartupHook(fn Hook) RunOption {
	return func(s *server) {
		if fn != nil {
			s.startup = append(s.startup, fn)
		}
	}
}

// ShutdownHook runs fn once the server has drained. Hooks run in
// registration order and all of them run even if one fails.
//
//	atelier.ShutdownHook(db.Shutdown(database))
func ShutdownHook(fn Hook) RunOption {
	return func(s *server) {
		if fn != nil {
			s.shutdown = append(s.shutdown, fn)
		}
	}
}

// WithContext sets the parent of the signal context. Canceling it stops the
// server like SIGTERM would.
func WithContext(ctx context.Context) RunOption {
	return func(s *server) {
		if ctx != nil {
			s.base = ctx
		}
	}
}

// Run serves the App until SIGINT, SIGTERM or the end of the WithContext
// context. A lifecycle.Manager owns the sockets: idle connections and hung
// requests are destroyed, and shutdown drains for CloseTimeout before the
// rest are cut. Shutdown hooks run afterwards.
//
//	err := app.Run(
//	    atelier.Address(":8080"),
//	    atelier.Timeouts(cfg.Lifecycle),
//	    atelier.StartupHook(sweeper.Start),
//	    atelier.ShutdownHook(db.Shutdown(database)),
//	)
func (a *App) Run(opts ...RunOption) error {
	s := &server{
		address:     ":8080",
		base:        context.Background(),
		log:         a.logger,
		timeouts:    lifecycle.Config{ConnectionTimeout: 60 * time.Second, RequestTimeout: 30 * time.Second, CloseTimeout: 10 * time.Second},
		hookTimeout: defaultHookTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewNope()
	}
	return s.run(a.Handler())
}

func (s *server) run(handler http.Handler) error {
	ctx, stop := signal.NotifyContext(s.base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln := s.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.address); err != nil {
			return err
		}
	}
	for _, hook := range s.startup {
		if err := hook(ctx); err != nil {
			_ = ln.Close()
			return err
		}
	}

	manager := lifecycle.New(s.timeouts, lifecycle.WithLogger(s.log), lifecycle.WithObserver(s.observer))
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	manager.Configure(srv)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(manager.Listener(ln)); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")
		return manager.Shutdown(context.Background(), srv)
	})
	err := g.Wait()

	hookCtx, cancel := context.WithTimeout(context.Background(), s.hookTimeout)
	defer cancel()
	errs := []error{err}
	for _, hook := range s.shutdown {
		if herr := hook(hookCtx); herr != nil {
			s.log.Error("shutdown hook failed", logger.Err(herr))
			errs = append(errs, herr)
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error("shutdown completed with errors", logger.Err(err))
		return err
	}
	s.log.Info("shutdown completed")
	return nil
}
