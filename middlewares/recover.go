package middlewares

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/atelier/internal"
)

// DefaultStackSize caps the stack captured for a recovered panic.
const DefaultStackSize = 4096

// PanicError is what a stage panic turns into once Recover caught it.
type PanicError struct {
	Value any
	Stack []byte // nil when stack capture is off
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// AsPanicError finds a PanicError in err's chain.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	stackSize int
}

// WithStackSize sets how many bytes of stack are captured. Zero turns
// capture off.
func WithStackSize(n int) RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.stackSize = max(n, 0)
	}
}

// Recover turns panics in later stages into a *PanicError, which the error
// handler reports as INTERNAL_ERROR. The panic is logged with its stack.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				pe := &PanicError{Value: r}
				attrs := []any{slog.Any("panic", r)}
				if cfg.stackSize > 0 {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				c.Logger().ErrorContext(c, "panic recovered", attrs...)
				err = pe
			}()
			return next(c)
		}
	}
}
