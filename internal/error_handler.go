package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/atelier/pkg/logger"
)

// errorBody is the only shape API errors are sent in.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// serializationFailure is written verbatim when an error body cannot be encoded.
var serializationFailure = mustMarshal(errorBody{
	Error:   ErrFailedSerialization.Code,
	Message: ErrFailedSerialization.Message(),
})

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return append(data, '\n')
}

// HandleError is the default ErrorHandler. Typed errors are written with
// their own status and code; anything else becomes INTERNAL_ERROR without
// exposing its text. If the response is already started it only logs.
// It never panics.
func HandleError(c Context, err error) {
	log := c.Logger()
	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(c, "error handler panicked", slog.Any("panic", p), logger.Err(err))
		}
	}()

	if c.Written() {
		log.WarnContext(c, "error after response was written", logger.Err(err))
		return
	}

	e := AsError(err)
	if e.Status >= http.StatusInternalServerError {
		log.ErrorContext(c, "request failed", slog.String("code", e.Code), logger.Err(err))
	} else {
		log.DebugContext(c, "request rejected", slog.String("code", e.Code), logger.Err(err))
	}

	jerr := c.JSON(e.Status, errorBody{Error: e.Code, Message: e.Message(), Details: e.Details})
	if jerr == nil || errors.Is(jerr, ErrAlreadyResponded) {
		return
	}
	if errors.Is(jerr, ErrFailedSerialization) {
		log.ErrorContext(c, "failed to serialize error body", logger.Err(jerr))
		writeRaw(c.Response(), http.StatusInternalServerError, serializationFailure)
		return
	}
	log.WarnContext(c, "failed to write error body", logger.Err(jerr))
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// panicError carries a value recovered by the App when no Recover
// middleware caught it first.
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
