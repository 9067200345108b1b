package internal

import (
	"net/http"
	"sync/atomic"
)

// ResponseWriter records what a pipeline wrote: the status, the body size and
// whether the header went out. Context.JSON relies on Written to write once.
type ResponseWriter struct {
	http.ResponseWriter
	status  atomic.Int32
	size    atomic.Int64
	written atomic.Bool
}

// NewResponseWriter wraps w. The status reads 200 until a header is written.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	rw := &ResponseWriter{ResponseWriter: w}
	rw.status.Store(http.StatusOK)
	return rw
}

// WriteHeader sends the status line. Later calls are ignored.
func (w *ResponseWriter) WriteHeader(code int) {
	if !w.written.CompareAndSwap(false, true) {
		return
	}
	w.status.Store(int32(code))
	w.ResponseWriter.WriteHeader(code)
}

// Write sends an implicit 200 header first if none was written.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	n, err := w.ResponseWriter.Write(b)
	w.size.Add(int64(n))
	return n, err
}

func (w *ResponseWriter) Status() int   { return int(w.status.Load()) }
func (w *ResponseWriter) Size() int64   { return w.size.Load() }
func (w *ResponseWriter) Written() bool { return w.written.Load() }

// Flush forwards to the wrapped writer when it can flush.
func (w *ResponseWriter) Flush() {
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// Unwrap lets http.ResponseController reach the wrapped writer, which is how
// hijacking and deadlines are reached.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
