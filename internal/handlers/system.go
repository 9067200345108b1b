package handlers

import (
	"net/http"

	"github.com/dmitrymomot/atelier"
)

// System exposes operational endpoints that are not part of the API.
type System struct {
	metrics http.Handler
}

// NewSystem creates the handler. A nil metrics handler leaves /metrics unregistered.
func NewSystem(metrics http.Handler) *System {
	return &System{metrics: metrics}
}

// Routes implements atelier.Handler.
func (h *System) Routes(r atelier.Router) {
	if h.metrics != nil {
		r.GET("/metrics", atelier.HTTPStage(h.metrics))
	}
}
