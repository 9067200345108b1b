package internal

// Handler declares routes on a router.
//
// Example:
//
//	type LabelsHandler struct {
//	    repo *repository.Repository
//	}
//
//	func (h *LabelsHandler) Routes(r atelier.Router) {
//	    r.GET("/api/labels", middlewares.ValidateQuery(listSchema), h.list)
//	    r.POST("/api/labels", middlewares.ValidateBody(labelSchema), h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// Result tells the composer what to do after a stage returns without error.
type Result uint8

const (
	// Continue runs the next stage.
	Continue Result = iota
	// Respond ends the pipeline. The stage has written the response.
	Respond
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Respond:
		return "respond"
	default:
		return "unknown"
	}
}

// Stage is one step of a route pipeline. It either lets the pipeline
// continue, ends it with a written response, or aborts it with an error.
//
// Example:
//
//	func loadLabel(repo *repository.Repository) atelier.Stage {
//	    return func(c atelier.Context) (atelier.Result, error) {
//	        label, err := repo.Label(c, id)
//	        if err != nil {
//	            return atelier.Continue, err
//	        }
//	        c.Set(labelKey{}, label)
//	        return atelier.Continue, nil
//	    }
//	}
type Stage func(c Context) (Result, error)

// HandlerFunc is the signature of a composed pipeline and of terminal handlers.
// Returning a non-nil error hands it to the central error handler.
type HandlerFunc func(c Context) error

// Middleware wraps every pipeline to add cross-cutting concerns.
// The next function it receives runs at most once per request; calling it
// again returns ErrNextCalledTwice.
//
// Example:
//
//	func Audit(next atelier.HandlerFunc) atelier.HandlerFunc {
//	    return func(c atelier.Context) error {
//	        err := next(c)
//	        c.Logger().InfoContext(c, "audited", "path", c.Request().URL.Path)
//	        return err
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler turns an error returned by a pipeline into a response.
type ErrorHandler func(c Context, err error)

// Terminal adapts a HandlerFunc into the final stage of a pipeline.
func Terminal(h HandlerFunc) Stage {
	return func(c Context) (Result, error) {
		if err := h(c); err != nil {
			return Respond, err
		}
		return Respond, nil
	}
}
