// Package handlers declares the routes of the atelier JSON API.
//
// Each handler receives its dependencies through its constructor and
// registers stage pipelines on the Router: authentication and validation
// stages first, the stage that talks to the repository last. Repository,
// asset store and model errors are translated to the API error taxonomy in
// errors.go before they reach the error handler.
package handlers
