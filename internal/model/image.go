package model

import (
	"path"

	"github.com/dmitrymomot/atelier/pkg/cas"
)

// FilesPrefix is the URL prefix canonical asset files are served under.
const FilesPrefix = "/files"

// Image is a stored asset together with its labels.
type Image struct {
	cas.Asset
	Labels []Label `json:"labels"`
}

// PublicPath returns the URL a stored path is served at.
func PublicPath(storedPath string) string {
	return path.Join(FilesPrefix, storedPath)
}
