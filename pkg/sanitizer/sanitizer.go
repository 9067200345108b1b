// Package sanitizer cleans user-supplied text before it is stored.
package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer holds compiled bluemonday policies. It is safe for concurrent use.
type Sanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

// New builds the plain-text and rich-text policies.
func New() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowStandardURLs()
	rich.AllowElements(
		"p", "br",
		"strong", "b", "em", "i",
		"ul", "ol", "li",
		"code", "pre", "blockquote",
	)
	rich.AllowAttrs("href").OnElements("a")
	rich.RequireNoFollowOnLinks(true)

	return &Sanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// Text strips every tag and returns trimmed plain text. Entities produced by
// the policy are decoded again, so "Tom & Jerry" round-trips unchanged.
func (s *Sanitizer) Text(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(in)))
}

// RichText keeps basic formatting tags and drops everything else, including
// scripts, event handlers and javascript: URLs.
func (s *Sanitizer) RichText(in string) string {
	return strings.TrimSpace(s.rich.Sanitize(in))
}

// TextPtr applies Text to an optional value.
func (s *Sanitizer) TextPtr(in *string) *string {
	if in == nil {
		return nil
	}
	out := s.Text(*in)
	return &out
}
