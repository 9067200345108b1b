package internal

import "strings"

// TokenSource reads a credential from the request. An empty string means the
// request does not carry one in that place.
type TokenSource func(Context) string

// FirstToken returns the value of the first source that yields one.
func FirstToken(c Context, sources ...TokenSource) string {
	for _, src := range sources {
		if v := src(c); v != "" {
			return v
		}
	}
	return ""
}

// CookieToken reads the cookie name. Unreadable cookies count as absent.
func CookieToken(name string) TokenSource {
	return func(c Context) string {
		v, err := c.Cookies().Get(name)
		if err != nil {
			return ""
		}
		return v
	}
}

// HeaderToken reads the raw value of header name.
func HeaderToken(name string) TokenSource {
	return func(c Context) string {
		return strings.TrimSpace(c.Header(name))
	}
}

// BearerToken reads "Authorization: Bearer <token>". The scheme is matched
// case-insensitively.
func BearerToken(c Context) string {
	scheme, tok, ok := strings.Cut(c.Header("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
