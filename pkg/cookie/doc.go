// Package cookie writes and reads HTTP cookies with shared attributes.
//
// A Manager is built once from Config, which is loaded from COOKIE_* variables,
// and every cookie it writes carries those attributes. A Jar binds the manager to a
// single request so handlers can use it without passing the writer around:
//
//	jar := cookies.Jar(w, r)
//	jar.Set("atelier_session", token, 24*time.Hour)
//	value, err := jar.Get("atelier_session")
//
// Values are stored verbatim. Integrity of the session cookie comes from the
// signed token it carries, see package token.
package cookie
