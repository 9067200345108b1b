package cookie

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

var ErrNotFound = errors.New("cookie: not found")

// Config holds the attributes shared by every cookie the application writes.
// Cookies are always HttpOnly; nothing client-side reads them.
type Config struct {
	Domain   string `env:"COOKIE_DOMAIN"`
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	SameSite string `env:"COOKIE_SAMESITE" envDefault:"lax"`
}

// sameSite maps the configured name onto http.SameSite. Unknown names fall
// back to Lax.
func (c Config) sameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Manager writes cookies with the attributes of one Config.
type Manager struct {
	template http.Cookie
}

// New builds a Manager for cfg. An empty path means "/".
func New(cfg Config) *Manager {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	return &Manager{template: http.Cookie{
		Path:     path,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.sameSite(),
	}}
}

// Jar binds m to one request/response pair.
func (m *Manager) Jar(w http.ResponseWriter, r *http.Request) *Jar {
	return &Jar{m: m, w: w, r: r}
}

func (m *Manager) write(w http.ResponseWriter, name, value string, maxAge int) {
	c := m.template
	c.Name, c.Value, c.MaxAge = name, value, maxAge
	http.SetCookie(w, &c)
}

// Jar is the per-request cookie view exposed on the request context.
type Jar struct {
	m *Manager
	w http.ResponseWriter
	r *http.Request
}

// Get returns the value of cookie name, or ErrNotFound.
func (j *Jar) Get(name string) (string, error) {
	c, err := j.r.Cookie(name)
	switch {
	case errors.Is(err, http.ErrNoCookie):
		return "", ErrNotFound
	case err != nil:
		return "", err
	}
	return c.Value, nil
}

// Set writes cookie name. A ttl under one second makes it a session cookie.
func (j *Jar) Set(name, value string, ttl time.Duration) {
	j.m.write(j.w, name, value, int(ttl/time.Second))
}

// Delete tells the client to drop cookie name.
func (j *Jar) Delete(name string) {
	j.m.write(j.w, name, "", -1)
}
