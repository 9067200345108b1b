// Package token signs and verifies session tokens.
//
// Tokens are HS256 JWTs built with [github.com/golang-jwt/jwt/v5]. The rest of
// the application treats them as an opaque sign/verify capability: Sign turns
// Claims into a string, Verify turns a string back into Claims or fails.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const MinSecretLength = 32

var (
	ErrShortSecret = errors.New("token: secret must be at least 32 bytes")
	ErrSign        = errors.New("token: failed to sign")
	ErrInvalid     = errors.New("token: invalid token")
	ErrExpired     = errors.New("token: token expired")
)

// Config is read from the environment.
type Config struct {
	Secret string        `env:"TOKEN_SECRET,required"`
	TTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	Issuer string        `env:"TOKEN_ISSUER" envDefault:"atelier"`
}

// Claims identify a session.
type Claims struct {
	UserID int64  `json:"-"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Signer is safe for concurrent use.
type Signer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Signer from cfg.
func New(cfg Config, opts ...Option) (*Signer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	s := &Signer{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign issues a token for userID with role.
func (s *Signer) Sign(userID int64, role string) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrSign, err)
	}
	return signed, nil
}

// Verify parses raw and checks signature, issuer and expiry.
func (s *Signer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, errors.Join(ErrInvalid, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalid
	}
	claims.UserID = id
	return claims, nil
}
