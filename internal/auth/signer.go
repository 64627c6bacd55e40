// Package auth issues, verifies and rotates access/refresh token pairs.
package auth

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload of both token kinds. Profile fields are only
// embedded in access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

var errEmptySecret = errors.New("empty signing secret")

// Signer signs and verifies HS256 tokens with one secret and one lifetime.
type Signer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSigner constructs a Signer. now may be nil to use the wall clock.
func NewSigner(secret []byte, ttl time.Duration, issuer string, now func() time.Time) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: secret, ttl: ttl, issuer: issuer, now: now}, nil
}

// Sign fills the registered claims (sub, iss, iat, exp, jti) and returns the
// signed token with its expiry.
func (s *Signer) Sign(subject uuid.UUID, c Claims) (string, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now()
	exp := now.Add(s.ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   subject.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm, issuer and expiry (no leeway).
// Every failure is reported as the same error.
func (s *Signer) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return s.secret, nil }, opts...)
	if err != nil || !tok.Valid {
		return nil, errInvalidToken
	}
	return &claims, nil
}

var errInvalidToken = errors.New("invalid token")
