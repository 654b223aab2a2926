package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the signed claim set of a session token: subject is the
// account UID, plus an email claim, issued-at and expiry.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionTokenCodec issues and validates HS256-signed session tokens. The
// signing key is injected at construction; there is no ambient key state, so
// tests can run with isolated keys.
type SessionTokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokenCodec(secret string, ttl time.Duration) *SessionTokenCodec {
	return &SessionTokenCodec{secret: []byte(secret), ttl: ttl}
}

func (c *SessionTokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the account with expiry now + TTL. The signature
// covers the full claim set.
func (c *SessionTokenCodec) Issue(accountUID, email string, now time.Time) (string, error) {
	claims := &SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Validate verifies the signature before trusting any claim, then checks
// expiry and parses the subject as an account UID. Every failure collapses
// to ErrInvalidToken so callers cannot distinguish forged from expired from
// malformed tokens.
func (c *SessionTokenCodec) Validate(tokenString string, now time.Time) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
