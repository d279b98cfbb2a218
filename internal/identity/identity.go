// Package identity maps opaque caller credentials to an authenticated
// principal. User registration and credential storage live outside this
// service; tokens arrive already issued.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleStaff:
		return true
	}
	return false
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Resolver verifies HMAC-signed bearer tokens.
type Resolver struct {
	secret []byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// Resolve validates a token and extracts the caller. Any parse,
// signature, expiry, or claim problem collapses to ErrUnauthenticated;
// callers get no oracle about which check failed.
func (r *Resolver) Resolve(tokenString string) (*Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	role := Role(c.Role)
	if !role.Valid() {
		return nil, ErrUnauthenticated
	}

	return &Principal{UserID: userID, Role: role}, nil
}

// Issue signs a token for a principal. Used by tooling and tests; the
// production issuer is the identity collaborator, not this service.
func (r *Resolver) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

type contextKey struct{}

// WithPrincipal stores the caller in the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext retrieves the caller placed by the auth middleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok
}
