package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is what the auth provider knows about a session's owner.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	Guest       bool
}

// Claims is the token payload. Authenticated tokens are minted by the
// identity provider; guest tokens are minted locally by IssueGuest.
type Claims struct {
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Guest       bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// Provider verifies bearer tokens and issues guest tokens. It is the only
// component that touches token material.
type Provider struct {
	secret   []byte
	guestTTL time.Duration
}

func NewProvider(secret string) *Provider {
	return &Provider{
		secret:   []byte(secret),
		guestTTL: 30 * 24 * time.Hour,
	}
}

// Verify parses and validates a token, returning the identity it carries.
func (p *Provider) Verify(tokenStr string) (Identity, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Guest:       claims.Guest,
	}, nil
}

// IssueGuest mints a token for a new guest session. Guest identities are
// local to the device that requested them.
func (p *Provider) IssueGuest() (string, Identity, error) {
	identity := Identity{
		UID:         "guest-" + uuid.NewString(),
		DisplayName: "Guest",
		Guest:       true,
	}

	claims := Claims{
		DisplayName: identity.DisplayName,
		Guest:       true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.guestTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("signing guest token: %w", err)
	}

	return token, identity, nil
}

type contextKey struct{}

// IdentityFromContext returns the request identity set by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// Middleware resolves the bearer token into a request identity. Requests
// without a valid token are rejected; session-dependent handlers can assume
// an identity is present.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		identity, err := p.Verify(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
