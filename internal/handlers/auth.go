package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/consulatcore/scheduling/libs/auth"
)

type claimsKey struct{}

// ClaimsFromContext returns the verified staff claims, nil outside a
// protected handler.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

var staffRoles = map[string]bool{
	"agent":   true,
	"manager": true,
	"admin":   true,
}

// TokenVerifier checks bearer tokens: RS256 through the JWKS cache when the
// token header names a key id, HS256 with the shared secret otherwise.
type TokenVerifier struct {
	secret string
	jwks   *auth.JWKSClient
}

func NewTokenVerifier(secret string, jwks *auth.JWKSClient) *TokenVerifier {
	return &TokenVerifier{secret: secret, jwks: jwks}
}

func (v *TokenVerifier) verify(token string) (*auth.Claims, error) {
	if v.jwks != nil {
		header, err := auth.ParseHeader(token)
		if err != nil {
			return nil, err
		}
		if header.Alg == "RS256" && header.Kid != "" {
			pub, err := v.jwks.Get(header.Kid)
			if err != nil {
				return nil, err
			}
			return auth.VerifyRS256(token, pub)
		}
	}
	return auth.ParseAndVerifyHS256(token, v.secret)
}

// RequireStaff admits org staff roles only and puts the claims in the request
// context for org scoping inside the handler.
func (v *TokenVerifier) RequireStaff(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := v.verify(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if !staffRoles[claims.Role] {
			http.Error(w, "staff role required", http.StatusForbidden)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	}
}
