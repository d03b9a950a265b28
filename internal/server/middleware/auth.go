// Package middleware provides HTTP middleware for bearer token authentication.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	operatorKey ContextKey = "operator"
	claimsKey   ContextKey = "claims"
)

// ErrNoOperator is returned when a request carries no authenticated operator.
var ErrNoOperator = errors.New("operator not found in request context")

// SubjectGetter exposes the subject claim of a validated token.
// jwt.RegisteredClaims satisfies it.
type SubjectGetter interface {
	GetSubject() (string, error)
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (SubjectGetter, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token subject (the operator name) in the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w)
				return
			}
			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, subject)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Operator returns the authenticated operator of the request.
func Operator(r *http.Request) (string, error) {
	op, ok := r.Context().Value(operatorKey).(string)
	if !ok || op == "" {
		return "", ErrNoOperator
	}
	return op, nil
}

// Claims returns the validated token claims of the request.
func Claims(r *http.Request) (SubjectGetter, bool) {
	claims, ok := r.Context().Value(claimsKey).(SubjectGetter)
	return claims, ok
}

// WithOperator returns ctx carrying operator, as AuthMiddleware would set it.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// bearerToken parses "Bearer <token>" with a case-insensitive scheme.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="demand-synthesis-agent"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
