package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

type ctxKey string

// Context keys set by the auth interceptors. Handlers should read them via
// GetUserID and GetEmail; tests may set UserIDKey directly.
const (
	UserIDKey ctxKey = "user_id"
	EmailKey  ctxKey = "email"
)

const bearerPrefix = "bearer "

// GetUserID returns the authenticated user's ID, or "" for anonymous calls.
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

// GetEmail returns the authenticated user's email, or "".
func GetEmail(ctx context.Context) string {
	return stringValue(ctx, EmailKey)
}

// WithUser attaches an identity to ctx.
func WithUser(ctx context.Context, userID, email string) context.Context {
	return context.WithValue(context.WithValue(ctx, UserIDKey, userID), EmailKey, email)
}

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// RequireAuth rejects calls without a valid bearer token with
// CodeUnauthenticated. Procedures for which isPublic returns true skip the
// check; a nil isPublic protects everything.
func RequireAuth(jwtManager *auth.JWTManager, isPublic func(procedure string) bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublic != nil && isPublic(req.Spec().Procedure) {
				return next(ctx, req)
			}
			claims, err := verify(jwtManager, req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(WithUser(ctx, claims.UserID, claims.Email), req)
		}
	}
}

// verify parses an "Authorization: Bearer <token>" header value.
// The scheme is matched case-insensitively.
func verify(jwtManager *auth.JWTManager, header string) (*auth.Claims, error) {
	if header == "" {
		return nil, auth.ErrMissingToken
	}
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, auth.ErrInvalidToken
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsRune(token, ' ') {
		return nil, auth.ErrInvalidToken
	}
	return jwtManager.Validate(token)
}
