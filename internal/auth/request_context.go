package auth

import (
	"context"
)

type contextKey string

var (
	claimsKey    contextKey = "admin_claims"
	requestIDKey contextKey = "request_id"
)

func SetClaims(ctx context.Context, claims *AdminClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns nil for unauthenticated requests.
func GetClaims(ctx context.Context) *AdminClaims {
	if claims, ok := ctx.Value(claimsKey).(*AdminClaims); ok {
		return claims
	}
	return nil
}

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
