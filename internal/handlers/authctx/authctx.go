package authctx

import (
	"context"

	"github.com/esavelyev/staffpass/internal/service/auth/tokencodec"
)

type ctxKey string

const claimsKey ctxKey = "authclaims"

// Create a new context carrying the verified access claims
func New(ctx context.Context, claims tokencodec.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Extract the verified access claims from the context
func FromContext(ctx context.Context) (tokencodec.AccessClaims, bool) {
	c, ok := ctx.Value(claimsKey).(tokencodec.AccessClaims)
	return c, ok
}
