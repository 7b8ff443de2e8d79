package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// DefaultClaimsLocalsKey is where the bearer middleware stores access claims
const DefaultClaimsLocalsKey = "user"

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the access claims in the given context
func WithClaimsContext(r context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the access claims from the standard context
func GetClaims(ctx context.Context) (*AccessClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*AccessClaims)
	return raw, ok && raw != nil
}

// GetFiberClaims extracts the access claims from fiber locals
func GetFiberClaims(c *fiber.Ctx, key string) (*AccessClaims, bool) {
	if key == "" {
		key = DefaultClaimsLocalsKey
	}
	claims, ok := c.Locals(key).(*AccessClaims)
	return claims, ok && claims != nil
}

// HasPermission reports whether the claims' role grants permission
func HasPermission(claims *AccessClaims, permission string) bool {
	if claims == nil {
		return false
	}
	for _, p := range UserRole(claims.UserRole).Permissions() {
		if p == permission {
			return true
		}
	}
	return false
}
