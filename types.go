package auth

import (
	"context"
	"fmt"
)

// Logger is the logging contract used across the package. Arguments after
// the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PasswordHasher hashes and verifies password secrets
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// UserFinder resolves stored users for the login, refresh and verify flows
type UserFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// TokenIssuer mints and checks the two token variants
type TokenIssuer interface {
	Issue(claims TokenClaims, variant TokenVariant) (string, error)
	Verify(token string, variant TokenVariant) (TokenClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { d.print("[ERR]", msg, args) }

func (d defLogger) Warn(msg string, args ...any) { d.print("[WRN]", msg, args) }

func (d defLogger) Info(msg string, args ...any) { d.print("[INF]", msg, args) }

func (d defLogger) Debug(msg string, args ...any) { d.print("[DBG]", msg, args) }

func (d defLogger) print(level, msg string, args []any) {
	line := append([]any{level, "AUTH", msg}, args...)
	fmt.Println(line...)
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
