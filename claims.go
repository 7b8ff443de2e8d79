package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVariant identifies the kind of token being issued or verified
type TokenVariant string

const (
	// AccessToken is short lived and authorizes API calls
	AccessToken TokenVariant = "access"
	// RefreshToken is long lived and only mints new access tokens
	RefreshToken TokenVariant = "refresh"
)

func (v TokenVariant) String() string {
	return string(v)
}

// Valid reports whether v is a known variant
func (v TokenVariant) Valid() bool {
	return v == AccessToken || v == RefreshToken
}

// TokenClaims is implemented by the claim sets of both token variants.
type TokenClaims interface {
	jwt.Claims
	UserID() string
	Role() string
	Variant() TokenVariant
	Expires() time.Time
	IssuedAt() time.Time

	registered() *jwt.RegisteredClaims
	setVariant(TokenVariant)
	clone() TokenClaims
}

// AccessClaims carries identity and display data for API calls
type AccessClaims struct {
	jwt.RegisteredClaims
	UID      string       `json:"id"`
	UserRole string       `json:"role"`
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Type     TokenVariant `json:"typ"`
}

// RefreshClaims is deliberately minimal, id and role only
type RefreshClaims struct {
	jwt.RegisteredClaims
	UID      string       `json:"id"`
	UserRole string       `json:"role"`
	Type     TokenVariant `json:"typ"`
}

var (
	_ TokenClaims = (*AccessClaims)(nil)
	_ TokenClaims = (*RefreshClaims)(nil)
)

// NewAccessClaims builds the access claim set for user
func NewAccessClaims(user *User) *AccessClaims {
	return &AccessClaims{
		UID:      user.ID.String(),
		UserRole: string(user.Role),
		FullName: user.FullName,
		Email:    user.Email,
	}
}

// NewRefreshClaims builds the refresh claim set for user
func NewRefreshClaims(user *User) *RefreshClaims {
	return &RefreshClaims{
		UID:      user.ID.String(),
		UserRole: string(user.Role),
	}
}

func (c *AccessClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

func (c *AccessClaims) Role() string { return c.UserRole }
func (c *AccessClaims) Variant() TokenVariant { return c.Type }
func (c *AccessClaims) Expires() time.Time { return numericTime(c.ExpiresAt) }
func (c *AccessClaims) IssuedAt() time.Time { return numericTime(c.RegisteredClaims.IssuedAt) }
func (c *AccessClaims) setVariant(v TokenVariant) { c.Type = v }

func (c *AccessClaims) registered() *jwt.RegisteredClaims {
	return &c.RegisteredClaims
}

func (c *AccessClaims) clone() TokenClaims {
	cp := *c
	return &cp
}

func (c *RefreshClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject
}

func (c *RefreshClaims) Role() string { return c.UserRole }
func (c *RefreshClaims) Variant() TokenVariant { return c.Type }
func (c *RefreshClaims) Expires() time.Time { return numericTime(c.ExpiresAt) }
func (c *RefreshClaims) IssuedAt() time.Time { return numericTime(c.RegisteredClaims.IssuedAt) }
func (c *RefreshClaims) setVariant(v TokenVariant) { c.Type = v }

func (c *RefreshClaims) registered() *jwt.RegisteredClaims {
	return &c.RegisteredClaims
}

func (c *RefreshClaims) clone() TokenClaims {
	cp := *c
	return &cp
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func variantOf(claims TokenClaims) TokenVariant {
	switch claims.(type) {
	case *AccessClaims:
		return AccessToken
	case *RefreshClaims:
		return RefreshToken
	}
	return ""
}
