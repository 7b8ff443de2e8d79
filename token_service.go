package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenConfig holds the signing material and lifetimes for both variants
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenServiceOption configures a TokenService
type TokenServiceOption func(*TokenService)

// WithTokenClock overrides the time source used for iat, exp and validation
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		ts.logger = normalizeLogger(logger)
	}
}

type variantPolicy struct {
	secret []byte
	ttl    time.Duration
}

// TokenService issues and verifies HS256 access and refresh tokens
type TokenService struct {
	policies map[TokenVariant]variantPolicy
	issuer   string
	now      func() time.Time
	logger   Logger
}

var _ TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, opts ...TokenServiceOption) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty", errors.CategoryValidation)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ", errors.CategoryValidation)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive", errors.CategoryValidation)
	}

	ts := &TokenService{
		policies: map[TokenVariant]variantPolicy{
			AccessToken:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			RefreshToken: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		},
		issuer: cfg.Issuer,
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// TTL returns the lifetime configured for variant
func (ts *TokenService) TTL(variant TokenVariant) time.Duration {
	return ts.policies[variant].ttl
}

// Issue signs claims with the secret and lifetime of variant.
// The caller's claims are not modified.
func (ts *TokenService) Issue(claims TokenClaims, variant TokenVariant) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	policy, ok := ts.policies[variant]
	if !ok {
		return "", errors.New(fmt.Sprintf("unknown token variant %q", variant), errors.CategoryInternal)
	}

	if variantOf(claims) != variant {
		return "", ErrTokenVariantMismatch
	}

	signed := claims.clone()
	signed.setVariant(variant)

	now := ts.now()
	rc := signed.registered()
	rc.Subject = signed.UserID()
	rc.Issuer = ts.issuer
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.ExpiresAt = jwt.NewNumericDate(now.Add(policy.ttl))
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, signed)

	signedString, err := token.SignedString(policy.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses tokenString as variant and returns *AccessClaims or *RefreshClaims.
// A correctly signed token past its expiry yields ErrTokenExpired, any other
// failure yields an error carrying the ErrTokenInvalid text code.
func (ts *TokenService) Verify(tokenString string, variant TokenVariant) (TokenClaims, error) {
	policy, ok := ts.policies[variant]
	if !ok {
		return nil, invalidToken(fmt.Errorf("unknown token variant %q", variant))
	}

	var claims TokenClaims
	switch variant {
	case AccessToken:
		claims = &AccessClaims{}
	default:
		claims = &RefreshClaims{}
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Warn("token verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return policy.secret, nil
	}, parserOptions...)

	if err != nil {
		// signatures are checked before claims, so an expiry error implies a valid signature
		if stderrors.Is(err, jwt.ErrTokenExpired) && !stderrors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token verify failed", "variant", variant, "error", err)
		return nil, invalidToken(err)
	}

	if !token.Valid {
		return nil, invalidToken(stderrors.New("token not valid"))
	}

	if claims.Variant() != variant {
		return nil, invalidToken(fmt.Errorf("expected %s token, got %q", variant, claims.Variant()))
	}

	if claims.UserID() == "" {
		return nil, invalidToken(stderrors.New("token has no subject"))
	}

	return claims, nil
}

func invalidToken(err error) error {
	return errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
		WithTextCode(ErrTokenInvalid.TextCode).
		WithCode(ErrTokenInvalid.Code)
}
