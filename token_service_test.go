package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-uav-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
	testIssuer        = "uav-training"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func testTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        testIssuer,
	}
}

func newTestTokenService(t *testing.T, clock *fakeClock) *auth.TokenService {
	t.Helper()
	opts := []auth.TokenServiceOption{}
	if clock != nil {
		opts = append(opts, auth.WithTokenClock(clock.Now))
	}
	ts, err := auth.NewTokenService(testTokenConfig(), opts...)
	require.NoError(t, err)
	return ts
}

func newTestUser(role auth.UserRole) *auth.User {
	return &auth.User{
		ID:       uuid.MustParse("8a7d1c52-3a0e-4c9b-9a3e-6f1f0b2c4d5e"),
		Phone:    "0912345678",
		Email:    "pilot@example.com",
		FullName: "Nguyen Van A",
		Role:     role,
		IsActive: true,
	}
}

func TestNewTokenService_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.TokenConfig)
	}{
		{"empty access secret", func(c *auth.TokenConfig) { c.AccessSecret = "" }},
		{"empty refresh secret", func(c *auth.TokenConfig) { c.RefreshSecret = "" }},
		{"identical secrets", func(c *auth.TokenConfig) { c.RefreshSecret = c.AccessSecret }},
		{"zero access ttl", func(c *auth.TokenConfig) { c.AccessTTL = 0 }},
		{"negative refresh ttl", func(c *auth.TokenConfig) { c.RefreshTTL = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tt.mutate(&cfg)
			ts, err := auth.NewTokenService(cfg)
			assert.Error(t, err)
			assert.Nil(t, ts)
		})
	}
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, clock)
	user := newTestUser(auth.RoleStudent)

	token, err := ts.Issue(auth.NewAccessClaims(user), auth.AccessToken)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Verify(token, auth.AccessToken)
	require.NoError(t, err)

	ac, ok := claims.(*auth.AccessClaims)
	require.True(t, ok, "expected *AccessClaims, got %T", claims)

	assert.Equal(t, user.ID.String(), ac.UserID())
	assert.Equal(t, user.ID.String(), ac.Subject)
	assert.Equal(t, "student", ac.Role())
	assert.Equal(t, user.FullName, ac.FullName)
	assert.Equal(t, user.Email, ac.Email)
	assert.Equal(t, auth.AccessToken, ac.Variant())
	assert.Equal(t, testIssuer, ac.Issuer)
	assert.NotEmpty(t, ac.ID)
	assert.WithinDuration(t, clock.now, ac.IssuedAt(), 0)
	assert.WithinDuration(t, clock.now.Add(time.Hour), ac.Expires(), 0)
}

func TestTokenService_RefreshClaimsAreMinimal(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())
	user := newTestUser(auth.RoleAdmin)

	token, err := ts.Issue(auth.NewRefreshClaims(user), auth.RefreshToken)
	require.NoError(t, err)

	claims, err := ts.Verify(token, auth.RefreshToken)
	require.NoError(t, err)

	rc, ok := claims.(*auth.RefreshClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID.String(), rc.UserID())
	assert.Equal(t, "admin", rc.Role())

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	raw := parsed.Claims.(jwt.MapClaims)
	assert.NotContains(t, raw, "email")
	assert.NotContains(t, raw, "fullName")
	assert.Equal(t, "refresh", raw["typ"])
}

func TestTokenService_IssueDoesNotMutateClaims(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())
	claims := auth.NewAccessClaims(newTestUser(auth.RoleStudent))

	_, err := ts.Issue(claims, auth.AccessToken)
	require.NoError(t, err)

	assert.Nil(t, claims.ExpiresAt)
	assert.Empty(t, claims.Type)
}

func TestTokenService_IssueVariantMismatch(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())
	user := newTestUser(auth.RoleStudent)

	_, err := ts.Issue(auth.NewAccessClaims(user), auth.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenVariantMismatch)

	_, err = ts.Issue(auth.NewRefreshClaims(user), auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenVariantMismatch)
}

func TestTokenService_VariantsAreIsolated(t *testing.T) {
	ts := newTestTokenService(t, newFakeClock())
	user := newTestUser(auth.RoleStudent)

	access, err := ts.Issue(auth.NewAccessClaims(user), auth.AccessToken)
	require.NoError(t, err)
	refresh, err := ts.Issue(auth.NewRefreshClaims(user), auth.RefreshToken)
	require.NoError(t, err)

	_, err = ts.Verify(access, auth.RefreshToken)
	assert.True(t, auth.IsTokenInvalidError(err), "access token must not verify as refresh: %v", err)
	assert.False(t, auth.IsTokenExpiredError(err))

	_, err = ts.Verify(refresh, auth.AccessToken)
	assert.True(t, auth.IsTokenInvalidError(err), "refresh token must not verify as access: %v", err)
}

func TestTokenService_TypClaimIsChecked(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, clock)

	// access-shaped claims signed with the refresh secret
	claims := jwt.MapClaims{
		"id":  "8a7d1c52-3a0e-4c9b-9a3e-6f1f0b2c4d5e",
		"sub": "8a7d1c52-3a0e-4c9b-9a3e-6f1f0b2c4d5e",
		"typ": "access",
		"iss": testIssuer,
		"iat": clock.now.Unix(),
		"exp": clock.now.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testRefreshSecret))
	require.NoError(t, err)

	_, err = ts.Verify(token, auth.RefreshToken)
	assert.True(t, auth.IsTokenInvalidError(err))
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, clock)

	token, err := ts.Issue(auth.NewAccessClaims(newTestUser(auth.RoleStudent)), auth.AccessToken)
	require.NoError(t, err)

	clock.Advance(time.Hour - time.Second)
	_, err = ts.Verify(token, auth.AccessToken)
	assert.NoError(t, err, "token must be valid one second before expiry")

	clock.Advance(time.Second)
	_, err = ts.Verify(token, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired, "token must be expired at exp")
	assert.True(t, auth.IsTokenExpiredError(err))
	assert.False(t, auth.IsTokenInvalidError(err))
}

func TestTokenService_ShortRefreshTokenExpires(t *testing.T) {
	clock := newFakeClock()
	cfg := testTokenConfig()
	cfg.RefreshTTL = time.Second
	ts, err := auth.NewTokenService(cfg, auth.WithTokenClock(clock.Now))
	require.NoError(t, err)

	token, err := ts.Issue(auth.NewRefreshClaims(newTestUser(auth.RoleStudent)), auth.RefreshToken)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = ts.Verify(token, auth.RefreshToken)
	assert.True(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_ExpiredWithBadSignatureIsInvalid(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, clock)

	claims := auth.NewAccessClaims(newTestUser(auth.RoleStudent))
	claims.Subject = claims.UID
	claims.Type = auth.AccessToken
	claims.Issuer = testIssuer
	claims.ExpiresAt = jwt.NewNumericDate(clock.now.Add(-time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
	require.NoError(t, err)

	_, err = ts.Verify(token, auth.AccessToken)
	assert.True(t, auth.IsTokenInvalidError(err))
	assert.False(t, auth.IsTokenExpiredError(err))
}

func TestTokenService_InvalidTokens(t *testing.T) {
	clock := newFakeClock()
	ts := newTestTokenService(t, clock)
	user := newTestUser(auth.RoleStudent)

	valid, err := ts.Issue(auth.NewAccessClaims(user), auth.AccessToken)
	require.NoError(t, err)

	signed := func(method jwt.SigningMethod, key any, mutate func(*auth.AccessClaims)) string {
		c := auth.NewAccessClaims(user)
		c.Subject = c.UID
		c.Type = auth.AccessToken
		c.Issuer = testIssuer
		c.RegisteredClaims.IssuedAt = jwt.NewNumericDate(clock.now)
		c.ExpiresAt = jwt.NewNumericDate(clock.now.Add(time.Hour))
		if mutate != nil {
			mutate(c)
		}
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"tampered signature", valid[:len(valid)-2] + "xx"},
		{"wrong secret", signed(jwt.SigningMethodHS256, []byte("wrong-secret"), nil)},
		{"hs512 algorithm", signed(jwt.SigningMethodHS512, []byte(testAccessSecret), nil)},
		{"none algorithm", signed(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, nil)},
		{"wrong issuer", signed(jwt.SigningMethodHS256, []byte(testAccessSecret), func(c *auth.AccessClaims) {
			c.Issuer = "someone-else"
		})},
		{"missing exp", signed(jwt.SigningMethodHS256, []byte(testAccessSecret), func(c *auth.AccessClaims) {
			c.ExpiresAt = nil
		})},
		{"missing subject", signed(jwt.SigningMethodHS256, []byte(testAccessSecret), func(c *auth.AccessClaims) {
			c.UID = ""
			c.Subject = ""
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Verify(tt.token, auth.AccessToken)
			assert.Nil(t, claims)
			require.Error(t, err)
			assert.True(t, auth.IsTokenInvalidError(err), "expected invalid token error, got %v", err)
			assert.False(t, auth.IsTokenExpiredError(err))

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, goerrors.CodeUnauthorized, richErr.Code)
		})
	}
}

func TestTokenService_TTL(t *testing.T) {
	ts := newTestTokenService(t, nil)
	assert.Equal(t, time.Hour, ts.TTL(auth.AccessToken))
	assert.Equal(t, 7*24*time.Hour, ts.TTL(auth.RefreshToken))
}
