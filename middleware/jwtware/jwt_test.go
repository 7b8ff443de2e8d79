package jwtware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-uav-auth/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClaims struct {
	id   string
	role string
}

func (c testClaims) UserID() string { return c.id }
func (c testClaims) Role() string   { return c.role }

var errExpired = errors.New("expired")

func staticValidator(tokens map[string]jwtware.Claims) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.Claims, error) {
		if raw == "stale" {
			return nil, errExpired
		}
		claims, ok := tokens[raw]
		if !ok {
			return nil, errors.New("unknown token")
		}
		return claims, nil
	})
}

var roleRank = map[string]int{"student": 0, "admin": 1}

func newApp(cfg jwtware.Config) *fiber.App {
	if cfg.TokenValidator == nil {
		cfg.TokenValidator = staticValidator(map[string]jwtware.Claims{
			"student-token": testClaims{id: "u-1", role: "student"},
			"admin-token":   testClaims{id: "u-2", role: "admin"},
		})
	}
	cfg.IsExpired = func(err error) bool { return errors.Is(err, errExpired) }

	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims := c.Locals("user").(jwtware.Claims)
		return c.SendString(claims.UserID())
	})
	return app
}

type result struct {
	status int
	body   string
	json   jwtware.ErrorResponse
}

func call(t *testing.T, app *fiber.App, target string, header string) result {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set(fiber.HeaderAuthorization, header)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := result{status: res.StatusCode, body: string(raw)}
	if res.StatusCode >= 400 {
		require.NoError(t, json.Unmarshal(raw, &out.json))
	}
	return out
}

func TestNew_PanicsWithoutValidator(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.New(jwtware.Config{})
	})
}

func TestNew_ValidToken(t *testing.T) {
	app := newApp(jwtware.Config{})

	res := call(t, app, "/protected", "Bearer student-token")
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "u-1", res.body)
}

func TestNew_DefaultErrors(t *testing.T) {
	app := newApp(jwtware.Config{})

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", fiber.StatusUnauthorized, jwtware.CodeNoToken},
		{"wrong scheme", "Basic student-token", fiber.StatusUnauthorized, jwtware.CodeNoToken},
		{"scheme only", "Bearer ", fiber.StatusUnauthorized, jwtware.CodeNoToken},
		{"expired", "Bearer stale", fiber.StatusUnauthorized, jwtware.CodeTokenExpired},
		{"invalid", "Bearer forged", fiber.StatusUnauthorized, jwtware.CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, app, "/protected", tt.header)
			assert.Equal(t, tt.status, res.status)
			assert.False(t, res.json.Success)
			assert.Equal(t, tt.code, res.json.Code)
		})
	}
}

func TestNew_RoleChecks(t *testing.T) {
	checker := func(claims jwtware.Claims, min string) bool {
		have, ok := roleRank[claims.Role()]
		want, known := roleRank[min]
		return ok && known && have >= want
	}

	t.Run("minimum role", func(t *testing.T) {
		app := newApp(jwtware.Config{MinimumRole: "admin", RoleChecker: checker})

		res := call(t, app, "/protected", "Bearer student-token")
		assert.Equal(t, fiber.StatusForbidden, res.status)
		assert.Equal(t, jwtware.CodeForbidden, res.json.Code)

		res = call(t, app, "/protected", "Bearer admin-token")
		assert.Equal(t, fiber.StatusOK, res.status)
	})

	t.Run("minimum role without checker denies", func(t *testing.T) {
		app := newApp(jwtware.Config{MinimumRole: "student"})
		res := call(t, app, "/protected", "Bearer admin-token")
		assert.Equal(t, fiber.StatusForbidden, res.status)
	})

	t.Run("required role", func(t *testing.T) {
		app := newApp(jwtware.Config{RequiredRole: "student"})

		res := call(t, app, "/protected", "Bearer admin-token")
		assert.Equal(t, fiber.StatusForbidden, res.status)

		res = call(t, app, "/protected", "Bearer student-token")
		assert.Equal(t, fiber.StatusOK, res.status)
	})
}

func TestNew_FilterSkipsAuthentication(t *testing.T) {
	app := fiber.New()
	app.Get("/open", jwtware.New(jwtware.Config{
		TokenValidator: staticValidator(nil),
		Filter:         func(*fiber.Ctx) bool { return true },
	}), func(c *fiber.Ctx) error {
		return c.SendString("open")
	})

	res := call(t, app, "/open", "")
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "open", res.body)
}

func TestNew_ValidationListenerCanReject(t *testing.T) {
	app := newApp(jwtware.Config{
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(c *fiber.Ctx, claims jwtware.Claims) error {
				if claims.UserID() == "u-1" {
					return errors.New("revoked")
				}
				return nil
			},
		},
	})

	res := call(t, app, "/protected", "Bearer student-token")
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
	assert.Equal(t, jwtware.CodeInvalidToken, res.json.Code)

	res = call(t, app, "/protected", "Bearer admin-token")
	assert.Equal(t, fiber.StatusOK, res.status)
}

type ctxKey struct{}

func TestNew_ContextEnricher(t *testing.T) {
	app := fiber.New()
	app.Get("/me", jwtware.New(jwtware.Config{
		TokenValidator: staticValidator(map[string]jwtware.Claims{
			"t": testClaims{id: "u-9", role: "student"},
		}),
		ContextKey: "claims",
		ContextEnricher: func(ctx context.Context, claims jwtware.Claims) context.Context {
			return context.WithValue(ctx, ctxKey{}, claims.UserID())
		},
	}), func(c *fiber.Ctx) error {
		_, stored := c.Locals("claims").(jwtware.Claims)
		id, _ := c.UserContext().Value(ctxKey{}).(string)
		if !stored {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id)
	})

	res := call(t, app, "/me", "Bearer t")
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "u-9", res.body)
}

func TestGetExtractors(t *testing.T) {
	app := fiber.New()
	extractors := jwtware.GetExtractors("header:Authorization,query:token,cookie:jwt,bogus", "Bearer")
	assert.Len(t, extractors, 3)

	app.Get("/", func(c *fiber.Ctx) error {
		raw, err := jwtware.ExtractRawTokenFromContext(c, extractors)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(raw)
	})

	res := call(t, app, "/?token=from-query", "")
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "from-query", res.body)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "from-cookie"})
	httpRes, err := app.Test(req, -1)
	require.NoError(t, err)
	defer httpRes.Body.Close()
	body, _ := io.ReadAll(httpRes.Body)
	assert.Equal(t, "from-cookie", string(body))
}
