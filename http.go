package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-uav-auth/middleware/jwtware"
)

// APIPrefix is where the auth routes are mounted
const APIPrefix = "/api/auth"

// Pinger is satisfied by *bun.DB and *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AppOptions configures NewHTTPApp
type AppOptions struct {
	HTTP   HTTPConfig
	DB     Pinger
	Logger Logger
}

// NewHTTPApp builds the fiber application serving the auth endpoints and
// the health check.
func NewHTTPApp(opts AppOptions, controller *AuthController) *fiber.App {
	logger := normalizeLogger(opts.Logger)

	bodyLimit := opts.HTTP.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               "uav-auth",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
		ErrorHandler:          ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: AllowOriginFunc(opts.HTTP.AllowedOrigins),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Get("/health", HealthHandler(opts.DB))

	RegisterAuthRoutes(app.Group(APIPrefix), controller)

	return app
}

// HealthHandler answers "ok" when the database responds
func HealthHandler(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).SendString("database unavailable")
			}
		}
		return c.SendString("ok")
	}
}

// ErrorHandler renders unhandled errors as ErrorResponse JSON
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = normalizeLogger(logger)
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			return sendError(c, fe.Code, fe.Message, "")
		}

		richErr := AsRichError(err)
		logger.Error("unhandled request error",
			"path", c.OriginalURL(),
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		return SendError(c, richErr)
	}
}

// ProtectedRoute returns a bearer middleware for the CRUD routes. An empty
// minRole accepts any authenticated user.
func ProtectedRoute(tokens TokenIssuer, minRole UserRole) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: AccessTokenValidator(tokens),
		IsExpired:      IsTokenExpiredError,
		MinimumRole:    string(minRole),
		RoleChecker: func(claims jwtware.Claims, role string) bool {
			return UserRole(claims.Role()).IsAtLeast(UserRole(role))
		},
		ContextKey: DefaultClaimsLocalsKey,
		ContextEnricher: func(ctx context.Context, claims jwtware.Claims) context.Context {
			if ac, ok := claims.(*AccessClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	})
}

// AccessTokenValidator adapts a TokenIssuer to the middleware validator
func AccessTokenValidator(tokens TokenIssuer) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.Claims, error) {
		claims, err := tokens.Verify(raw, AccessToken)
		if err != nil {
			return nil, err
		}
		ac, ok := claims.(*AccessClaims)
		if !ok {
			return nil, errors.Wrap(ErrTokenInvalid, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
				WithTextCode(ErrTokenInvalid.TextCode)
		}
		return ac, nil
	})
}
