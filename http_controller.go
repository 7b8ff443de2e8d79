package auth

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

// HTTPAuthenticator is the session flow used by the controller
type HTTPAuthenticator interface {
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Verify(ctx context.Context, accessToken string) (*User, error)
}

// UserRegisterer persists new accounts
type UserRegisterer interface {
	Execute(ctx context.Context, event RegisterUserMessage) error
}

var (
	_ HTTPAuthenticator = (*Authenticator)(nil)
	_ UserRegisterer    = (*RegisterUserHandler)(nil)
)

type AuthControllerRoutes struct {
	Register     string
	Login        string
	RefreshToken string
	Verify       string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Auther     HTTPAuthenticator
	Registerer UserRegisterer
	Routes     *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Logger = normalizeLogger(l)
		return a
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Debug = debug
		return a
	}
}

func NewAuthController(auther HTTPAuthenticator, registerer UserRegisterer, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		Auther:     auther,
		Registerer: registerer,
		Routes: &AuthControllerRoutes{
			Register:     "/register",
			Login:        "/login",
			RefreshToken: "/refresh-token",
			Verify:       "/verify",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Registerer == nil {
		panic("Missing UserRegisterer in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the controller on r, usually the /api/auth group
func RegisterAuthRoutes(r fiber.Router, controller *AuthController) {
	r.Post(controller.Routes.Register, controller.RegistrationCreate).Name("auth.register")
	r.Post(controller.Routes.Login, controller.LoginPost).Name("auth.login")
	r.Post(controller.Routes.RefreshToken, controller.RefreshTokenPost).Name("auth.refresh-token")
	r.Get(controller.Routes.Verify, controller.VerifyGet).Name("auth.verify")
}

// RegisterResponse is the 201 body
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := RegisterUserMessage{}
	if err := c.BodyParser(&payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return sendError(c, fiber.StatusBadRequest, "invalid request body", TextCodeValidation)
	}

	if a.Debug {
		if masked, err := payload.Redacted(); err == nil {
			fmt.Println("======= AUTH REGISTER ======")
			fmt.Println(print.MaybePrettyJSON(masked))
			fmt.Println("============================")
		}
	}

	var userID string
	payload.OnResponse = func(resp *RegisterUserResponse) {
		userID = resp.User.ID.String()
	}

	if err := a.Registerer.Execute(c.UserContext(), payload); err != nil {
		a.Logger.Error("register user", "error", err)
		return SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		Message: "registration successful",
		UserID:  userID,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse is the 200 body of a login
type LoginResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
	User         UserProjection `json:"user"`
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return sendError(c, fiber.StatusBadRequest, "invalid request body", TextCodeValidation)
	}

	if err := payload.Validate(); err != nil {
		return SendError(c, NewValidationError(err))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		if masked, err := redacted(payload); err == nil {
			fmt.Println(print.MaybePrettyJSON(masked))
		}
		fmt.Println("=========================")
	}

	res, err := a.Auther.Login(c.UserContext(), strings.TrimSpace(payload.Identifier), payload.Password)
	if err != nil {
		return SendError(c, err)
	}

	return c.JSON(LoginResponse{
		Success:      true,
		Message:      "login successful",
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// RefreshTokenRequest payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is the 200 body of a refresh
type TokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (a *AuthController) RefreshTokenPost(c *fiber.Ctx) error {
	payload := RefreshTokenRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return sendError(c, fiber.StatusBadRequest, "invalid request body", TextCodeValidation)
		}
	}

	if strings.TrimSpace(payload.RefreshToken) == "" {
		return sendError(c, fiber.StatusBadRequest, "refresh token not found", refreshTokenCodes.missing)
	}

	token, err := a.Auther.Refresh(c.UserContext(), payload.RefreshToken)
	if err != nil {
		if hasTextCode(err, TextCodeUserNotFound) {
			return sendError(c, fiber.StatusUnauthorized, ErrUserNotFound.Message, TextCodeUserNotFound)
		}
		return sendTokenError(c, err, refreshTokenCodes, "refresh token")
	}

	return c.JSON(TokenResponse{
		Success: true,
		Message: "new token issued",
		Token:   token,
	})
}

// VerifyResponse is the 200 body of a verify
type VerifyResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    UserProjection `json:"user"`
}

func (a *AuthController) VerifyGet(c *fiber.Ctx) error {
	token := ExtractBearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return sendError(c, fiber.StatusUnauthorized, "token not found", accessTokenCodes.missing)
	}

	user, err := a.Auther.Verify(c.UserContext(), token)
	if err != nil {
		if hasTextCode(err, TextCodeUserNotFound) {
			return sendError(c, fiber.StatusNotFound, ErrUserNotFound.Message, TextCodeUserNotFound)
		}
		return sendTokenError(c, err, accessTokenCodes, "token")
	}

	return c.JSON(VerifyResponse{
		Success: true,
		Message: "token is valid",
		User:    user.Project(false),
	})
}

// ExtractBearerToken returns the credential of an "Authorization: Bearer <t>"
// header value, or "" when there is none.
func ExtractBearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) < 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
