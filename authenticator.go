package auth

import (
	"context"
	"time"
)

// CredentialVerifier is the user lookup contract the Authenticator depends on
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (*User, error)
	FindUser(ctx context.Context, id string) (*User, error)
}

var _ CredentialVerifier = (*UserProvider)(nil)

// LoginResult is returned by a successful login
type LoginResult struct {
	Token        string
	RefreshToken string
	User         UserProjection
}

// Authenticator composes the credential store and token service into the
// login, refresh and verify flows. Tokens are not persisted.
type Authenticator struct {
	users    CredentialVerifier
	tokens   TokenIssuer
	logger   Logger
	activity ActivitySink
	now      func() time.Time
}

// AuthenticatorOption configures an Authenticator
type AuthenticatorOption func(*Authenticator)

func WithAuthenticatorLogger(l Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = normalizeLogger(l)
	}
}

func WithAuthenticatorActivitySink(s ActivitySink) AuthenticatorOption {
	return func(a *Authenticator) {
		a.activity = normalizeActivitySink(s)
	}
}

func WithAuthenticatorClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuthenticator returns an Authenticator
func NewAuthenticator(users CredentialVerifier, tokens TokenIssuer, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		users:    users,
		tokens:   tokens,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Login verifies the credentials and mints an access and a refresh token.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := a.users.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		a.record(ctx, ActivityEvent{
			EventType:  ActivityEventLoginFailure,
			Identifier: identifier,
			Metadata:   map[string]any{"reason": errorTextCode(err)},
		})
		return nil, err
	}

	token, err := a.tokens.Issue(NewAccessClaims(user), AccessToken)
	if err != nil {
		a.logger.Error("failed to issue access token", "user_id", user.ID.String(), "error", err)
		return nil, err
	}

	refreshToken, err := a.tokens.Issue(NewRefreshClaims(user), RefreshToken)
	if err != nil {
		a.logger.Error("failed to issue refresh token", "user_id", user.ID.String(), "error", err)
		return nil, err
	}

	a.record(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		UserID:     user.ID.String(),
		Identifier: identifier,
	})

	return &LoginResult{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user.Project(true),
	}, nil
}

// Refresh verifies a refresh token and mints a new access token from the
// current user row. The refresh token itself is not rotated.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := a.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return "", err
	}

	user, err := a.users.FindUser(ctx, claims.UserID())
	if err != nil {
		return "", err
	}

	token, err := a.tokens.Issue(NewAccessClaims(user), AccessToken)
	if err != nil {
		a.logger.Error("failed to issue access token", "user_id", user.ID.String(), "error", err)
		return "", err
	}

	a.record(ctx, ActivityEvent{
		EventType: ActivityEventTokenRefreshed,
		UserID:    user.ID.String(),
	})

	return token, nil
}

// Verify checks an access token and returns the user it refers to.
func (a *Authenticator) Verify(ctx context.Context, accessToken string) (*User, error) {
	claims, err := a.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return nil, err
	}

	return a.users.FindUser(ctx, claims.UserID())
}

// VerifyToken checks an access token without touching the store
func (a *Authenticator) VerifyToken(accessToken string) (*AccessClaims, error) {
	claims, err := a.tokens.Verify(accessToken, AccessToken)
	if err != nil {
		return nil, err
	}
	ac, ok := claims.(*AccessClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return ac, nil
}

func (a *Authenticator) record(ctx context.Context, event ActivityEvent) {
	event.OccurredAt = a.now()
	recordActivity(ctx, a.activity, a.logger, event)
}

func errorTextCode(err error) string {
	if richErr := AsRichError(err); richErr != nil {
		return richErr.TextCode
	}
	return ""
}
