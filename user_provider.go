package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserProvider verifies login credentials against the credential store
type UserProvider struct {
	store  UserFinder
	hasher PasswordHasher
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	return &UserProvider{
		store:  store,
		hasher: NewBcryptHasher(),
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = normalizeLogger(l)
	return u
}

func (u *UserProvider) WithHasher(h PasswordHasher) *UserProvider {
	if h != nil {
		u.hasher = h
	}
	return u
}

// VerifyCredentials finds the user by phone or email and checks the password.
// Failures are checked in order: unknown account, wrong password, disabled.
func (u *UserProvider) VerifyCredentials(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrAccountNotFound
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if IsWrongPasswordError(err) {
			return nil, ErrWrongPassword
		}
		u.logger.Error("password comparison failed", "user_id", user.ID.String(), "error", err)
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return user, nil
}

// FindUser resolves a token subject. A missing row yields ErrUserNotFound.
func (u *UserProvider) FindUser(ctx context.Context, id string) (*User, error) {
	user, err := u.store.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user").
			WithCode(errors.CodeInternal)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// IsWrongPasswordError reports a password mismatch
func IsWrongPasswordError(err error) bool {
	return err == ErrMismatchedHashAndPassword || hasTextCode(err, TextCodeWrongPassword)
}

func isNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.IsNotFound(err)
}
