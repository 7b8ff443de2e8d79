package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// Text codes returned to clients in the `code` field.
const (
	TextCodeNoToken             = "NO_TOKEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeNoRefreshToken      = "NO_REFRESH_TOKEN"
	TextCodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	TextCodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
	TextCodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	TextCodeWrongPassword       = "WRONG_PASSWORD"
	TextCodeAccountDisabled     = "ACCOUNT_DISABLED"
	TextCodeDuplicateCredential = "DUPLICATE_CREDENTIAL"
	TextCodeValidation          = "VALIDATION_ERROR"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeServerError         = "SERVER_ERROR"
)

// ErrNoEmptyString is returned when hashing an empty secret
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match its digest
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeWrongPassword).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for a correctly signed token past its expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers every other verification failure
var ErrTokenInvalid = errors.New("token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenVariantMismatch is returned when claims are issued under the wrong variant
var ErrTokenVariantMismatch = errors.New("claims do not match token variant", errors.CategoryInternal).
	WithTextCode("TOKEN_VARIANT_MISMATCH").
	WithCode(errors.CodeInternal)

// ErrAccountNotFound login identifier matched no user
var ErrAccountNotFound = errors.New("account does not exist", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeBadRequest)

// ErrWrongPassword login password did not match
var ErrWrongPassword = errors.New("wrong password", errors.CategoryAuth).
	WithTextCode(TextCodeWrongPassword).
	WithCode(errors.CodeBadRequest)

// ErrAccountDisabled the user is not active
var ErrAccountDisabled = errors.New("your account has been disabled", errors.CategoryAuthz).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound a token subject no longer resolves to a user
var ErrUserNotFound = errors.New("user does not exist", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrDuplicateCredential phone or email already registered
var ErrDuplicateCredential = errors.New("phone number or email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateCredential).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsTokenInvalidError reports verification failures other than expiry
func IsTokenInvalidError(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// AsRichError returns err as a go-errors value, wrapping unknown errors as internal.
func AsRichError(err error) *errors.Error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	return errors.Wrap(err, errors.CategoryInternal, err.Error()).
		WithTextCode(TextCodeServerError).
		WithCode(errors.CodeInternal)
}

// NewValidationError converts payload validation failures into a bad input
// error carrying the per-field messages as metadata.
func NewValidationError(err error) *errors.Error {
	fields := map[string]any{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	}

	return errors.Wrap(err, errors.CategoryValidation, err.Error()).
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}
