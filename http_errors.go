package auth

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// ErrorResponse is the JSON body of every failed auth request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// tokenCodes re-labels token failures for one endpoint
type tokenCodes struct {
	missing string
	expired string
	invalid string
}

var (
	accessTokenCodes = tokenCodes{
		missing: TextCodeNoToken,
		expired: TextCodeTokenExpired,
		invalid: TextCodeInvalidToken,
	}
	refreshTokenCodes = tokenCodes{
		missing: TextCodeNoRefreshToken,
		expired: TextCodeRefreshTokenExpired,
		invalid: TextCodeInvalidRefreshToken,
	}
)

// SendError writes err as an ErrorResponse using the status carried by the
// rich error, falling back to 500.
func SendError(c *fiber.Ctx, err error) error {
	richErr := AsRichError(err)
	status := httpStatus(richErr)
	if status >= fiber.StatusInternalServerError {
		return sendError(c, status, serverErrorMessage(err), TextCodeServerError)
	}
	return sendError(c, status, richErr.Message, richErr.TextCode)
}

func sendError(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// sendTokenError maps token verification failures to 401 with the
// endpoint's codes. Anything else goes through SendError.
func sendTokenError(c *fiber.Ctx, err error, codes tokenCodes, label string) error {
	switch {
	case IsTokenExpiredError(err):
		return sendError(c, fiber.StatusUnauthorized, label+" is expired", codes.expired)
	case IsTokenInvalidError(err):
		return sendError(c, fiber.StatusUnauthorized, label+" is invalid", codes.invalid)
	}
	return SendError(c, err)
}

func httpStatus(richErr *errors.Error) int {
	if richErr == nil {
		return fiber.StatusInternalServerError
	}
	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}
	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func serverErrorMessage(err error) string {
	return "server error: " + rootCause(err).Error()
}

func rootCause(err error) error {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
