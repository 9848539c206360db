package middleware

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/types"
	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// SessionValidator checks an Authorizer session cookie; *services.Authorizer satisfies it
type SessionValidator interface {
	ValidateSession(cookie string, roles []string) (*services.SessionUser, error)
}

// AuthService requires "Authorization: Bearer <secret>" on the job endpoints.
// An empty secret disables the check for local development.
func AuthService(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: "Missing or invalid builder secret",
				Type:    "builder.authorization",
			}
		}

		return c.Next()
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser(validator SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, validator, []string{"user"}, "builder.authorization.user")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, validator SessionValidator, roles []string, errorType string) error {
	// Get session cookie
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	user, err := validator.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	c.Locals(userKey, user)

	return c.Next()
}

// CurrentUser returns the session user stored by AuthUser
func CurrentUser(c *fiber.Ctx) *services.SessionUser {
	user, _ := c.Locals(userKey).(*services.SessionUser)
	return user
}
