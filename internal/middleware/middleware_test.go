package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	user  *services.SessionUser
	err   error
	roles []string
}

func (s *stubValidator) ValidateSession(cookie string, roles []string) (*services.SessionUser, error) {
	s.roles = roles
	return s.user, s.err
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var customErr *types.CustomError
			if errors.As(err, &customErr) {
				return c.Status(customErr.Code).SendString(customErr.Type)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
}

func TestAuthService(t *testing.T) {
	app := newApp()
	app.Post("/generate", AuthService("s3cret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong", "Bearer nope", fiber.StatusUnauthorized},
		{"not bearer", "s3cret", fiber.StatusUnauthorized},
		{"valid", "Bearer s3cret", fiber.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/generate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthService_EmptySecretAllowsAll(t *testing.T) {
	app := newApp()
	app.Post("/generate", AuthService(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/generate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
}

func TestAuthUser(t *testing.T) {
	validator := &stubValidator{user: &services.SessionUser{ID: "user-1", Email: "a@b.c"}}
	app := newApp()
	app.Get("/me", AuthUser(validator), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUser(c).ID)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", "cookie_session=abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"user"}, validator.roles)

	validator.user, validator.err = nil, errors.New("expired")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestVersionHeader(t *testing.T) {
	app := newApp()
	app.Use(VersionHeader("1.2.3"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", resp.Header.Get("X-Builder-Version"))
}
