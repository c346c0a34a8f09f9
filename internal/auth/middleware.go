package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/model"
)

const userLocalsKey = "user"

// UserFinder loads the account behind a token.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireUser authenticates "Authorization: Bearer <token>" and stores the active user in locals.
// Missing or invalid tokens and unknown users yield 401; inactive users yield 403.
func RequireUser(tokens *Tokens, users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}

		claims, err := tokens.Parse(strings.TrimSpace(h[7:]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}
		id, err := claims.UserID()
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}

		u, err := users.FindByID(c.UserContext(), id)
		if err != nil || u == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not validate credentials")
		}
		if !u.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "Inactive user")
		}

		c.Locals(userLocalsKey, u)
		return c.Next()
	}
}

// UserFrom returns the user stored by RequireUser, or nil.
func UserFrom(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(userLocalsKey).(*model.User)
	return u
}

// WithUser stores u in locals. Handlers under test use it in place of RequireUser.
func WithUser(u *model.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userLocalsKey, u)
		return c.Next()
	}
}
