package handler

import (
	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/auth"
	"interviewapi/internal/service"
)

// Register creates an account.
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /api/v1/auth/register [post]
func Register(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
		u, err := svc.Register(c.UserContext(), service.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Login exchanges credentials for a bearer token.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} model.Token
// @Failure 401 {object} errorPayload
// @Router /api/v1/auth/login [post]
func Login(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
		tok, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(tok)
	}
}

// GetProfile returns the caller's account.
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Router /api/v1/users/profile [get]
func GetProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(auth.UserFrom(c))
	}
}

// UpdateProfile changes the caller's email or full name.
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} model.User
// @Router /api/v1/users/profile [put]
func UpdateProfile(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateProfileRequest
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
		u, err := svc.UpdateProfile(c.UserContext(), auth.UserFrom(c).ID, service.ProfileUpdate{
			Email:    req.Email,
			FullName: req.FullName,
		})
		if err != nil {
			return err
		}
		return c.JSON(u)
	}
}

// GetUserStats summarizes the caller's interviews.
// @Summary Interview statistics
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserStats
// @Router /api/v1/users/stats [get]
func GetUserStats(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Stats(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}
