package handler

import (
	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/auth"
	"interviewapi/internal/service"
)

// SubmitOnboarding stores or replaces the caller's questionnaire.
// @Summary Submit onboarding
// @Tags onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body OnboardingRequest true "Questionnaire"
// @Success 200 {object} service.OnboardingResult
// @Failure 422 {object} errorPayload
// @Router /api/v1/onboarding/submit [post]
func SubmitOnboarding(svc service.OnboardingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req OnboardingRequest
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
		res, err := svc.Submit(c.UserContext(), auth.UserFrom(c).ID, req.toModel())
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GetOnboarding returns the caller's questionnaire.
// @Summary Onboarding data
// @Tags onboarding
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.OnboardingResponse
// @Failure 404 {object} errorPayload
// @Router /api/v1/onboarding/data [get]
func GetOnboarding(svc service.OnboardingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := svc.Get(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.JSON(o)
	}
}

// GetOnboardingStatus reports whether the caller may start an interview.
// @Summary Onboarding status
// @Tags onboarding
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.OnboardingStatus
// @Router /api/v1/onboarding/status [get]
func GetOnboardingStatus(svc service.OnboardingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.Status(c.UserContext(), auth.UserFrom(c).ID)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}
