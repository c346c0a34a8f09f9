package handler

import (
	"github.com/gofiber/fiber/v2"

	"interviewapi/internal/service"
)

// Deps carries what the routes need. Queue may be nil when Redis is not configured.
type Deps struct {
	DB    Pinger
	Queue Pinger

	// Auth guards every /api/v1 route except register and login.
	Auth fiber.Handler

	Users      service.UserService
	Onboarding service.OnboardingService
	Interviews service.InterviewService
	Files      service.FileService
	GPU        service.GPUService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/", Root())
	app.Get("/health", HealthCheck(d.DB, d.Queue))
	app.Get("/healthz", LivenessProbe())
	app.Get("/test", TestEndpoint())
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/index.html", fiber.StatusMovedPermanently)
	})

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", Register(d.Users))
	authGroup.Post("/login", Login(d.Users))

	users := v1.Group("/users", d.Auth)
	users.Get("/profile", GetProfile())
	users.Put("/profile", UpdateProfile(d.Users))
	users.Get("/stats", GetUserStats(d.Users))

	onboarding := v1.Group("/onboarding", d.Auth)
	onboarding.Post("/submit", SubmitOnboarding(d.Onboarding))
	onboarding.Get("/data", GetOnboarding(d.Onboarding))
	onboarding.Get("/status", GetOnboardingStatus(d.Onboarding))

	interviews := v1.Group("/interviews", d.Auth)
	interviews.Post("/start", StartInterview(d.Interviews))
	interviews.Get("/sessions", ListSessions(d.Interviews))
	interviews.Get("/sessions/:id", GetSession(d.Interviews))
	interviews.Post("/sessions/:id/end", EndSession(d.Interviews))
	interviews.Post("/sessions/:id/questions/:index/answer", AnswerQuestion(d.Interviews))

	files := v1.Group("/files", d.Auth)
	files.Post("/upload", UploadFile(d.Files))
	files.Get("/files", ListFiles(d.Files))
	files.Get("/files/:id", GetFile(d.Files))
	files.Get("/files/:id/download", DownloadFile(d.Files))
	files.Delete("/files/:id", DeleteFile(d.Files))

	gpu := v1.Group("/gpu", d.Auth)
	gpu.Post("/queue/video-generation", QueueVideoGeneration(d.GPU))
	gpu.Post("/queue/evaluation", QueueEvaluation(d.GPU))
	gpu.Get("/queue/status", GetQueueStatus(d.GPU))
	gpu.Get("/tasks/:id", GetTaskStatus(d.GPU))
	gpu.Get("/stats", GetGPUStats(d.GPU))
	gpu.Get("/health", GetGPUHealth(d.GPU))
}

// Paths lists the routes served by RegisterRoutes, for discovery responses.
func Paths(app *fiber.App) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead || seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r.Path)
	}
	return out
}
