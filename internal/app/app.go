// Package app wires configuration, storage, services, the HTTP app and the
// background runner into one value shared by the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"interviewapi/docs"
	"interviewapi/internal/agent"
	"interviewapi/internal/auth"
	"interviewapi/internal/config"
	"interviewapi/internal/database"
	"interviewapi/internal/database/migration"
	"interviewapi/internal/gpu"
	"interviewapi/internal/http/handler"
	"interviewapi/internal/http/middleware"
	"interviewapi/internal/logging"
	"interviewapi/internal/model"
	"interviewapi/internal/queue"
	"interviewapi/internal/repository/postgres"
	"interviewapi/internal/runpod"
	"interviewapi/internal/scaler"
	"interviewapi/internal/service"
	"interviewapi/internal/storage"
	"interviewapi/internal/worker"
)

// podAPIRate caps RunPod REST calls per second.
const podAPIRate = 2

// App holds the wired components. Scaler is nil when Redis is unreachable.
type App struct {
	Config   *config.AppConfig
	Log      zerolog.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	HTTP     *fiber.App
	Runner   *worker.Runner
	GPU      *gpu.Client
	Pods     *runpod.Manager
	Scaler   *scaler.AutoScaler

	redis *redis.Client
}

// OpenDatabase connects to Postgres and creates the schema when missing.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, logging.Component(log, "migration"), cfg.Host); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// New builds every component. A Redis failure only disables the GPU queue.
func New(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*App, error) {
	db, err := OpenDatabase(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, DB: db, Registry: newRegistry()}

	if err := a.build(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, log := a.Config, a.Log

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	tokens, err := auth.NewTokens(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init tokens: %w", err)
	}

	// Interface values stay nil (not typed nil) when Redis is down.
	var (
		q         queue.Queue
		queuePing handler.Pinger
	)
	rdb, err := queue.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Str("event", "redis_unavailable").Msg("gpu queue disabled")
	} else {
		a.redis = rdb
		qm, err := queue.NewMetrics(a.Registry)
		if err != nil {
			return fmt.Errorf("queue metrics: %w", err)
		}
		rq := queue.NewRedis(rdb, qm)
		q, queuePing = rq, handler.PingFunc(rq.Ping)
	}

	conn := a.DB
	users := postgres.NewUserPostgres(conn)
	onboarding := postgres.NewOnboardingPostgres(conn)
	interviews := postgres.NewInterviewPostgres(conn)
	questionSets := postgres.NewQuestionSetPostgres(conn)
	files := postgres.NewFilePostgres(conn)
	tasks := postgres.NewGPUTaskPostgres(conn)

	a.GPU = gpu.NewClient(cfg.GPU, nil)
	a.Pods = runpod.NewManager(runpod.NewAPI(cfg.RunPod, podAPIRate), cfg.RunPod, cfg.Scaling.MaxInstances, logging.Component(log, "runpod"))

	var (
		trigger    service.ScaleTrigger
		scalerLoop worker.Scaler
	)
	if q != nil {
		sm, err := scaler.NewMetrics(a.Registry)
		if err != nil {
			return fmt.Errorf("scaler metrics: %w", err)
		}
		costs := scaler.NewCostTracker(cfg.Scaling.HourlyCost, cfg.Scaling.DailyCostLimit, cfg.Scaling.MonthlyCostLimit)
		a.Scaler = scaler.New(q, a.Pods, costs, cfg.Scaling, logging.Component(log, "scaler"), sm)
		if cfg.Scaling.Enabled {
			trigger, scalerLoop = a.Scaler, a.Scaler
		}
	}

	deps := handler.Deps{
		DB:         conn,
		Queue:      queuePing,
		Auth:       auth.RequireUser(tokens, users),
		Users:      service.NewUserService(users, interviews, tokens),
		Onboarding: service.NewOnboardingService(onboarding),
		Interviews: service.NewInterviewService(interviews, onboarding, questionSets, cfg.Interview),
		Files:      service.NewFileService(store, files, interviews),
		GPU:        service.NewGPUService(files, tasks, q, trigger, a.GPU, logging.Component(log, "gpu")),
	}
	if a.HTTP, err = NewHTTP(cfg, deps, a.Registry, logging.Component(log, "http")); err != nil {
		return err
	}

	a.Runner = worker.New(worker.Deps{
		Users:        users,
		Onboarding:   onboarding,
		QuestionSets: questionSets,
		Tasks:        tasks,
		Generator:    agent.New(cfg.AI, logging.Component(log, "agent")),
		Queue:        q,
		Servers:      a.Pods,
		GPU:          a.GPU,
		Store:        store,
		Scaler:       scalerLoop,
	}, worker.Options{
		MonthlyQuestionCount: cfg.Interview.MonthlyQuestionCount,
		PreGeneration:        cfg.Interview.PreGenerationEnabled,
		HourlyCost:           cfg.Scaling.HourlyCost,
	}, logging.Component(log, "worker"))
	return nil
}

// StopServers stops the GPU pods started by this process.
func (a *App) StopServers(ctx context.Context) {
	if a.Pods == nil || a.Pods.Running() == 0 {
		return
	}
	for _, tt := range model.TaskTypes {
		if _, err := a.Pods.StopServer(ctx, tt); err != nil {
			a.Log.Warn().Err(err).Str("event", "gpu_server_stop_failed").Str("task_type", tt).Msg("could not stop gpu server")
		}
	}
}

// Close releases the Redis and database connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewHTTP builds the Fiber app with the global middleware chain, /metrics,
// Swagger UI and the API routes.
func NewHTTP(cfg *config.AppConfig, d handler.Deps, reg *prometheus.Registry, log zerolog.Logger) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handler.ErrorHandler(cfg.Server.Debug),
		BodyLimit:             100 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	app.Use(recover.New())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())
	app.Use(otelfiber.Middleware())
	app.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))
	if n := cfg.HTTP.RateLimitPerMinute; n > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        n,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return p == "/health" || p == "/healthz" || p == "/metrics"
			},
			LimitReached: func(*fiber.Ctx) error {
				return fiber.ErrTooManyRequests
			},
		}))
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handler.RegisterRoutes(app, d)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	return app, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowOrigins:  strings.Join(origins, ","),
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization," + middleware.RequestIDHeader,
		ExposeHeaders: middleware.RequestIDHeader,
		MaxAge:        int((12 * time.Hour).Seconds()),
	}
	if c.AllowOrigins == "" {
		c.AllowOrigins = "*"
	}
	// Fiber rejects credentials combined with a wildcard origin.
	c.AllowCredentials = !strings.Contains(c.AllowOrigins, "*")
	return c
}
