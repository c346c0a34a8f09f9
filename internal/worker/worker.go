// Package worker runs the background loops: monthly question generation,
// GPU queue processing and the autoscaler.
package worker

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"interviewapi/internal/agent"
	"interviewapi/internal/gpu"
	"interviewapi/internal/model"
	"interviewapi/internal/queue"
	"interviewapi/internal/repository"
	"interviewapi/internal/storage"
)

// Loop timings.
const (
	MonthlyInterval = time.Hour
	MonthlyBackoff  = 5 * time.Minute
	QueueInterval   = 10 * time.Second
	QueueBackoff    = 30 * time.Second
)

// QuestionGenerator produces interview questions for a profile.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, p agent.Profile, count int) []model.GeneratedQuestion
}

// GPUClient is the subset of the GPU service client used to run tasks.
type GPUClient interface {
	GenerateVideo(ctx context.Context, audio, face gpu.Upload, sessionID, questionID string) (map[string]any, error)
	Evaluate(ctx context.Context, video gpu.Upload, data map[string]any) (map[string]any, error)
	DownloadVideo(ctx context.Context, name string, dst storage.Storage, key string) (storage.ObjectInfo, error)
}

// Servers reports GPU server state per task type.
type Servers interface {
	Status(ctx context.Context, taskType string) (string, error)
	PodID(taskType string) string
}

// Scaler is a blocking autoscaler loop.
type Scaler interface {
	Run(ctx context.Context) error
}

// Deps bundles the collaborators of the runner. Queue, Servers, GPU and Scaler
// may be nil; the loops that need them are then not started.
type Deps struct {
	Users        repository.UserRepository
	Onboarding   repository.OnboardingRepository
	QuestionSets repository.QuestionSetRepository
	Tasks        repository.GPUTaskRepository
	Generator    QuestionGenerator
	Queue        queue.Queue
	Servers      Servers
	GPU          GPUClient
	Store        storage.Storage
	Scaler       Scaler
}

// Options tune the runner.
type Options struct {
	MonthlyQuestionCount int
	PreGeneration        bool
	HourlyCost           float64
}

// Runner owns the background loops.
type Runner struct {
	Deps
	opts Options
	log  zerolog.Logger
	now  func() time.Time

	monthlyEvery, monthlyBackoff time.Duration
	queueEvery, queueBackoff     time.Duration
}

// New builds a runner.
func New(deps Deps, opts Options, log zerolog.Logger) *Runner {
	if opts.MonthlyQuestionCount <= 0 {
		opts.MonthlyQuestionCount = 30
	}
	return &Runner{
		Deps:           deps,
		opts:           opts,
		log:            log,
		now:            time.Now,
		monthlyEvery:   MonthlyInterval,
		monthlyBackoff: MonthlyBackoff,
		queueEvery:     QueueInterval,
		queueBackoff:   QueueBackoff,
	}
}

// Run starts every configured loop and blocks until ctx is cancelled or a loop fails.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if r.opts.PreGeneration && r.Generator != nil {
		g.Go(func() error {
			return r.loop(ctx, "monthly_generation", r.monthlyEvery, r.monthlyBackoff, func(ctx context.Context) error {
				_, err := r.GenerateMonthly(ctx)
				return err
			})
		})
	}
	if r.Queue != nil && r.Servers != nil && r.GPU != nil {
		g.Go(func() error {
			return r.loop(ctx, "gpu_queue", r.queueEvery, r.queueBackoff, func(ctx context.Context) error {
				_, err := r.ProcessQueue(ctx)
				return err
			})
		})
	}
	if r.Scaler != nil {
		g.Go(func() error { return r.Scaler.Run(ctx) })
	}

	r.log.Info().Str("event", "worker_started").Msg("background loops started")
	err := g.Wait()
	r.log.Info().Str("event", "worker_stopped").Msg("background loops stopped")
	return err
}

// loop runs fn every interval; after an error it waits backoff instead.
func (r *Runner) loop(ctx context.Context, name string, every, backoff time.Duration, fn func(context.Context) error) error {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		wait := every
		if err := fn(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Error().Err(err).Str("event", name+"_failed").Dur("backoff", backoff).Msg("background loop failed")
			wait = backoff
		}
		t.Reset(wait)
	}
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
