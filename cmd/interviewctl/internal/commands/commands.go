package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"interviewapi/internal/app"
	"interviewapi/internal/config"
	"interviewapi/internal/gpu"
	"interviewapi/internal/healthcheck"
	"interviewapi/internal/logging"
	"interviewapi/internal/serverless"
)

// ErrUnhealthy is returned by the healthcheck command when the probe fails.
var ErrUnhealthy = errors.New("service unhealthy")

// Register adds every interviewctl command to root.
func Register(root *cobra.Command, cfg *config.AppConfig, log zerolog.Logger) {
	h := &handler{cfg: cfg, log: log}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema when it is missing",
		Args:  cobra.NoArgs,
		RunE:  h.migrate,
	}

	health := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the /health endpoint (exit 1 when unhealthy)",
		Args:  cobra.NoArgs,
		RunE:  h.healthcheck,
	}
	health.Flags().String("url", healthcheck.URL(cfg.Server.Port), "health endpoint to probe")
	health.Flags().Duration("timeout", healthcheck.DefaultPolicy.Timeout, "probe timeout")
	health.Flags().Bool("watch", false, "keep probing with the container policy until unhealthy")

	monthly := &cobra.Command{
		Use:   "generate-monthly",
		Short: "Generate this month's question sets for users lacking one",
		Args:  cobra.NoArgs,
		RunE:  h.generateMonthly,
	}

	invoke := &cobra.Command{
		Use:   "invoke",
		Short: "Run a serverless job document against the API without a listener",
		Args:  cobra.NoArgs,
		RunE:  h.invoke,
	}
	invoke.Flags().String("job", "-", `job JSON file, "-" for stdin`)

	cleanup := &cobra.Command{
		Use:   "gpu-cleanup TASK_ID...",
		Short: "Delete temporary files of finished tasks on the video service",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.gpuCleanup,
	}

	root.AddCommand(migrate, health, monthly, invoke, cleanup)
}

type handler struct {
	cfg *config.AppConfig
	log zerolog.Logger
}

func (h *handler) migrate(cmd *cobra.Command, _ []string) error {
	db, err := app.OpenDatabase(cmd.Context(), h.cfg.Database, h.log)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Fprintln(cmd.OutOrStdout(), "database schema ready")
	return nil
}

func (h *handler) healthcheck(cmd *cobra.Command, _ []string) error {
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}

	if !watch {
		if err := healthcheck.Probe(cmd.Context(), nil, url, timeout); err != nil {
			return fmt.Errorf("%w: %v", ErrUnhealthy, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), healthcheck.Healthy)
		return nil
	}

	policy := healthcheck.DefaultPolicy
	policy.Timeout = timeout
	return watchHealth(cmd.Context(), cmd.OutOrStdout(), healthcheck.NewMonitor(policy, time.Now()), url)
}

// watchHealth blocks until the monitor turns unhealthy or ctx ends.
func watchHealth(ctx context.Context, out io.Writer, m *healthcheck.Monitor, url string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unhealthy := false
	m.Run(ctx, nil, url, func(st healthcheck.State) {
		fmt.Fprintln(out, st)
		if st == healthcheck.Unhealthy {
			unhealthy = true
			cancel()
		}
	})
	if unhealthy {
		return ErrUnhealthy
	}
	return nil
}

func (h *handler) generateMonthly(cmd *cobra.Command, _ []string) error {
	a, err := app.New(cmd.Context(), h.cfg, h.log)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Runner.GenerateMonthly(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "completed %d question sets\n", n)
	return nil
}

func (h *handler) invoke(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("job")
	if err != nil {
		return err
	}
	job, err := readJob(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), h.cfg, h.log)
	if err != nil {
		return err
	}
	defer a.Close()

	res := serverless.New(a.HTTP, logging.Component(h.log, "serverless")).Handle(cmd.Context(), job)
	return writeJSON(cmd.OutOrStdout(), res)
}

func readJob(stdin io.Reader, path string) (serverless.Job, error) {
	if path == "-" {
		return serverless.DecodeJob(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return serverless.Job{}, fmt.Errorf("open job: %w", err)
	}
	defer f.Close()
	return serverless.DecodeJob(f)
}

func (h *handler) gpuCleanup(cmd *cobra.Command, args []string) error {
	results := gpu.NewClient(h.cfg.GPU, nil).Cleanup(cmd.Context(), args)
	if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("cleanup failed for %d of %d tasks", failed, len(results))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
