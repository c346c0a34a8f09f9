// Package main is the entry point for interviewctl, the operations CLI of the
// interview server: schema migration, container health probes, monthly question
// generation, serverless job replay and GPU cleanup.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"interviewapi/cmd/interviewctl/internal/commands"
	"interviewapi/internal/config"
	"interviewapi/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	loc, err := time.LoadLocation(cfg.Server.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	// Logs go to stderr so command output on stdout stays machine readable.
	log := logging.New(os.Stderr, cfg.Server.LogLevel, loc)

	root := &cobra.Command{
		Use:           "interviewctl",
		Short:         "Operations CLI for the Visa AI Interviewer server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	commands.Register(root, cfg, log)

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Str("event", "command_failed").Msg("command failed")
		stop()
		os.Exit(1)
	}
}
