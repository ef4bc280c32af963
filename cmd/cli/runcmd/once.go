package runcmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"batchrunner/internal/models"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs the job a single time and exits",
	Run: func(cmd *cobra.Command, args []string) {
		svc := mustServices(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		run := svc.launcher().RunJob(ctx, time.Now())
		stop()
		svc.close()

		log.Info().
			Str("run_id", run.ID).
			Str("status", string(run.Status)).
			Int("read_count", run.ReadCount).
			Int("write_count", run.WriteCount).
			Dur("duration", run.Duration()).
			Msg("Job run finished")

		if run.Status == models.RsFailed {
			os.Exit(1)
		}
	},
}
