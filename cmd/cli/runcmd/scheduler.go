package runcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"batchrunner/internal/api"
	"batchrunner/internal/registry"
	"batchrunner/internal/scheduler"
	"batchrunner/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Launches the job at a fixed rate and serves the control console",
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Msg("Running scheduler process")
		svc := mustServices(cmd)
		conf := svc.conf
		defer svc.close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reg := registry.New()
		ts := scheduler.NewTaskScheduler(reg)
		pool := worker.New(conf.Scheduler.Workers, conf.Scheduler.QueueSize)
		pool.Start(ctx)

		controller := scheduler.NewController(svc.launcher(), reg, scheduler.ControllerOptions{
			Period:       conf.Scheduler.Period,
			InitialDelay: conf.Scheduler.InitialDelay,
			Enabled:      conf.Scheduler.Enabled,
			Recorder:     svc.recorder,
		})
		if err := controller.Schedule(ts, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule the job")
		}
		ts.Start()

		log.Info().
			Str("job", conf.Batch.JobName).
			Dur("period", conf.Scheduler.Period).
			Int("workers", pool.Size()).
			Bool("enabled", controller.Enabled()).
			Msg("Job scheduled")

		server := api.New(controller, svc.recorder.Handler(), &api.Config{
			Host: conf.Server.Host,
			Port: conf.Server.Port,
		})
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

		select {
		case err := <-errCh:
			if err != nil {
				log.Error().Err(err).Msg("API server failed")
			}
		case sig := <-sigCh:
			log.Info().Msgf("Received signal %v, shutting down...", sig)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Could not shut down API server cleanly")
		}

		controller.CancelFutureTasks()
		<-ts.Stop().Done()
		pool.Stop()

		log.Info().
			Int64("run_count", controller.RunCount()).
			Int64("tick_count", controller.TickCount()).
			Uint64("dropped", pool.Dropped()).
			Msg("Scheduler stopped")
	},
}
