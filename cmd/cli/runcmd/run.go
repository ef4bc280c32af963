package runcmd

import (
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"batchrunner/internal/config"
	"batchrunner/internal/database"
	"batchrunner/internal/job"
	"batchrunner/internal/metrics"
	"batchrunner/internal/pipeline"
	"batchrunner/internal/queue"
	"batchrunner/internal/sink"
	"batchrunner/internal/source"
)

var Command = &cobra.Command{
	Use:   "run",
	Short: "Run service",
	Long:  "Run the batch job on a schedule or a single time",
}

func init() {
	Command.AddCommand(onceCmd)
	Command.AddCommand(schedulerCmd)
}

// services holds the connections a job needs. db and queue are only opened when the configured
// source or sink uses them.
type services struct {
	conf     *config.BRConfig
	db       *sqlx.DB
	queue    *queue.RedisClient
	recorder *metrics.PrometheusRecorder
}

func mustServices(cmd *cobra.Command) *services {
	conf := config.FromCobraCmd(cmd)
	zerolog.SetGlobalLevel(conf.Level())

	s := &services{
		conf:     conf,
		recorder: metrics.NewPrometheusRecorder(),
	}
	if conf.NeedsDatabase() {
		s.db = mustDatabase(conf)
	}
	if conf.Sink.Type == config.SinkRedis {
		s.queue = mustQueue(conf)
	}
	return s
}

func (s *services) close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error().Err(err).Msg("Could not close db cleanly on shutdown")
		}
		s.db = nil
	}

	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			log.Error().Err(err).Msg("Could not close redis queue cleanly on shutdown")
		}
		s.queue = nil
	}
}

// launcher creates the job launcher. Every run gets a fresh reader and writer.
func (s *services) launcher() *job.Launcher {
	conf := s.conf
	stepName := conf.Batch.JobName + "Step"

	var client queue.Client
	if s.queue != nil {
		client = s.queue
	}

	factory := func(params job.Parameters) (*pipeline.Pipeline, error) {
		log.Debug().
			Str("job", conf.Batch.JobName).
			Interface("params", params).
			Msg("Building pipeline")

		reader, err := source.New(conf, s.db)
		if err != nil {
			return nil, err
		}
		writer, err := sink.New(conf, s.db, client, stepName)
		if err != nil {
			return nil, err
		}
		return pipeline.New(reader, writer, conf.Batch.ChunkSize,
			pipeline.WithName(stepName),
			pipeline.WithRecorder(s.recorder),
		)
	}

	return job.NewLauncher(conf.Batch.JobName, factory, s.recorder)
}

func mustDatabase(conf *config.BRConfig) *sqlx.DB {
	db, err := database.New(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to database")
	}

	return db
}

func mustQueue(conf *config.BRConfig) *queue.RedisClient {
	redis, err := queue.NewRedisClient(conf.Queue.Host, conf.Queue.Password, conf.Queue.DB, conf.Queue.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to redis queue")
	}
	return redis
}
