package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	SinkLog      = "log"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
)

// BRConfig holds the application configuration
type BRConfig struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Scheduler struct {
		Period       time.Duration `mapstructure:"period"`
		InitialDelay time.Duration `mapstructure:"initial_delay"`
		Enabled      bool          `mapstructure:"enabled"`
		Workers      int           `mapstructure:"workers"`
		QueueSize    int           `mapstructure:"queue_size"`
	} `mapstructure:"scheduler"`

	Batch struct {
		JobName   string `mapstructure:"job_name"`
		ChunkSize int    `mapstructure:"chunk_size"`
	} `mapstructure:"batch"`

	Source struct {
		Type      string `mapstructure:"type"`
		Path      string `mapstructure:"path"`
		Delimiter string `mapstructure:"delimiter"`
		Header    bool   `mapstructure:"header"`
		Query     string `mapstructure:"query"`
	} `mapstructure:"source"`

	Sink struct {
		Type  string `mapstructure:"type"`
		Table string `mapstructure:"table"`
	} `mapstructure:"sink"`

	Queue struct {
		Host     string `mapstructure:"host"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"queue"`

	LogLevel string `mapstructure:"log_level"`
}

// LoadEnvFile loads environment variables from a dotenv file, ./.env when path is empty.
// Variables already present in the environment are not overridden.
func LoadEnvFile(path string) error {
	if path == "" {
		return godotenv.Load()
	}
	return godotenv.Load(path)
}

// LoadConfig reads the configuration from a file or environment variables. Paths given
// explicitly, or through BR_CONFIG_PATH, must exist and parse: the first one is used and any
// error reading it is returned. Without paths, ./config.yaml is read when present.
func LoadConfig(configPaths ...string) (*BRConfig, error) {
	// can specify config path from environment
	if path, exists := os.LookupEnv("BR_CONFIG_PATH"); exists {
		configPaths = append(configPaths, path)
	}
	if len(configPaths) > 0 {
		path := configPaths[0]
		config, err := loadPath(path)
		if err != nil {
			return nil, fmt.Errorf("could not load config from %s: %w", path, err)
		}
		return config, nil
	}

	v := newViper()
	// finally read from current working directory
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	cwd, _ := os.Getwd()

	config, err := readConfig(v, cwd)
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// no config file anywhere, run on defaults and environment
		config, err = unmarshal(v, cwd)
		if err != nil {
			return nil, err
		}
	}
	return config, nil
}

// loadPath reads a config file, or config.yaml within a directory
func loadPath(path string) (*BRConfig, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	v := newViper()
	if fi.IsDir() {
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	} else {
		v.SetConfigFile(path)
	}
	return readConfig(v, path)
}

// newViper creates a viper instance with default values and environment overrides
func newViper() *viper.Viper {
	v := viper.New()

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "batchrunner")
	v.SetDefault("database.sslmode", "disable")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Scheduler defaults
	v.SetDefault("scheduler.period", "5s")
	v.SetDefault("scheduler.initial_delay", "0s")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.workers", 1)
	v.SetDefault("scheduler.queue_size", 4)

	// Batch defaults
	v.SetDefault("batch.job_name", "job")
	v.SetDefault("batch.chunk_size", 2)

	v.SetDefault("source.type", SourceCSV)
	v.SetDefault("source.path", "books.csv")
	v.SetDefault("source.delimiter", ",")
	v.SetDefault("source.header", false)
	v.SetDefault("source.query", "SELECT id, name FROM books ORDER BY id")

	v.SetDefault("sink.type", SinkLog)
	v.SetDefault("sink.table", "books_out")

	v.SetDefault("queue.host", "localhost:6379")
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 0)
	v.SetDefault("queue.name", "batchrunner:chunks")

	// Log level default
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("BR")                               // Prefix for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env vars
	v.AutomaticEnv()                                   // Read environment variables

	return v
}

func readConfig(v *viper.Viper, path string) (*BRConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		log.Warn().
			Str("path", path).
			Msg("Could not read config file")
		return nil, err
	}
	return unmarshal(v, path)
}

func unmarshal(v *viper.Viper, path string) (*BRConfig, error) {
	var config BRConfig
	if err := v.Unmarshal(&config); err != nil {
		log.Warn().
			Str("path", path).
			Msg("Could not unmarshall config")
		return nil, err
	}
	return &config, nil
}

// Validate reports every invalid option at once
func (c *BRConfig) Validate() error {
	var errs []error

	if c.Batch.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("batch.chunk_size must be at least 1, got %d", c.Batch.ChunkSize))
	}
	if c.Scheduler.Period <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.period must be positive, got %s", c.Scheduler.Period))
	}
	if c.Scheduler.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("scheduler.initial_delay must not be negative, got %s", c.Scheduler.InitialDelay))
	}
	if c.Scheduler.Workers < 1 {
		errs = append(errs, fmt.Errorf("scheduler.workers must be at least 1, got %d", c.Scheduler.Workers))
	}
	if c.Scheduler.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("scheduler.queue_size must not be negative, got %d", c.Scheduler.QueueSize))
	}

	switch c.Source.Type {
	case SourceCSV:
		if utf8.RuneCountInString(c.Source.Delimiter) != 1 {
			errs = append(errs, fmt.Errorf("source.delimiter must be a single character, got %q", c.Source.Delimiter))
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Source.Query) == "" {
			errs = append(errs, errors.New("source.query is required for a postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.type %q", c.Source.Type))
	}

	switch c.Sink.Type {
	case SinkLog, SinkRedis:
	case SinkPostgres:
		if strings.TrimSpace(c.Sink.Table) == "" {
			errs = append(errs, errors.New("sink.table is required for a postgres sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink.type %q", c.Sink.Type))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level: %w", err))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level, falling back to info
func (c *BRConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Delimiter returns the source delimiter as a rune
func (c *BRConfig) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Source.Delimiter)
	return r
}

// NeedsDatabase reports whether the source or the sink reads or writes postgres
func (c *BRConfig) NeedsDatabase() bool {
	return c.Source.Type == SourcePostgres || c.Sink.Type == SinkPostgres
}

// GetDatabaseURL returns a formatted database connection string
func (c *BRConfig) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ServerAddr returns the address the console listens on
func (c *BRConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
