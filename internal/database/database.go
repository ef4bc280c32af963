package database

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"batchrunner/internal/config"
)

// New connects to the postgres database used by the postgres source and sink
func New(conf *config.BRConfig) (*sqlx.DB, error) {
	return sqlx.Connect("pgx", conf.GetDatabaseURL())
}
