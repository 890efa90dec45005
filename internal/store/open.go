package store

import (
	"context"

	"github.com/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config selects and configures the backend.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Badger   BadgerConfig   `mapstructure:"badger"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BadgerConfig struct {
	Dir string `mapstructure:"dir"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Open connects the backend named by cfg.Backend. An empty name selects
// the memory store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendBadger:
		return OpenBadger(cfg.Badger.Dir)
	case BackendMongo:
		if cfg.Mongo.URI == "" {
			return nil, errors.New("store.mongo.uri is required for the mongo backend")
		}
		db := cfg.Mongo.Database
		if db == "" {
			db = "docgraph"
		}
		return OpenMongo(ctx, cfg.Mongo.URI, db)
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, errors.New("store.postgres.dsn is required for the postgres backend")
		}
		return OpenPostgres(ctx, cfg.Postgres.DSN)
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Backend)
	}
}
