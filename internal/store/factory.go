package store

import (
	"context"
	"errors"
	"strings"
)

const (
	EngineMemory   = "memory"
	EngineJSON     = "json"
	EngineSQLite   = "sqlite"
	EngineRedis    = "redis"
	EnginePostgres = "postgres"
)

type Options struct {
	Engine string
	// Path is the data file for the json and sqlite engines.
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	PostgresURL string
}

func NewByEngine(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineSQLite:
		return NewSQLiteStore(opts.Path)
	case EngineJSON:
		return NewJSONStore(opts.Path)
	case EngineMemory:
		return NewMemoryStore(), nil
	case EngineRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case EnginePostgres:
		return NewPostgresStore(ctx, opts.PostgresURL)
	default:
		return nil, errors.New("unsupported store engine: " + opts.Engine)
	}
}
