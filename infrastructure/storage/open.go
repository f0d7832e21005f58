package storage

import (
	"chat-store/errors"
	"chat-store/repositories"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	DriverBadger   = "badger"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver         string
	BadgerFilepath string
	MongoURI       string
	MongoDatabase  string
	PostgresDSN    string
}

// OpenMessageRepository connects the backend named by cfg.Driver.
// The caller owns the returned repository and must Close it.
func OpenMessageRepository(ctx context.Context, cfg Config, log *slog.Logger) (repositories.IMessageRepository, error) {
	switch cfg.Driver {
	case DriverBadger:
		db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, fmt.Errorf("database opening failed: %w", err)
		}
		return repositories.NewMessageRepository(db, log), nil
	case DriverMongo:
		repository, err := NewMongoMessageRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		return repository, nil
	case DriverPostgres:
		repository, err := NewPostgresMessageRepository(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		return repository, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownStoreDriver, cfg.Driver)
	}
}
