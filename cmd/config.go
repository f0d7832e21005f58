package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
	HTTPHost       string        `env:"HTTP_HOST,default=localhost"`
	HTTPPort       int           `env:"HTTP_PORT,default=3000"`
	GRPCPort       int           `env:"GRPC_PORT,default=50051"`
	StoreDriver    string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath string        `env:"BADGER_FILEPATH,default=./data/badger"`
	MongoURI       string        `env:"MONGO_URI"`
	MongoDatabase  string        `env:"MONGO_DATABASE,default=chat"`
	PostgresDSN    string        `env:"POSTGRES_DSN"`
	BlugeFilepath  string        `env:"BLUGE_FILEPATH"`
	SearchReindex  bool          `env:"SEARCH_REINDEX,default=false"`
	SearchLimit    int           `env:"SEARCH_LIMIT,default=20"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	CorsOrigins    string        `env:"CORS_ORIGINS"`
	// Restart policy for the HTTP and gRPC servers
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MaxRestarts     int           `env:"MAX_RESTARTS,default=5"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Origins splits CORS_ORIGINS on commas. Empty means any origin.
func (c Config) Origins() []string {
	origins := lo.Map(strings.Split(c.CorsOrigins, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(origins)
}

// Validate rejects settings the servers cannot run with.
func (c Config) Validate() error {
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be at least 1, got %d", c.SearchLimit)
	}
	return nil
}
