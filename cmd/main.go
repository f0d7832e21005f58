package main

import (
	"chat-store/infrastructure/grpc/server"
	"chat-store/infrastructure/rest"
	"chat-store/infrastructure/search"
	"chat-store/infrastructure/storage"
	"chat-store/runtime/workers"
	"chat-store/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps every deferred Close reachable before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Store
	repository, err := storage.OpenMessageRepository(ctx, storage.Config{
		Driver:         config.StoreDriver,
		BadgerFilepath: config.BadgerFilepath,
		MongoURI:       config.MongoURI,
		MongoDatabase:  config.MongoDatabase,
		PostgresDSN:    config.PostgresDSN,
	}, log)
	if err != nil {
		return fmt.Errorf("store opening failed: %w", err)
	}
	defer func() { _ = repository.Close() }()

	// 3. Search index
	index, err := search.NewMessageIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	chatService := services.NewChatService(log, repository, index, config.SearchLimit)
	// An in-memory index starts empty and always needs the rebuild
	if config.SearchReindex || config.BlugeFilepath == "" {
		if _, err = chatService.Reindex(ctx); err != nil {
			return fmt.Errorf("search reindex failed: %w", err)
		}
	}

	// 4. Servers under supervision
	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr: fmt.Sprintf("%s:%d", config.HTTPHost, config.HTTPPort),
		Handler: rest.NewRouter(log, chatService, rest.Config{
			CorsOrigins:    config.Origins(),
			RequestTimeout: config.RequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcAddress := fmt.Sprintf("%s:%d", config.HTTPHost, config.GRPCPort)

	sup := workers.NewSupervisor(log, config.RestartInterval, config.MaxRestarts).Add(
		workers.NewHTTPServer(log, httpServer, config.ShutdownTimeout),
		workers.NewGRPCServer(log, server.New(log, chatService), workers.TCPListener(grpcAddress)),
	)

	// 5. Wait for Stop or Error, store and index close through the defers
	log.Info("chat-store started", "store", config.StoreDriver, "http", httpServer.Addr, "grpc", grpcAddress)
	if err = sup.Run(ctx); err != nil {
		return err
	}
	log.Info("Program stopped cleanly")
	return nil
}
