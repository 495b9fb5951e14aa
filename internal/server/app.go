// Package server initializes and runs the record service: it opens the
// database, wires repositories and services, and serves the HTTP API with
// graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkovs/pennywise/internal/logging"
	"github.com/avolkovs/pennywise/internal/server/config"
	"github.com/avolkovs/pennywise/internal/server/httpapi"
	"github.com/avolkovs/pennywise/internal/server/repositories/repomanager"
	"github.com/avolkovs/pennywise/internal/server/services"
	"github.com/avolkovs/pennywise/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	receipts := storage.NewReceiptStorage(storage.Config{
		User:         cfg.S3RootUser,
		Password:     cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})

	us := services.NewUserService(db, rm, cfg)
	es := services.NewExpenseService(db, rm, receipts)
	srv := httpapi.NewServer(cfg.EndpointAddr, us, es, logger)

	return &App{config: cfg, logger: logger, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "server error", "error", err)
	}
}
