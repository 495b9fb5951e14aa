// Package cli implements the interactive Pennywise client: a small REPL over
// the expense service, with sync status in the prompt.
package cli

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/avolkovs/pennywise/internal/client/client"
	"github.com/avolkovs/pennywise/internal/client/config"
	"github.com/avolkovs/pennywise/internal/client/connectivity"
	"github.com/avolkovs/pennywise/internal/client/orchestrator"
	"github.com/avolkovs/pennywise/internal/client/services"
	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/logging"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	authService    services.AuthService
	expenseService services.ExpenseService
	monitor        *connectivity.Monitor
	orch           *orchestrator.Orchestrator
	userName       string
	started        bool
	reader         *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	apiClient := client.NewHTTPClient(c.ServerEndpointURL)
	monitor := connectivity.NewMonitor(apiClient)

	app := &App{
		config:      c,
		logger:      logger,
		authService: services.NewAuthService(apiClient),
		monitor:     monitor,
		reader:      bufio.NewReader(os.Stdin),
	}

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		if !errors.Is(err, common.ErrStorageUnavailable) {
			return nil, err
		}
		// Local storage denied: stay up in a disabled mode so the user sees
		// the condition instead of a crash. The orchestrator still exists so
		// status observers see StorageBlocked; it is never started, so its
		// nil syncer is never touched.
		logger.Error(ctx, "local storage unavailable", "error", err)
		app.orch = orchestrator.New(nil, monitor, logger, orchestrator.DefaultOptions())
		app.orch.SetStorageBlocked(true)
		return app, nil
	}

	app.expenseService = services.NewExpenseService(apiClient, monitor, repos, logger)
	app.orch = orchestrator.New(app.expenseService, monitor, logger, orchestrator.DefaultOptions())
	return app, nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)

	if a.orch.Status().StorageBlocked {
		printlnFn("Local storage is unavailable; expense commands are disabled.")
	} else {
		go a.monitor.Watch(ctx, a.config.OnlineCheckInterval)
	}

	a.Root(ctx)
}

// startOrchestration arms auto-sync once, after the first successful login.
func (a *App) startOrchestration(ctx context.Context) {
	if a.started || a.orch.Status().StorageBlocked {
		return
	}
	a.started = true
	a.orch.Start(ctx)
}
