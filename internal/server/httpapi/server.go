// Package httpapi exposes the record service over HTTP/JSON: auth endpoints,
// expense CRUD with changed-since listing, reference data, and receipt
// presigning.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkovs/pennywise/internal/logging"
	"github.com/avolkovs/pennywise/internal/server/services"
)

type Server struct {
	addr           string
	engine         *gin.Engine
	userService    *services.UserService
	expenseService *services.ExpenseService
	logger         logging.Logger
}

func NewServer(addr string, userService *services.UserService, expenseService *services.ExpenseService, logger logging.Logger) *Server {
	s := &Server{
		addr:           addr,
		userService:    userService,
		expenseService: expenseService,
		logger:         logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/api/ping", s.handlePing)
	engine.POST("/api/auth/register", s.handleRegister)
	engine.POST("/api/auth/login", s.handleLogin)
	engine.POST("/api/auth/refresh", s.handleRefresh)

	authed := engine.Group("/api", s.authMiddleware())
	authed.GET("/expenses", s.handleListExpenses)
	authed.POST("/expenses", s.handleCreateExpense)
	authed.GET("/expenses/:id", s.handleGetExpense)
	authed.PUT("/expenses/:id", s.handleUpdateExpense)
	authed.DELETE("/expenses/:id", s.handleDeleteExpense)
	authed.POST("/expenses/:id/receipt/upload-url", s.handleReceiptUploadURL)
	authed.GET("/expenses/:id/receipt/download-url", s.handleReceiptDownloadURL)
	authed.GET("/subcategories", s.handleListSubcategories)
	authed.POST("/subcategories", s.handleCreateSubcategory)

	s.engine = engine
	return s
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
