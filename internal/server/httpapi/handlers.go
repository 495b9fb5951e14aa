package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/avolkovs/pennywise/internal/api"
	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/server/models"
)

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, api.Error{Error: "not found"})
	case errors.Is(err, common.ErrAlreadyExists):
		c.JSON(http.StatusConflict, api.Error{Error: "already exists"})
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, api.Error{Error: "unauthorized"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.Error{Error: "internal error"})
	}
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var creds api.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad request"})
		return
	}
	if creds.Username == "" || creds.Password == "" {
		c.JSON(http.StatusBadRequest, api.Error{Error: "username and password are required"})
		return
	}

	if _, err := s.userService.Register(c.Request.Context(), creds.Username, creds.Password); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds api.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad request"})
		return
	}

	pair, err := s.userService.Login(c.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad request"})
		return
	}

	pair, err := s.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleListExpenses(c *gin.Context) {
	var since *int64
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.Error{Error: "bad since parameter"})
			return
		}
		since = &v
	}

	items, err := s.expenseService.List(c.Request.Context(), currentUserID(c), since)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]api.Expense, 0, len(items))
	for _, e := range items {
		resp = append(resp, toWire(e))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetExpense(c *gin.Context) {
	e, err := s.expenseService.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWire(e))
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	e, ok := s.bindExpense(c)
	if !ok {
		return
	}

	if err := s.expenseService.Create(c.Request.Context(), e); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWire(e))
}

func (s *Server) handleUpdateExpense(c *gin.Context) {
	e, ok := s.bindExpense(c)
	if !ok {
		return
	}
	e.ID = c.Param("id")

	if err := s.expenseService.Update(c.Request.Context(), e); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWire(e))
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	if err := s.expenseService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListSubcategories(c *gin.Context) {
	items, err := s.expenseService.Subcategories(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]api.Subcategory, 0, len(items))
	for _, item := range items {
		resp = append(resp, api.Subcategory{ID: item.ID, Category: item.Category, Name: item.Name})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateSubcategory(c *gin.Context) {
	var req api.Subcategory
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad request"})
		return
	}
	if req.ID == "" || req.Category == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, api.Error{Error: "id, category and name are required"})
		return
	}

	sub := &models.Subcategory{ID: req.ID, UserID: currentUserID(c), Category: req.Category, Name: req.Name}
	if err := s.expenseService.CreateSubcategory(c.Request.Context(), sub); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleReceiptUploadURL(c *gin.Context) {
	key, url, err := s.expenseService.ReceiptUploadURL(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PresignedURL{Key: key, URL: url})
}

func (s *Server) handleReceiptDownloadURL(c *gin.Context) {
	url, err := s.expenseService.ReceiptDownloadURL(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PresignedURL{URL: url})
}

// bindExpense decodes and validates the wire payload, normalizing the amount
// through decimal parsing.
func (s *Server) bindExpense(c *gin.Context) (*models.Expense, bool) {
	var req api.Expense
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad request"})
		return nil, false
	}
	if req.ID == "" || req.Category == "" {
		c.JSON(http.StatusBadRequest, api.Error{Error: "id and category are required"})
		return nil, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad amount"})
		return nil, false
	}
	date, err := time.Parse(api.DateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "bad date"})
		return nil, false
	}

	return &models.Expense{
		ID:          req.ID,
		UserID:      currentUserID(c),
		Amount:      amount.String(),
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Date:        date,
		Note:        req.Note,
		ReceiptKey:  req.ReceiptKey,
	}, true
}

func toWire(e *models.Expense) api.Expense {
	return api.Expense{
		ID:          e.ID,
		Amount:      e.Amount,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Date:        e.Date.Format(api.DateLayout),
		Note:        e.Note,
		ReceiptKey:  e.ReceiptKey,
		UpdatedAt:   e.UpdatedAt,
	}
}
