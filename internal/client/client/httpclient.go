package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkovs/pennywise/internal/api"
	"github.com/avolkovs/pennywise/internal/client/models"
	"github.com/avolkovs/pennywise/internal/common"
)

// HTTPClient talks JSON over HTTP to a Pennywise record server. It carries a
// bearer access token and transparently refreshes it once when the server
// reports expiry, retrying the original request.
//
// Safe for concurrent use: the connectivity monitor and the orchestrator's
// background loops issue requests while the REPL logs in or refreshes, so the
// token pair is guarded by a mutex.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) setTokens(pair api.TokenPair) {
	c.mu.Lock()
	c.accessToken = pair.AccessToken
	c.refreshToken = pair.RefreshToken
	c.mu.Unlock()
}

// do issues one request and decodes the response into out (if non-nil).
// Status codes are mapped to sentinel errors; an expired access token is
// refreshed and the request retried once.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	err := c.doOnce(ctx, method, path, body, out)
	if !errors.Is(err, common.ErrTokenExpired) {
		return err
	}
	if _, refresh := c.tokens(); refresh == "" {
		return ErrUnauthorized
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	return c.doOnce(ctx, method, path, body, out)
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if access, _ := c.tokens(); access != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	var apiErr api.Error
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if apiErr.Error == common.TokenExpiredMessage {
			return common.ErrTokenExpired
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrAlreadyExists
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return fmt.Errorf("server error: %s: %s", resp.Status, apiErr.Error)
	}
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	_, refresh := c.tokens()

	var pair api.TokenPair
	err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh",
		api.RefreshRequest{RefreshToken: refresh}, &pair)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, ErrUnauthorized) {
			return ErrUnauthorized
		}
		return err
	}
	c.setTokens(pair)
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.doOnce(ctx, http.MethodPost, "/api/auth/register",
		api.Credentials{Username: username, Password: password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var pair api.TokenPair
	err := c.doOnce(ctx, http.MethodPost, "/api/auth/login",
		api.Credentials{Username: username, Password: password}, &pair)
	if err != nil {
		return err
	}
	c.setTokens(pair)
	return nil
}

// Ping is the active reachability probe; callers bound it with a short
// context timeout.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doOnce(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *HTTPClient) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	return c.listExpenses(ctx, "/api/expenses")
}

func (c *HTTPClient) ListExpensesSince(ctx context.Context, sinceMillis int64) ([]models.Expense, error) {
	q := url.Values{"since": []string{strconv.FormatInt(sinceMillis, 10)}}
	return c.listExpenses(ctx, "/api/expenses?"+q.Encode())
}

func (c *HTTPClient) listExpenses(ctx context.Context, path string) ([]models.Expense, error) {
	var items []api.Expense
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	result := make([]models.Expense, 0, len(items))
	for _, item := range items {
		e, err := fromWire(item)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, nil
}

func (c *HTTPClient) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var item api.Expense
	if err := c.do(ctx, http.MethodGet, "/api/expenses/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return fromWire(item)
}

func (c *HTTPClient) CreateExpense(ctx context.Context, e *models.Expense) error {
	return c.do(ctx, http.MethodPost, "/api/expenses", toWire(e), nil)
}

func (c *HTTPClient) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return c.do(ctx, http.MethodPut, "/api/expenses/"+url.PathEscape(e.ID), toWire(e), nil)
}

func (c *HTTPClient) DeleteExpense(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		// Idempotent: the record is gone either way.
		return nil
	}
	return err
}

func (c *HTTPClient) ListSubcategories(ctx context.Context) ([]models.Subcategory, error) {
	var items []api.Subcategory
	if err := c.do(ctx, http.MethodGet, "/api/subcategories", nil, &items); err != nil {
		return nil, err
	}
	result := make([]models.Subcategory, 0, len(items))
	for _, item := range items {
		result = append(result, models.Subcategory{ID: item.ID, Category: item.Category, Name: item.Name})
	}
	return result, nil
}

func (c *HTTPClient) CreateSubcategory(ctx context.Context, s models.Subcategory) error {
	return c.do(ctx, http.MethodPost, "/api/subcategories",
		api.Subcategory{ID: s.ID, Category: s.Category, Name: s.Name}, nil)
}

func (c *HTTPClient) ReceiptUploadURL(ctx context.Context, expenseID string) (string, string, error) {
	var p api.PresignedURL
	err := c.do(ctx, http.MethodPost, "/api/expenses/"+url.PathEscape(expenseID)+"/receipt/upload-url", nil, &p)
	if err != nil {
		return "", "", err
	}
	return p.Key, p.URL, nil
}

func (c *HTTPClient) ReceiptDownloadURL(ctx context.Context, expenseID string) (string, error) {
	var p api.PresignedURL
	err := c.do(ctx, http.MethodGet, "/api/expenses/"+url.PathEscape(expenseID)+"/receipt/download-url", nil, &p)
	if err != nil {
		return "", err
	}
	return p.URL, nil
}

func toWire(e *models.Expense) api.Expense {
	return api.Expense{
		ID:          e.ID,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Date:        e.Date.Format(api.DateLayout),
		Note:        e.Note,
		ReceiptKey:  e.ReceiptKey,
		UpdatedAt:   e.UpdatedAt,
	}
}

func fromWire(item api.Expense) (*models.Expense, error) {
	amount, err := decimal.NewFromString(item.Amount)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", item.Amount, err)
	}
	date, err := time.Parse(api.DateLayout, item.Date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", item.Date, err)
	}
	return &models.Expense{
		ID:          item.ID,
		Amount:      amount,
		Category:    item.Category,
		Subcategory: item.Subcategory,
		Date:        date,
		Note:        item.Note,
		ReceiptKey:  item.ReceiptKey,
		UpdatedAt:   item.UpdatedAt,
	}, nil
}
