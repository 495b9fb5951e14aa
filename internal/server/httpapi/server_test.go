package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avolkovs/pennywise/internal/api"
	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/logging"
	"github.com/avolkovs/pennywise/internal/server/auth"
	"github.com/avolkovs/pennywise/internal/server/config"
	"github.com/avolkovs/pennywise/internal/server/models"
	expensesrepo "github.com/avolkovs/pennywise/internal/server/repositories/expenses"
	refreshtokensrepo "github.com/avolkovs/pennywise/internal/server/repositories/refreshtokens"
	subcategoriesrepo "github.com/avolkovs/pennywise/internal/server/repositories/subcategories"
	usersrepo "github.com/avolkovs/pennywise/internal/server/repositories/users"
	"github.com/avolkovs/pennywise/internal/server/services"

	_ "modernc.org/sqlite"
)

const testSecret = "test-secret"

// In-memory repositories; the HTTP layer is what is under test here.

type memUsers struct{ byName map[string]*models.User }

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	if _, ok := m.byName[u.Username]; ok {
		return common.ErrAlreadyExists
	}
	m.byName[u.Username] = u
	return nil
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type memTokens struct{ byToken map[string]*models.RefreshToken }

func (m *memTokens) Add(ctx context.Context, t *models.RefreshToken) error {
	m.byToken[t.Token] = t
	return nil
}

func (m *memTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := m.byToken[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return t, nil
}

func (m *memTokens) Delete(ctx context.Context, token string) error {
	delete(m.byToken, token)
	return nil
}

type memExpenses struct{ byID map[string]*models.Expense }

func (m *memExpenses) GetByID(ctx context.Context, userID, id string) (*models.Expense, error) {
	e, ok := m.byID[id]
	if !ok || e.UserID != userID {
		return nil, common.ErrNotFound
	}
	return e, nil
}

func (m *memExpenses) Insert(ctx context.Context, e *models.Expense) error {
	if existing, ok := m.byID[e.ID]; ok && existing.UserID != e.UserID {
		return common.ErrAlreadyExists
	}
	m.byID[e.ID] = e
	return nil
}

func (m *memExpenses) Update(ctx context.Context, e *models.Expense) error {
	existing, ok := m.byID[e.ID]
	if !ok || existing.UserID != e.UserID {
		return common.ErrNotFound
	}
	m.byID[e.ID] = e
	return nil
}

func (m *memExpenses) Delete(ctx context.Context, userID, id string) error {
	if e, ok := m.byID[id]; ok && e.UserID == userID {
		delete(m.byID, id)
	}
	return nil
}

func (m *memExpenses) SelectAll(ctx context.Context, userID string) ([]*models.Expense, error) {
	var out []*models.Expense
	for _, e := range m.byID {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memExpenses) SelectUpdatedSince(ctx context.Context, userID string, sinceMillis int64) ([]*models.Expense, error) {
	var out []*models.Expense
	for _, e := range m.byID {
		if e.UserID == userID && e.UpdatedAt > sinceMillis {
			out = append(out, e)
		}
	}
	return out, nil
}

type memSubcats struct{ items []*models.Subcategory }

func (m *memSubcats) SelectAll(ctx context.Context, userID string) ([]*models.Subcategory, error) {
	return m.items, nil
}

func (m *memSubcats) Insert(ctx context.Context, s *models.Subcategory) error {
	for _, existing := range m.items {
		if existing.Category == s.Category && existing.Name == s.Name {
			return common.ErrAlreadyExists
		}
	}
	m.items = append(m.items, s)
	return nil
}

type memRepoManager struct {
	users   *memUsers
	tokens  *memTokens
	exps    *memExpenses
	subcats *memSubcats
}

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{
		users:   &memUsers{byName: map[string]*models.User{}},
		tokens:  &memTokens{byToken: map[string]*models.RefreshToken{}},
		exps:    &memExpenses{byID: map[string]*models.Expense{}},
		subcats: &memSubcats{},
	}
}

func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.users }
func (m *memRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.tokens }
func (m *memRepoManager) Expenses(db dbx.DBTX) expensesrepo.Repository           { return m.exps }
func (m *memRepoManager) Subcategories(db dbx.DBTX) subcategoriesrepo.Repository { return m.subcats }

func setupServer(t *testing.T) (*httptest.Server, *memRepoManager) {
	t.Helper()

	// Real transactions back WithTx; the fakes hold the data.
	db, err := sql.Open("sqlite", "file:httpapi?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	rm := newMemRepoManager()
	cfg := &config.Config{
		SecretKey:                    testSecret,
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	us := services.NewUserService(db, rm, cfg)
	es := services.NewExpenseService(db, rm, nil)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := NewServer(":0", us, es, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, rm
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func registerAndLogin(t *testing.T, ts *httptest.Server) api.TokenPair {
	t.Helper()
	creds := api.Credentials{Username: "alice", Password: "hunter2"}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pair api.TokenPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestPing_PublicEndpoint(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_RegisterLoginAndAccess(t *testing.T) {
	ts, _ := setupServer(t)
	pair := registerAndLogin(t, ts)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/expenses", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_DuplicateRegisterConflicts(t *testing.T) {
	ts, _ := setupServer(t)
	registerAndLogin(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "",
		api.Credentials{Username: "alice", Password: "other"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuth_MissingTokenRejected(t *testing.T) {
	ts, _ := setupServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/expenses", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_ExpiredTokenSignalsRefresh(t *testing.T) {
	ts, _ := setupServer(t)
	registerAndLogin(t, ts)

	stale, err := auth.GenerateToken("u1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/expenses", stale, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var apiErr api.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	require.Equal(t, common.TokenExpiredMessage, apiErr.Error)
}

func TestAuth_RefreshRotatesTokens(t *testing.T) {
	ts, _ := setupServer(t)
	pair := registerAndLogin(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "",
		api.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fresh api.TokenPair
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fresh))
	require.NotEqual(t, pair.RefreshToken, fresh.RefreshToken)

	// The old refresh token is burned.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "",
		api.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpenses_CRUDRoundTrip(t *testing.T) {
	ts, _ := setupServer(t)
	pair := registerAndLogin(t, ts)

	in := api.Expense{ID: "e1", Amount: "12.50", Category: "food", Subcategory: "groceries", Date: "2026-08-10", Note: "milk"}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", pair.AccessToken, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/expenses/e1", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got api.Expense
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "12.5", got.Amount)
	require.Equal(t, "2026-08-10", got.Date)
	require.Greater(t, got.UpdatedAt, int64(0))

	in.Note = "milk and bread"
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/expenses/e1", pair.AccessToken, in)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/expenses/e1", pair.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/expenses/e1", pair.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deletes are idempotent.
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/expenses/e1", pair.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExpenses_ListSinceFilters(t *testing.T) {
	ts, rm := setupServer(t)
	pair := registerAndLogin(t, ts)

	userID := ""
	for _, u := range rm.users.byName {
		userID = u.ID
	}
	rm.exps.byID["old"] = &models.Expense{ID: "old", UserID: userID, Amount: "1", Category: "c", Date: time.Now(), UpdatedAt: 100}
	rm.exps.byID["new"] = &models.Expense{ID: "new", UserID: userID, Amount: "2", Category: "c", Date: time.Now(), UpdatedAt: 900}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/expenses?since=500", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []api.Expense
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	require.Equal(t, "new", items[0].ID)
}

func TestExpenses_BadPayloadRejected(t *testing.T) {
	ts, _ := setupServer(t)
	pair := registerAndLogin(t, ts)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", pair.AccessToken,
		api.Expense{ID: "e1", Amount: "not-a-number", Category: "food", Date: "2026-08-10"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", pair.AccessToken,
		api.Expense{ID: "e1", Amount: "1", Category: "food", Date: "10.08.2026"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubcategories_CreateAndConflict(t *testing.T) {
	ts, _ := setupServer(t)
	pair := registerAndLogin(t, ts)

	sub := api.Subcategory{ID: "s1", Category: "food", Name: "snacks"}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/subcategories", pair.AccessToken, sub)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sub.ID = "s2"
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/subcategories", pair.AccessToken, sub)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/subcategories", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []api.Subcategory
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
}
