package monitor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/banksync/internal/store"
	"github.com/baely/banksync/internal/txsync"
	"github.com/baely/banksync/pkg/model"
)

type stubProvider struct{}

func (stubProvider) CreateCursor(ctx context.Context, accessToken string) (string, error) {
	return "cursor-0", nil
}

func (stubProvider) FetchDelta(ctx context.Context, accessToken, cursor string) (model.Delta, error) {
	return model.Delta{NextCursor: cursor}, nil
}

func newTestService(t *testing.T, adminCode string) (*Service, *txsync.Coordinator) {
	t.Helper()
	coordinator := txsync.NewCoordinator(txsync.Config{
		Provider: stubProvider{},
		Store:    store.NewMemory(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	scheduler := txsync.NewScheduler(txsync.SchedulerConfig{
		Coordinator: coordinator,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	svc := New(Config{
		Coordinator: coordinator,
		Scheduler:   scheduler,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		AdminCode:   adminCode,
	})
	return svc, coordinator
}

func doRequest(t *testing.T, svc *Service, method, path, adminCode string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if adminCode != "" {
		req.Header.Set("X-Admin-Code", adminCode)
	}
	rec := httptest.NewRecorder()
	svc.Chi().ServeHTTP(rec, req)
	return rec
}

func TestStatusListsAccounts(t *testing.T) {
	svc, coordinator := newTestService(t, "")
	coordinator.RegisterAccount("item-1", "token-1")
	coordinator.RegisterAccount("item-2", "token-2")

	rec := doRequest(t, svc, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Accounts []model.SyncStatus  `json:"accounts"`
			Summary  model.StatusSummary `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Accounts, 2)
	assert.Equal(t, "item-1", resp.Data.Accounts[0].AccountID)
	assert.Equal(t, 2, resp.Data.Summary.TotalAccounts)
}

func TestAccountStatus(t *testing.T) {
	svc, coordinator := newTestService(t, "")
	coordinator.RegisterAccount("item-1", "token-1")

	rec := doRequest(t, svc, http.MethodGet, "/status/item-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data model.SyncStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "item-1", resp.Data.AccountID)
	assert.Equal(t, model.SyncStateIdle, resp.Data.State)
}

func TestAccountStatusNotFound(t *testing.T) {
	svc, _ := newTestService(t, "")
	rec := doRequest(t, svc, http.MethodGet, "/status/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncNowRequiresAdminCode(t *testing.T) {
	svc, _ := newTestService(t, "hunter2")

	rec := doRequest(t, svc, http.MethodPost, "/sync", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, svc, http.MethodPost, "/sync", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncNowRunsAllAccounts(t *testing.T) {
	svc, coordinator := newTestService(t, "hunter2")
	coordinator.RegisterAccount("item-1", "token-1")

	rec := doRequest(t, svc, http.MethodPost, "/sync", "hunter2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status, ok := coordinator.Registry().Get("item-1")
	require.True(t, ok)
	assert.Equal(t, model.SyncStateIdle, status.State)
	cursor, _ := coordinator.Cursor("item-1")
	assert.Equal(t, "cursor-0", cursor)
}

func TestEmptyAdminCodeDisablesMutations(t *testing.T) {
	svc, _ := newTestService(t, "")
	rec := doRequest(t, svc, http.MethodPost, "/sync", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterAccount(t *testing.T) {
	svc, coordinator := newTestService(t, "hunter2")

	body := strings.NewReader(`{"account_id":"item-1","access_token":"token-1"}`)
	rec := doRequest(t, svc, http.MethodPost, "/accounts", "hunter2", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"item-1"}, coordinator.Accounts())
}

func TestRegisterAccountValidatesBody(t *testing.T) {
	svc, _ := newTestService(t, "hunter2")

	body := strings.NewReader(`{"account_id":"item-1"}`)
	rec := doRequest(t, svc, http.MethodPost, "/accounts", "hunter2", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, svc, http.MethodPost, "/accounts", "hunter2", strings.NewReader("not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelinkResetsCursor(t *testing.T) {
	svc, coordinator := newTestService(t, "hunter2")
	coordinator.RegisterAccount("item-1", "token-1")
	_, err := coordinator.SyncAccount(context.Background(), "item-1")
	require.NoError(t, err)
	cursor, _ := coordinator.Cursor("item-1")
	require.NotEmpty(t, cursor)

	body := strings.NewReader(`{"account_id":"item-1","access_token":"token-2","relink":true}`)
	rec := doRequest(t, svc, http.MethodPost, "/accounts", "hunter2", body)
	require.Equal(t, http.StatusOK, rec.Code)

	cursor, ok := coordinator.Cursor("item-1")
	require.True(t, ok)
	assert.Empty(t, cursor)
}

func TestUnlinkAccount(t *testing.T) {
	svc, coordinator := newTestService(t, "hunter2")
	coordinator.RegisterAccount("item-1", "token-1")

	rec := doRequest(t, svc, http.MethodDelete, "/accounts/item-1", "hunter2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, coordinator.Accounts())
	_, ok := coordinator.Registry().Get("item-1")
	assert.False(t, ok)
}
