package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solara-medspa/backend-go/internal/domain"
	"github.com/solara-medspa/backend-go/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	opts    domain.SyncOptions
	summary *domain.SyncSummary
	err     error
}

func (f *fakeRunner) Sync(_ context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	f.opts = opts
	return f.summary, f.err
}

type fakeCache struct {
	last *domain.SyncSummary
}

func (f *fakeCache) GetLastSummary(context.Context) (*domain.SyncSummary, bool, error) {
	return f.last, f.last != nil, nil
}

func (f *fakeCache) SetLastSummary(_ context.Context, s *domain.SyncSummary) error {
	f.last = s
	return nil
}

func (f *fakeCache) GetSalesSummary(context.Context, string, string) (*domain.SalesSummary, bool, error) {
	return nil, false, nil
}

func (f *fakeCache) SetSalesSummary(context.Context, string, string, *domain.SalesSummary) error {
	return nil
}

func (f *fakeCache) InvalidateSales(context.Context) error { return nil }

type fakeArchive struct {
	objects []storage.ObjectInfo
	err     error
	prefix  string
}

func (f *fakeArchive) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.prefix = prefix
	return f.objects, f.err
}

func (f *fakeArchive) UploadObject(context.Context, string, []byte, string) error {
	return nil
}

func syncRouter(runner SyncRunner, c *fakeCache, archive storage.ObjectStorage) *gin.Engine {
	router := gin.New()
	handler := NewSyncHandler(runner, c, archive)
	router.POST("/sync/sales", handler.RunSync)
	router.GET("/sync/sales/last", handler.LastSync)
	router.GET("/sync/sales/archive", handler.ListArchive)
	return router
}

func TestRunSyncDefaults(t *testing.T) {
	runner := &fakeRunner{summary: &domain.SyncSummary{Success: true, RunID: "run-1"}}
	router := syncRouter(runner, &fakeCache{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/sales", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SyncOptions{}, runner.opts)

	var got domain.SyncSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
}

func TestRunSyncParsesOptions(t *testing.T) {
	runner := &fakeRunner{summary: &domain.SyncSummary{Success: true}}
	router := syncRouter(runner, &fakeCache{}, nil)

	body := `{"dryRun":true,"fullRefresh":true,"mode":"create","fileUrl":"https://f/x.csv"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/sales", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, runner.opts.DryRun)
	assert.True(t, runner.opts.FullRefresh)
	assert.Equal(t, domain.SyncModeCreate, runner.opts.Mode)
	assert.Equal(t, "https://f/x.csv", runner.opts.FileURL)
}

func TestRunSyncRejectsUnknownMode(t *testing.T) {
	runner := &fakeRunner{}
	router := syncRouter(runner, &fakeCache{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/sales", strings.NewReader(`{"mode":"weekly"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunSyncFailureIncludesPartialSummary(t *testing.T) {
	runner := &fakeRunner{
		summary: &domain.SyncSummary{RunID: "run-1", HeadersSample: []string{"Service", "Revenue"}},
		err:     errors.New("no line could be normalized"),
	}
	router := syncRouter(runner, &fakeCache{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync/sales", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Revenue")
}

func TestLastSync(t *testing.T) {
	cache := &fakeCache{}
	router := syncRouter(&fakeRunner{}, cache, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync/sales/last", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	cache.last = &domain.SyncSummary{RunID: "run-9", FinishedAt: time.Now().UTC()}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync/sales/last", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "run-9")
}

func TestListArchive(t *testing.T) {
	archive := &fakeArchive{objects: []storage.ObjectInfo{
		{Key: "exports/2026/02/03/exp-1.csv", Size: 120},
	}}
	router := syncRouter(&fakeRunner{}, &fakeCache{}, archive)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync/sales/archive?prefix=exports/2026/02", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "exports/2026/02", archive.prefix)
	assert.Contains(t, w.Body.String(), "exp-1.csv")
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestListArchiveNotConfigured(t *testing.T) {
	router := syncRouter(&fakeRunner{}, &fakeCache{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync/sales/archive", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
