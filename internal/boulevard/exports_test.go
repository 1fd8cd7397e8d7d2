package boulevard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solara-medspa/backend-go/internal/domain"
)

type fakeExportAPI struct {
	createErrs map[string]error
	created    *domain.ReportExportDescriptor
	createdFor []string

	lists     [][]domain.ReportExportDescriptor
	listCalls int
}

func (f *fakeExportAPI) CreateExport(_ context.Context, reportID string) (*domain.ReportExportDescriptor, error) {
	f.createdFor = append(f.createdFor, reportID)
	if err, ok := f.createErrs[reportID]; ok {
		return nil, err
	}
	return f.created, nil
}

func (f *fakeExportAPI) ListExports(context.Context, int) ([]domain.ReportExportDescriptor, error) {
	if f.listCalls < len(f.lists) {
		result := f.lists[f.listCalls]
		f.listCalls++
		return result, nil
	}
	if len(f.lists) == 0 {
		return nil, nil
	}
	return f.lists[len(f.lists)-1], nil
}

const testReportID = "6b9f2d8e-1c45-4a7b-9f20-3d5b8c1e7a90"

func at(hour int) time.Time {
	return time.Date(2026, 2, 1, hour, 0, 0, 0, time.UTC)
}

func TestResolveLatestPicksNewestWithFile(t *testing.T) {
	api := &fakeExportAPI{
		lists: [][]domain.ReportExportDescriptor{{
			{ID: "e1", ReportID: testReportID, FileURL: "https://f/e1", GeneratedAt: at(8)},
			{ID: "e2", ReportID: testReportID, FileURL: "https://f/e2", GeneratedAt: at(10)},
			{ID: "e3", ReportID: testReportID, FileURL: "", GeneratedAt: at(11)},
			{ID: "e4", ReportID: "other-report", FileURL: "https://f/e4", GeneratedAt: at(12)},
		}},
	}
	r := NewResolver(api, testReportID, 1, 0)

	got, err := r.Resolve(context.Background(), domain.SyncModeLatest)
	require.NoError(t, err)
	assert.Equal(t, "e2", got.ID)
}

func TestResolveLatestNoMatch(t *testing.T) {
	api := &fakeExportAPI{
		lists: [][]domain.ReportExportDescriptor{{
			{ID: "e1", ReportID: "other-report", FileURL: "https://f/e1", GeneratedAt: at(8)},
		}},
	}
	r := NewResolver(api, testReportID, 1, 0)

	_, err := r.Resolve(context.Background(), domain.SyncModeLatest)
	assert.ErrorIs(t, err, ErrNoExportFound)
}

func TestResolveNoReportConfigured(t *testing.T) {
	r := NewResolver(&fakeExportAPI{}, "", 1, 0)
	_, err := r.Resolve(context.Background(), domain.SyncModeLatest)
	assert.ErrorIs(t, err, ErrNoReportConfigured)
}

func TestResolveCreateTriesEveryEncoding(t *testing.T) {
	api := &fakeExportAPI{
		createErrs: map[string]error{
			testReportID: errors.New("report not found"),
		},
		created: &domain.ReportExportDescriptor{ID: "fresh", ReportID: testReportID},
		lists: [][]domain.ReportExportDescriptor{{
			{ID: "fresh", ReportID: testReportID, FileURL: "https://f/fresh", GeneratedAt: time.Now()},
		}},
	}
	r := NewResolver(api, testReportID, 2, time.Millisecond)

	got, err := r.Resolve(context.Background(), domain.SyncModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.ID)

	// First encoding failed, the second succeeded, the rest were not tried.
	require.Len(t, api.createdFor, 2)
	assert.Equal(t, testReportID, api.createdFor[0])
}

func TestResolveCreatePollsUntilFileAppears(t *testing.T) {
	api := &fakeExportAPI{
		created: &domain.ReportExportDescriptor{ID: "fresh", ReportID: testReportID},
		lists: [][]domain.ReportExportDescriptor{
			{{ID: "fresh", ReportID: testReportID, FileURL: "", GeneratedAt: time.Now()}},
			{{ID: "fresh", ReportID: testReportID, FileURL: "https://f/fresh", GeneratedAt: time.Now()}},
		},
	}
	r := NewResolver(api, testReportID, 3, time.Millisecond)

	got, err := r.Resolve(context.Background(), domain.SyncModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "https://f/fresh", got.FileURL)
	assert.Equal(t, 2, api.listCalls)
}

func TestResolveCreateFallsBackToNewestMatch(t *testing.T) {
	// The requested export never gets a file, but an older one has one.
	api := &fakeExportAPI{
		created: &domain.ReportExportDescriptor{ID: "fresh", ReportID: testReportID},
		lists: [][]domain.ReportExportDescriptor{{
			{ID: "fresh", ReportID: testReportID, FileURL: "", GeneratedAt: time.Now()},
			{ID: "old", ReportID: testReportID, FileURL: "https://f/old", GeneratedAt: at(8)},
		}},
	}
	r := NewResolver(api, testReportID, 2, time.Millisecond)

	got, err := r.Resolve(context.Background(), domain.SyncModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "old", got.ID)
}

func TestResolveCreateAllEncodingsFail(t *testing.T) {
	api := &fakeExportAPI{createErrs: map[string]error{}}
	r := NewResolver(api, testReportID, 1, 0)
	for _, encoding := range NewReportIDCandidates(testReportID).Values() {
		api.createErrs[encoding] = errors.New("nope")
	}

	_, err := r.Resolve(context.Background(), domain.SyncModeCreate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create export failed")
}

func TestRecentExports(t *testing.T) {
	api := &fakeExportAPI{
		lists: [][]domain.ReportExportDescriptor{{
			{ID: "e1", ReportID: testReportID, FileURL: "https://f/e1", GeneratedAt: at(8)},
			{ID: "e2", ReportID: testReportID, FileURL: "https://f/e2", GeneratedAt: at(10)},
			{ID: "e3", ReportID: testReportID, FileURL: "", GeneratedAt: at(11)},
			{ID: "e4", ReportID: "other-report", FileURL: "https://f/e4", GeneratedAt: at(12)},
			{ID: "e5", ReportID: testReportID, FileURL: "https://f/e5", GeneratedAt: at(9)},
		}},
	}
	r := NewResolver(api, testReportID, 1, 0)

	got, err := r.RecentExports(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e5", got[1].ID)
}
