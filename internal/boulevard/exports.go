package boulevard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/solara-medspa/backend-go/internal/domain"
)

var (
	// ErrNoReportConfigured means the sales report id is missing from config.
	ErrNoReportConfigured = errors.New("no sales report id configured")
	// ErrExportCreateFailed means every candidate encoding of the report id
	// was rejected by the create-export endpoint.
	ErrExportCreateFailed = errors.New("create export failed for every report id encoding")
	// ErrNoExportFound means no matching export with a file URL surfaced
	// within the poll budget.
	ErrNoExportFound = errors.New("no matching export with a file url found")
)

// ExportAPI is the slice of the Boulevard client the resolver consumes.
type ExportAPI interface {
	CreateExport(ctx context.Context, reportID string) (*domain.ReportExportDescriptor, error)
	ListExports(ctx context.Context, limit int) ([]domain.ReportExportDescriptor, error)
}

// Resolver produces a downloadable file URL for the configured report,
// either by reusing the latest matching export or requesting a fresh one
// and polling until its file appears.
type Resolver struct {
	api          ExportAPI
	candidates   ReportIDCandidates
	pollAttempts int
	pollInterval time.Duration
	listLimit    int
}

// NewResolver builds a Resolver for one report identifier.
func NewResolver(api ExportAPI, reportID string, pollAttempts int, pollInterval time.Duration) *Resolver {
	if pollAttempts < 1 {
		pollAttempts = 1
	}
	return &Resolver{
		api:          api,
		candidates:   NewReportIDCandidates(reportID),
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
		listLimit:    defaultListLimit,
	}
}

// Resolve returns the export descriptor whose file should be downloaded.
func (r *Resolver) Resolve(ctx context.Context, mode domain.SyncMode) (*domain.ReportExportDescriptor, error) {
	if r.candidates.Empty() {
		return nil, ErrNoReportConfigured
	}

	if mode == domain.SyncModeCreate {
		return r.resolveCreate(ctx)
	}
	return r.resolveLatest(ctx)
}

// resolveLatest takes the single most recent matching export that already
// has a generated file.
func (r *Resolver) resolveLatest(ctx context.Context) (*domain.ReportExportDescriptor, error) {
	exports, err := r.api.ListExports(ctx, r.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}

	latest := r.newestMatching(exports)
	if latest == nil {
		return nil, ErrNoExportFound
	}
	return latest, nil
}

// resolveCreate requests a new export, trying every candidate encoding of
// the report id, then polls the export list for the created artifact.
func (r *Resolver) resolveCreate(ctx context.Context) (*domain.ReportExportDescriptor, error) {
	requestedAt := time.Now().Add(-time.Minute) // allow clock skew against the platform

	var created *domain.ReportExportDescriptor
	var createErrs []error
	for _, encoding := range r.candidates.Values() {
		desc, err := r.api.CreateExport(ctx, encoding)
		if err != nil {
			createErrs = append(createErrs, fmt.Errorf("%q: %w", encoding, err))
			continue
		}
		created = desc
		break
	}
	if created == nil {
		return nil, fmt.Errorf("%w (%d tried): %w",
			ErrExportCreateFailed, len(r.candidates.Values()), errors.Join(createErrs...))
	}

	var fallback *domain.ReportExportDescriptor
	for attempt := 0; attempt < r.pollAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, r.pollInterval); err != nil {
				return nil, err
			}
		}

		exports, err := r.api.ListExports(ctx, r.listLimit)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("export list poll failed")
			continue
		}

		for i := range exports {
			e := exports[i]
			if e.FileURL == "" {
				continue
			}
			if e.ID == created.ID && !e.GeneratedAt.Before(requestedAt) {
				return &e, nil
			}
		}

		if newest := r.newestMatching(exports); newest != nil {
			fallback = newest
		}
	}

	// The exact export never surfaced; take the freshest matching one.
	if fallback != nil {
		log.Warn().Str("export_id", fallback.ID).Msg("created export never surfaced, using most recent match")
		return fallback, nil
	}
	return nil, ErrNoExportFound
}

// RecentExports returns up to max matching exports with file URLs, newest
// first. Used by the download fallback chain.
func (r *Resolver) RecentExports(ctx context.Context, max int) ([]domain.ReportExportDescriptor, error) {
	if r.candidates.Empty() {
		return nil, ErrNoReportConfigured
	}

	exports, err := r.api.ListExports(ctx, r.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}

	matching := make([]domain.ReportExportDescriptor, 0, max)
	for _, e := range sortedByGeneratedAtDesc(exports) {
		if e.FileURL == "" || !r.candidates.Contains(e.ReportID) {
			continue
		}
		matching = append(matching, e)
		if len(matching) == max {
			break
		}
	}
	return matching, nil
}

// newestMatching picks the most recently generated export owned by the
// configured report that has a file URL.
func (r *Resolver) newestMatching(exports []domain.ReportExportDescriptor) *domain.ReportExportDescriptor {
	var newest *domain.ReportExportDescriptor
	for i := range exports {
		e := exports[i]
		if e.FileURL == "" || !r.candidates.Contains(e.ReportID) {
			continue
		}
		if newest == nil || e.GeneratedAt.After(newest.GeneratedAt) {
			newest = &e
		}
	}
	return newest
}

func sortedByGeneratedAtDesc(exports []domain.ReportExportDescriptor) []domain.ReportExportDescriptor {
	out := make([]domain.ReportExportDescriptor, len(exports))
	copy(out, exports)
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
