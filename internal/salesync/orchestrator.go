package salesync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solara-medspa/backend-go/internal/boulevard"
	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/domain"
	"github.com/solara-medspa/backend-go/internal/storage"
)

const (
	sampleSize        = 5
	headersSampleSize = 12
)

// ErrNoNormalizableRows means the export parsed but no row survived either
// normalization mode, which usually indicates a changed report template.
var ErrNoNormalizableRows = errors.New("no line could be normalized")

// ExportResolver produces export descriptors for the configured report.
type ExportResolver interface {
	Resolve(ctx context.Context, mode domain.SyncMode) (*domain.ReportExportDescriptor, error)
	RecentExports(ctx context.Context, max int) ([]domain.ReportExportDescriptor, error)
}

// FileFetcher downloads an export file URL.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileURL string) (*boulevard.FetchResult, error)
}

// Orchestrator drives one sales sync run end to end: resolve the export,
// download it, normalize the rows, resolve entities and write the lines.
type Orchestrator struct {
	resolver  ExportResolver
	fetcher   FileFetcher
	sales     SaleStore
	catalog   CatalogStore
	entities  *EntityResolver
	cache     cache.SyncCache
	archive   storage.ObjectStorage
	locations []config.Location
	fallbackN int
}

func NewOrchestrator(
	resolver ExportResolver,
	fetcher FileFetcher,
	sales SaleStore,
	catalog CatalogStore,
	clients ClientStore,
	staff StaffStore,
	syncCache cache.SyncCache,
	archive storage.ObjectStorage,
	cfg config.SyncConfig,
) *Orchestrator {
	fallbackN := cfg.FallbackExports
	if fallbackN <= 0 {
		fallbackN = 5
	}
	return &Orchestrator{
		resolver:  resolver,
		fetcher:   fetcher,
		sales:     sales,
		catalog:   catalog,
		entities:  NewEntityResolver(clients, catalog, staff),
		cache:     syncCache,
		archive:   archive,
		locations: cfg.Locations,
		fallbackN: fallbackN,
	}
}

// Sync runs the pipeline and returns the run summary. On schema drift the
// summary is still returned alongside the error so callers can surface the
// observed headers.
func (o *Orchestrator) Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	summary := &domain.SyncSummary{
		RunID:       uuid.NewString(),
		DryRun:      opts.DryRun,
		FullRefresh: opts.FullRefresh,
		StartedAt:   time.Now().UTC(),
	}

	mode := opts.Mode
	if mode == "" {
		mode = domain.SyncModeLatest
	}

	result, descriptor, err := o.obtainFile(ctx, opts, mode)
	if err != nil {
		return summary, err
	}
	summary.AuthRetryUsed = result.AuthUsed
	if descriptor != nil {
		summary.FileURL = descriptor.FileURL
		summary.ExportID = descriptor.ID
	} else {
		summary.FileURL = opts.FileURL
	}

	rows, err := ParsePayload(result.Body, result.ContentType)
	if err != nil {
		return summary, fmt.Errorf("parse export payload: %w", err)
	}
	summary.ParsedRows = len(rows)
	summary.HeadersSample = capStrings(Headers(rows), headersSampleSize)

	if len(rows) == 0 {
		log.Warn().Str("run_id", summary.RunID).Msg("export file contained no data rows")
		summary.Success = true
		summary.FinishedAt = time.Now().UTC()
		return summary, nil
	}

	var generatedAt time.Time
	if descriptor != nil {
		generatedAt = descriptor.GeneratedAt
	}
	normalizer := NewNormalizer(o.locations, generatedAt)

	lines, summaryMode := normalizer.Normalize(rows)
	summary.SummaryMode = summaryMode
	if summaryMode {
		log.Info().Str("run_id", summary.RunID).Int("lines", len(lines)).
			Msg("detailed columns absent, using summary semantics")
	}
	if len(lines) == 0 {
		return summary, fmt.Errorf("%w from %d rows, headers: %s",
			ErrNoNormalizableRows, len(rows), strings.Join(summary.HeadersSample, ", "))
	}

	lines, duplicates := dedupeByLineID(lines)
	summary.DuplicateRows = duplicates
	summary.MinSoldAt, summary.MaxSoldAt = soldAtRange(lines)
	summary.Sample = lines[:min(sampleSize, len(lines))]

	if opts.DryRun {
		summary.SyncedRows = len(lines)
		summary.Success = true
		summary.FinishedAt = time.Now().UTC()
		return summary, nil
	}

	if opts.FullRefresh {
		if err := o.sales.DeleteAll(ctx); err != nil {
			return summary, fmt.Errorf("full refresh: clear sales: %w", err)
		}
		if err := o.catalog.DeleteAll(ctx); err != nil {
			return summary, fmt.Errorf("full refresh: clear catalog: %w", err)
		}
		log.Info().Str("run_id", summary.RunID).Msg("full refresh: cleared sales and catalog")
	}

	stats, err := o.entities.Resolve(ctx, lines)
	if err != nil {
		return summary, err
	}
	summary.CreatedProducts = stats.CreatedProducts
	summary.CreatedClients = stats.CreatedClients

	if err := o.sales.UpsertLines(ctx, lines); err != nil {
		return summary, fmt.Errorf("upsert sale lines: %w", err)
	}
	summary.SyncedRows = len(lines)

	o.archiveExport(ctx, summary, result)
	o.refreshCaches(ctx, summary)

	summary.Success = true
	summary.FinishedAt = time.Now().UTC()
	log.Info().
		Str("run_id", summary.RunID).
		Int("parsed", summary.ParsedRows).
		Int("synced", summary.SyncedRows).
		Int("duplicates", summary.DuplicateRows).
		Bool("summary_mode", summary.SummaryMode).
		Msg("sales sync completed")
	return summary, nil
}

// obtainFile resolves and downloads the export. With no explicit URL a
// blocked or HTML-serving link falls back to a freshly requested export,
// then to recent sibling exports.
func (o *Orchestrator) obtainFile(ctx context.Context, opts domain.SyncOptions, mode domain.SyncMode) (*boulevard.FetchResult, *domain.ReportExportDescriptor, error) {
	if opts.FileURL != "" {
		result, err := o.fetchUsable(ctx, opts.FileURL)
		if err != nil {
			return nil, nil, err
		}
		return result, nil, nil
	}

	descriptor, err := o.resolver.Resolve(ctx, mode)
	if err != nil {
		return nil, nil, err
	}

	result, err := o.fetchUsable(ctx, descriptor.FileURL)
	if err == nil {
		return result, descriptor, nil
	}
	firstErr := err
	log.Warn().Err(err).Str("export_id", descriptor.ID).Msg("resolved export unusable, trying fallbacks")

	if mode != domain.SyncModeCreate {
		fresh, createErr := o.resolver.Resolve(ctx, domain.SyncModeCreate)
		if createErr == nil && fresh.FileURL != descriptor.FileURL {
			if result, err := o.fetchUsable(ctx, fresh.FileURL); err == nil {
				return result, fresh, nil
			}
		}
	}

	recent, listErr := o.resolver.RecentExports(ctx, o.fallbackN)
	if listErr == nil {
		for i := range recent {
			if recent[i].FileURL == descriptor.FileURL {
				continue
			}
			if result, err := o.fetchUsable(ctx, recent[i].FileURL); err == nil {
				return result, &recent[i], nil
			}
		}
	}

	return nil, nil, fmt.Errorf("no usable export file: %w", firstErr)
}

// fetchUsable downloads one URL and rejects anything that is not a 2xx
// data payload. Expired pre-signed links commonly serve an HTML error page
// with status 200, so that case is rejected too.
func (o *Orchestrator) fetchUsable(ctx context.Context, fileURL string) (*boulevard.FetchResult, error) {
	result, err := o.fetcher.FetchFile(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, fmt.Errorf("export download failed with status %d", result.StatusCode)
	}
	if IsHTML(result.ContentType, result.Body) {
		return nil, ErrHTMLResponse
	}
	return result, nil
}

// archiveExport stores the raw payload for audit. Failures are logged, not
// fatal: the sync already succeeded.
func (o *Orchestrator) archiveExport(ctx context.Context, summary *domain.SyncSummary, result *boulevard.FetchResult) {
	if o.archive == nil {
		return
	}
	name := summary.ExportID
	if name == "" {
		name = summary.RunID
	}
	key := fmt.Sprintf("exports/%s/%s%s",
		time.Now().UTC().Format("2006/01/02"), name, payloadExtension(result.ContentType))
	if err := o.archive.UploadObject(ctx, key, result.Body, result.ContentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive raw export")
	}
}

func (o *Orchestrator) refreshCaches(ctx context.Context, summary *domain.SyncSummary) {
	if err := o.cache.InvalidateSales(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate sales summary cache")
	}
	if err := o.cache.SetLastSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("failed to cache sync summary")
	}
}

func payloadExtension(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return ".json"
	case strings.Contains(ct, "spreadsheetml"), strings.Contains(ct, "ms-excel"):
		return ".xlsx"
	default:
		return ".csv"
	}
}

func soldAtRange(lines []domain.SaleLine) (*time.Time, *time.Time) {
	if len(lines) == 0 {
		return nil, nil
	}
	minAt, maxAt := lines[0].SoldAt, lines[0].SoldAt
	for _, line := range lines[1:] {
		if line.SoldAt.Before(minAt) {
			minAt = line.SoldAt
		}
		if line.SoldAt.After(maxAt) {
			maxAt = line.SoldAt
		}
	}
	return &minAt, &maxAt
}

func capStrings(values []string, max int) []string {
	if len(values) <= max {
		return values
	}
	return values[:max]
}
