package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solara-medspa/backend-go/internal/domain"
)

const lookupChunkSize = 200

// CatalogRepository maintains the product catalog entries referenced by
// sale lines. Identity is the SKU when present, otherwise the external
// product id.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Lookup returns every catalog entry matching any of the given SKUs or
// external product ids, queried in bounded chunks.
func (r *CatalogRepository) Lookup(ctx context.Context, skus, boulevardIDs []string) ([]domain.ProductCatalogEntry, error) {
	var entries []domain.ProductCatalogEntry

	for _, chunk := range chunkStrings(skus, lookupChunkSize) {
		query, args, err := sqlx.In(`
			SELECT id, sku, boulevard_product_id, name, brand, category, created_at, updated_at
			FROM products WHERE sku IN (?)
		`, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to build product sku lookup: %w", err)
		}

		var batch []domain.ProductCatalogEntry
		if err := r.db.SelectContext(ctx, &batch, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to look up products by sku: %w", err)
		}
		entries = append(entries, batch...)
	}

	for _, chunk := range chunkStrings(boulevardIDs, lookupChunkSize) {
		query, args, err := sqlx.In(`
			SELECT id, sku, boulevard_product_id, name, brand, category, created_at, updated_at
			FROM products WHERE boulevard_product_id IN (?)
		`, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to build product id lookup: %w", err)
		}

		var batch []domain.ProductCatalogEntry
		if err := r.db.SelectContext(ctx, &batch, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to look up products by boulevard id: %w", err)
		}
		entries = append(entries, batch...)
	}

	return entries, nil
}

// Upsert creates or refreshes catalog entries one at a time, keyed by SKU
// when present and by external product id otherwise.
func (r *CatalogRepository) Upsert(ctx context.Context, entries []domain.ProductCatalogEntry) error {
	bySKU := `
		INSERT INTO products (sku, boulevard_product_id, name, brand, category, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (sku) WHERE sku <> ''
		DO UPDATE SET
			boulevard_product_id = EXCLUDED.boulevard_product_id,
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			updated_at = NOW()
	`
	byExternalID := `
		INSERT INTO products (sku, boulevard_product_id, name, brand, category, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (boulevard_product_id) WHERE boulevard_product_id <> ''
		DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			updated_at = NOW()
	`

	for _, entry := range entries {
		query := byExternalID
		if entry.SKU != "" {
			query = bySKU
		}
		_, err := r.db.ExecContext(ctx, query,
			entry.SKU, entry.BoulevardProductID, entry.Name, entry.Brand, entry.Category)
		if err != nil {
			return fmt.Errorf("failed to upsert product %q: %w", entry.Name, err)
		}
	}
	return nil
}

// DeleteAll wipes the catalog for full-refresh runs.
func (r *CatalogRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}
	return nil
}

// chunkStrings splits values into slices of at most size, skipping empties.
func chunkStrings(values []string, size int) [][]string {
	filtered := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			filtered = append(filtered, v)
		}
	}

	var chunks [][]string
	for start := 0; start < len(filtered); start += size {
		end := start + size
		if end > len(filtered) {
			end = len(filtered)
		}
		chunks = append(chunks, filtered[start:end])
	}
	return chunks
}
