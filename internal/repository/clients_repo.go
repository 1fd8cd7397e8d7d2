package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solara-medspa/backend-go/internal/domain"
)

// ClientsRepository covers the slice of the clients table this pipeline
// touches: id lookups and minimal create-on-miss records. Other sync jobs
// enrich the rows later.
type ClientsRepository struct {
	db *sqlx.DB
}

func NewClientsRepository(db *sqlx.DB) *ClientsRepository {
	return &ClientsRepository{db: db}
}

// LookupByBoulevardIDs maps external client ids to internal keys, querying
// in bounded chunks.
func (r *ClientsRepository) LookupByBoulevardIDs(ctx context.Context, ids []string) (map[string]int64, error) {
	result := make(map[string]int64)

	for _, chunk := range chunkStrings(ids, lookupChunkSize) {
		query, args, err := sqlx.In(`SELECT id, boulevard_id FROM clients WHERE boulevard_id IN (?)`, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to build client lookup: %w", err)
		}

		var rows []struct {
			ID          int64  `db:"id"`
			BoulevardID string `db:"boulevard_id"`
		}
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to look up clients: %w", err)
		}
		for _, row := range rows {
			result[row.BoulevardID] = row.ID
		}
	}

	return result, nil
}

// CreateMinimal inserts bare client records for unknown external ids.
// Conflicts are left untouched so concurrent writers never clobber
// enriched rows.
func (r *ClientsRepository) CreateMinimal(ctx context.Context, records []domain.ClientRecord) error {
	query := `
		INSERT INTO clients (boulevard_id, name, email, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (boulevard_id) DO NOTHING
	`
	for _, record := range records {
		if _, err := r.db.ExecContext(ctx, query, record.BoulevardID, record.Name, record.Email); err != nil {
			return fmt.Errorf("failed to create client %q: %w", record.BoulevardID, err)
		}
	}
	return nil
}
