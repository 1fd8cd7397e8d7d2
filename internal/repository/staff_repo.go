package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/solara-medspa/backend-go/internal/domain"
)

// StaffRepository is read-only: providers are an administratively managed
// set, never auto-created by the sales sync.
type StaffRepository struct {
	db *sqlx.DB
}

func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// LookupByBoulevardIDs maps external provider ids to internal staff keys.
func (r *StaffRepository) LookupByBoulevardIDs(ctx context.Context, ids []string) (map[string]int64, error) {
	result := make(map[string]int64)

	for _, chunk := range chunkStrings(ids, lookupChunkSize) {
		query, args, err := sqlx.In(`SELECT id, boulevard_id FROM staff WHERE boulevard_id IN (?)`, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to build staff lookup: %w", err)
		}

		var rows []struct {
			ID          int64  `db:"id"`
			BoulevardID string `db:"boulevard_id"`
		}
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to look up staff: %w", err)
		}
		for _, row := range rows {
			result[row.BoulevardID] = row.ID
		}
	}

	return result, nil
}

// LookupByNormalizedNames returns all staff keyed by domain.NormalizeName(name),
// for the fallback match when an export only prints the provider's name.
func (r *StaffRepository) LookupByNormalizedNames(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM staff`); err != nil {
		return nil, fmt.Errorf("failed to load staff names: %w", err)
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := domain.NormalizeName(row.Name)
		if key == "" {
			continue
		}
		result[key] = row.ID
	}
	return result, nil
}
