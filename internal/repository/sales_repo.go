package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/solara-medspa/backend-go/internal/domain"
	"github.com/solara-medspa/backend-go/internal/repository/postgres"
)

const defaultChunkSize = 500

// SalesRepository owns the retail_sales table content for the Boulevard
// source. Writes are chunked and keyed by line id so re-runs are no-ops.
type SalesRepository struct {
	db        *postgres.DB
	chunkSize int
}

func NewSalesRepository(db *postgres.DB, chunkSize int) *SalesRepository {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &SalesRepository{db: db, chunkSize: chunkSize}
}

type saleLineRow struct {
	LineID              string    `db:"line_id"`
	OrderID             string    `db:"order_id"`
	OrderNumber         string    `db:"order_number"`
	SoldAt              time.Time `db:"sold_at"`
	LocationKey         *string   `db:"location_key"`
	ClientBoulevardID   string    `db:"client_boulevard_id"`
	ClientID            *int64    `db:"client_id"`
	ProviderBoulevardID string    `db:"provider_boulevard_id"`
	ProviderName        string    `db:"provider_name"`
	ProviderID          *int64    `db:"provider_id"`
	SKU                 string    `db:"sku"`
	BoulevardProductID  string    `db:"boulevard_product_id"`
	ProductID           *int64    `db:"product_id"`
	ProductName         string    `db:"product_name"`
	Brand               string    `db:"brand"`
	Category            string    `db:"category"`
	Quantity            float64   `db:"quantity"`
	UnitPrice           float64   `db:"unit_price"`
	DiscountAmount      float64   `db:"discount_amount"`
	NetSales            float64   `db:"net_sales"`
	RawRow              []byte    `db:"raw_row"`
}

func toSaleLineRow(line domain.SaleLine) (saleLineRow, error) {
	raw, err := json.Marshal(line.RawRow)
	if err != nil {
		return saleLineRow{}, fmt.Errorf("encode raw row for line %s: %w", line.LineID, err)
	}
	return saleLineRow{
		LineID:              line.LineID,
		OrderID:             line.OrderID,
		OrderNumber:         line.OrderNumber,
		SoldAt:              line.SoldAt,
		LocationKey:         line.LocationKey,
		ClientBoulevardID:   line.ClientBoulevardID,
		ClientID:            line.ClientID,
		ProviderBoulevardID: line.ProviderBoulevardID,
		ProviderName:        line.ProviderName,
		ProviderID:          line.ProviderID,
		SKU:                 line.SKU,
		BoulevardProductID:  line.BoulevardProductID,
		ProductID:           line.ProductID,
		ProductName:         line.ProductName,
		Brand:               line.Brand,
		Category:            line.Category,
		Quantity:            line.Quantity,
		UnitPrice:           line.UnitPrice,
		DiscountAmount:      line.DiscountAmount,
		NetSales:            line.NetSales,
		RawRow:              raw,
	}, nil
}

// UpsertLines writes the batch in fixed-size chunks inside one
// transaction, so a failed chunk rolls back the whole run.
func (r *SalesRepository) UpsertLines(ctx context.Context, lines []domain.SaleLine) error {
	query := `
		INSERT INTO retail_sales (
			line_id, order_id, order_number, sold_at, location_key,
			client_boulevard_id, client_id, provider_boulevard_id, provider_name, provider_id,
			sku, boulevard_product_id, product_id, product_name, brand, category,
			quantity, unit_price, discount_amount, net_sales, raw_row, updated_at
		) VALUES (
			:line_id, :order_id, :order_number, :sold_at, :location_key,
			:client_boulevard_id, :client_id, :provider_boulevard_id, :provider_name, :provider_id,
			:sku, :boulevard_product_id, :product_id, :product_name, :brand, :category,
			:quantity, :unit_price, :discount_amount, :net_sales, :raw_row, NOW()
		)
		ON CONFLICT (line_id) DO UPDATE SET
			order_id = EXCLUDED.order_id,
			order_number = EXCLUDED.order_number,
			sold_at = EXCLUDED.sold_at,
			location_key = EXCLUDED.location_key,
			client_boulevard_id = EXCLUDED.client_boulevard_id,
			client_id = EXCLUDED.client_id,
			provider_boulevard_id = EXCLUDED.provider_boulevard_id,
			provider_name = EXCLUDED.provider_name,
			provider_id = EXCLUDED.provider_id,
			sku = EXCLUDED.sku,
			boulevard_product_id = EXCLUDED.boulevard_product_id,
			product_id = EXCLUDED.product_id,
			product_name = EXCLUDED.product_name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			quantity = EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			discount_amount = EXCLUDED.discount_amount,
			net_sales = EXCLUDED.net_sales,
			raw_row = EXCLUDED.raw_row,
			updated_at = NOW()
	`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for start := 0; start < len(lines); start += r.chunkSize {
			end := start + r.chunkSize
			if end > len(lines) {
				end = len(lines)
			}

			chunk := make([]saleLineRow, 0, end-start)
			for _, line := range lines[start:end] {
				row, err := toSaleLineRow(line)
				if err != nil {
					return err
				}
				chunk = append(chunk, row)
			}

			if _, err := tx.NamedExecContext(ctx, query, chunk); err != nil {
				return fmt.Errorf("failed to upsert sale lines chunk %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
}

// DeleteAll wipes the sale-line table for the full-refresh mode.
func (r *SalesRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM retail_sales`); err != nil {
		return fmt.Errorf("failed to delete sale lines: %w", err)
	}
	return nil
}

// SalesSummary aggregates the synced lines over a date range for the
// dashboard read side.
func (r *SalesRepository) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	summary := &domain.SalesSummary{From: from, To: to}

	totals := struct {
		Units    float64 `db:"units"`
		NetSales float64 `db:"net_sales"`
	}{}
	err := r.db.GetContext(ctx, &totals, `
		SELECT COALESCE(SUM(quantity), 0) AS units, COALESCE(SUM(net_sales), 0) AS net_sales
		FROM retail_sales
		WHERE sold_at >= $1 AND sold_at < $2
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales totals: %w", err)
	}
	summary.TotalUnits = totals.Units
	summary.NetSales = totals.NetSales

	err = r.db.SelectContext(ctx, &summary.ByLocation, `
		SELECT COALESCE(location_key, 'unknown') AS key,
		       SUM(quantity) AS units, SUM(net_sales) AS net_sales
		FROM retail_sales
		WHERE sold_at >= $1 AND sold_at < $2
		GROUP BY 1
		ORDER BY net_sales DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales by location: %w", err)
	}

	err = r.db.SelectContext(ctx, &summary.ByBrand, `
		SELECT COALESCE(NULLIF(brand, ''), 'unknown') AS key,
		       SUM(quantity) AS units, SUM(net_sales) AS net_sales
		FROM retail_sales
		WHERE sold_at >= $1 AND sold_at < $2
		GROUP BY 1
		ORDER BY net_sales DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales by brand: %w", err)
	}

	return summary, nil
}
