package salesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solara-medspa/backend-go/internal/domain"
)

func TestSynthesizeLineIDStable(t *testing.T) {
	line := domain.SaleLine{
		OrderID:     "ord-9",
		SKU:         "SKU-1",
		ProductName: "Retinol Serum",
		SoldAt:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Quantity:    2,
		NetSales:    90,
	}

	first := synthesizeLineID(&line)
	second := synthesizeLineID(&line)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestSynthesizeLineIDIgnoresCaseAndSubSecond(t *testing.T) {
	base := domain.SaleLine{
		OrderID:     "ord-9",
		ProductName: "Retinol Serum",
		SoldAt:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Quantity:    1,
		NetSales:    45,
	}

	upper := base
	upper.ProductName = "RETINOL SERUM"
	assert.Equal(t, synthesizeLineID(&base), synthesizeLineID(&upper))

	jittered := base
	jittered.SoldAt = base.SoldAt.Add(300 * time.Millisecond)
	assert.Equal(t, synthesizeLineID(&base), synthesizeLineID(&jittered))
}

func TestSynthesizeLineIDChangesWithFields(t *testing.T) {
	base := domain.SaleLine{
		OrderID:     "ord-9",
		ProductName: "Retinol Serum",
		SoldAt:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Quantity:    1,
		NetSales:    45,
	}

	corrected := base
	corrected.Quantity = 2
	assert.NotEqual(t, synthesizeLineID(&base), synthesizeLineID(&corrected))

	otherOrder := base
	otherOrder.OrderID = "ord-10"
	assert.NotEqual(t, synthesizeLineID(&base), synthesizeLineID(&otherOrder))
}
