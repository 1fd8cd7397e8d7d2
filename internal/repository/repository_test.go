package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solara-medspa/backend-go/internal/domain"
)

func TestChunkStrings(t *testing.T) {
	values := []string{"a", "", "b", "c", "", "d", "e"}

	chunks := chunkStrings(values, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"a", "b"}, chunks[0])
	assert.Equal(t, []string{"c", "d"}, chunks[1])
	assert.Equal(t, []string{"e"}, chunks[2])

	assert.Nil(t, chunkStrings(nil, 2))
	assert.Nil(t, chunkStrings([]string{"", ""}, 2))
}

func TestToSaleLineRow(t *testing.T) {
	locationKey := "marina"
	clientID := int64(21)
	line := domain.SaleLine{
		LineID:            "line-1",
		OrderID:           "ord-1",
		SoldAt:            time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		LocationKey:       &locationKey,
		ClientBoulevardID: "cl-1",
		ClientID:          &clientID,
		ProductName:       "Serum",
		Quantity:          2,
		NetSales:          90,
		RawRow:            map[string]string{"Product Name": "Serum"},
	}

	row, err := toSaleLineRow(line)
	require.NoError(t, err)
	assert.Equal(t, "line-1", row.LineID)
	assert.Equal(t, &locationKey, row.LocationKey)
	assert.Equal(t, &clientID, row.ClientID)
	assert.JSONEq(t, `{"Product Name":"Serum"}`, string(row.RawRow))

	// Unresolved pointers stay NULL, not zero.
	assert.Nil(t, row.ProviderID)
	assert.Nil(t, row.ProductID)
}
