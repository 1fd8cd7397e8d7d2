package salesync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solara-medspa/backend-go/internal/domain"
)

func TestEntityResolverProviderNameFallback(t *testing.T) {
	staff := &fakeStaffStore{
		byID:   map[string]int64{"st-1": 11},
		byName: map[string]int64{"jane doe": 12},
	}
	resolver := NewEntityResolver(
		&fakeClientStore{existing: map[string]int64{}},
		&fakeCatalogStore{},
		staff,
	)

	lines := []domain.SaleLine{
		{LineID: "1", ProviderBoulevardID: "st-1"},
		{LineID: "2", ProviderName: "Jane  Doe"},
		{LineID: "3", ProviderName: "Nobody Known"},
	}

	_, err := resolver.Resolve(context.Background(), lines)
	require.NoError(t, err)

	require.NotNil(t, lines[0].ProviderID)
	assert.Equal(t, int64(11), *lines[0].ProviderID)
	require.NotNil(t, lines[1].ProviderID)
	assert.Equal(t, int64(12), *lines[1].ProviderID)
	assert.Nil(t, lines[2].ProviderID)
}

func TestEntityResolverCreatesMinimalClients(t *testing.T) {
	clients := &fakeClientStore{existing: map[string]int64{"cl-1": 21}}
	resolver := NewEntityResolver(clients, &fakeCatalogStore{}, &fakeStaffStore{})

	lines := []domain.SaleLine{
		{LineID: "1", ClientBoulevardID: "cl-1"},
		{LineID: "2", ClientBoulevardID: "cl-2", RawRow: Row{"Client Name": "Pat Kim", "Client Email": "pat@example.com"}},
		{LineID: "3", ClientBoulevardID: "cl-2"},
		{LineID: "4"},
	}

	stats, err := resolver.Resolve(context.Background(), lines)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CreatedClients)

	require.Len(t, clients.created, 1)
	assert.Equal(t, "cl-2", clients.created[0].BoulevardID)
	assert.Equal(t, "Pat Kim", clients.created[0].Name)
	assert.Equal(t, "pat@example.com", clients.created[0].Email)

	require.NotNil(t, lines[1].ClientID)
	assert.Equal(t, *lines[1].ClientID, *lines[2].ClientID)
	assert.Nil(t, lines[3].ClientID)
}

func TestEntityResolverProductsDualKey(t *testing.T) {
	catalog := &fakeCatalogStore{
		entries: []domain.ProductCatalogEntry{{ID: 31, SKU: "SKU-1", Name: "Serum"}},
		nextID:  31,
	}
	resolver := NewEntityResolver(&fakeClientStore{existing: map[string]int64{}}, catalog, &fakeStaffStore{})

	lines := []domain.SaleLine{
		{LineID: "1", SKU: "SKU-1", ProductName: "Serum"},
		{LineID: "2", BoulevardProductID: "bp-9", ProductName: "Sunscreen"},
		{LineID: "3", ProductName: "No identifier at all"},
	}

	stats, err := resolver.Resolve(context.Background(), lines)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CreatedProducts)

	require.NotNil(t, lines[0].ProductID)
	assert.Equal(t, int64(31), *lines[0].ProductID)
	require.NotNil(t, lines[1].ProductID)
	assert.Nil(t, lines[2].ProductID)
}
