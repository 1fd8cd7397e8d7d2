package salesync

import (
	"context"
	"fmt"

	"github.com/solara-medspa/backend-go/internal/domain"
)

// SaleStore is the write target for normalized sale lines.
type SaleStore interface {
	UpsertLines(ctx context.Context, lines []domain.SaleLine) error
	DeleteAll(ctx context.Context) error
}

// CatalogStore maintains product catalog entries referenced by sale lines.
type CatalogStore interface {
	Lookup(ctx context.Context, skus, boulevardIDs []string) ([]domain.ProductCatalogEntry, error)
	Upsert(ctx context.Context, entries []domain.ProductCatalogEntry) error
	DeleteAll(ctx context.Context) error
}

// ClientStore looks up and minimally creates client records.
type ClientStore interface {
	LookupByBoulevardIDs(ctx context.Context, ids []string) (map[string]int64, error)
	CreateMinimal(ctx context.Context, records []domain.ClientRecord) error
}

// StaffStore is read-only; providers are never created by this pipeline.
type StaffStore interface {
	LookupByBoulevardIDs(ctx context.Context, ids []string) (map[string]int64, error)
	LookupByNormalizedNames(ctx context.Context) (map[string]int64, error)
}

var (
	clientNameCols  = []string{"client name", "customer name", "client", "customer"}
	clientEmailCols = []string{"client email", "customer email", "email"}
)

// EntityResolver maps the raw external identifiers on a batch of sale
// lines onto internal foreign keys, creating minimal client and product
// records on miss.
type EntityResolver struct {
	clients ClientStore
	catalog CatalogStore
	staff   StaffStore
}

func NewEntityResolver(clients ClientStore, catalog CatalogStore, staff StaffStore) *EntityResolver {
	return &EntityResolver{clients: clients, catalog: catalog, staff: staff}
}

// ResolveStats reports what the resolver had to create.
type ResolveStats struct {
	CreatedClients  int
	CreatedProducts int
}

// Resolve fills ClientID, ProviderID and ProductID on every line in place.
func (r *EntityResolver) Resolve(ctx context.Context, lines []domain.SaleLine) (ResolveStats, error) {
	var stats ResolveStats

	if err := r.resolveProviders(ctx, lines); err != nil {
		return stats, err
	}

	createdClients, err := r.resolveClients(ctx, lines)
	if err != nil {
		return stats, err
	}
	stats.CreatedClients = createdClients

	createdProducts, err := r.resolveProducts(ctx, lines)
	if err != nil {
		return stats, err
	}
	stats.CreatedProducts = createdProducts

	return stats, nil
}

// resolveProviders matches by external id first, then by normalized name.
// A miss in both leaves the provider null.
func (r *EntityResolver) resolveProviders(ctx context.Context, lines []domain.SaleLine) error {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{})
	needName := false
	for _, line := range lines {
		if line.ProviderBoulevardID != "" {
			if _, ok := seen[line.ProviderBoulevardID]; !ok {
				seen[line.ProviderBoulevardID] = struct{}{}
				ids = append(ids, line.ProviderBoulevardID)
			}
		} else if line.ProviderName != "" {
			needName = true
		}
	}

	byID := map[string]int64{}
	if len(ids) > 0 {
		var err error
		byID, err = r.staff.LookupByBoulevardIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("resolve providers by id: %w", err)
		}
	}

	byName := map[string]int64{}
	if needName {
		var err error
		byName, err = r.staff.LookupByNormalizedNames(ctx)
		if err != nil {
			return fmt.Errorf("resolve providers by name: %w", err)
		}
	}

	for i := range lines {
		if id, ok := byID[lines[i].ProviderBoulevardID]; ok {
			providerID := id
			lines[i].ProviderID = &providerID
			continue
		}
		if id, ok := byName[domain.NormalizeName(lines[i].ProviderName)]; ok {
			providerID := id
			lines[i].ProviderID = &providerID
		}
	}
	return nil
}

// resolveClients batch-looks up external ids, creates minimal records for
// the misses, then re-queries to complete the map.
func (r *EntityResolver) resolveClients(ctx context.Context, lines []domain.SaleLine) (int, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{})
	for _, line := range lines {
		if line.ClientBoulevardID == "" {
			continue
		}
		if _, ok := seen[line.ClientBoulevardID]; ok {
			continue
		}
		seen[line.ClientBoulevardID] = struct{}{}
		ids = append(ids, line.ClientBoulevardID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	existing, err := r.clients.LookupByBoulevardIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("resolve clients: %w", err)
	}

	// Build minimal create records for the misses, deduplicated by id. Name
	// and email come from the raw row when the template carried them.
	toCreate := make([]domain.ClientRecord, 0)
	created := make(map[string]struct{})
	for _, line := range lines {
		id := line.ClientBoulevardID
		if id == "" {
			continue
		}
		if _, ok := existing[id]; ok {
			continue
		}
		if _, ok := created[id]; ok {
			continue
		}
		created[id] = struct{}{}
		toCreate = append(toCreate, domain.ClientRecord{
			BoulevardID: id,
			Name:        pickValue(line.RawRow, clientNameCols...),
			Email:       pickValue(line.RawRow, clientEmailCols...),
		})
	}

	if len(toCreate) > 0 {
		if err := r.clients.CreateMinimal(ctx, toCreate); err != nil {
			return 0, fmt.Errorf("create missing clients: %w", err)
		}
		existing, err = r.clients.LookupByBoulevardIDs(ctx, ids)
		if err != nil {
			return 0, fmt.Errorf("re-query clients after create: %w", err)
		}
	}

	for i := range lines {
		if id, ok := existing[lines[i].ClientBoulevardID]; ok {
			clientID := id
			lines[i].ClientID = &clientID
		}
	}
	return len(toCreate), nil
}

// resolveProducts upserts catalog candidates keyed by SKU when present and
// external id otherwise, then re-queries by the union of both identifier
// kinds since a line may carry either.
func (r *EntityResolver) resolveProducts(ctx context.Context, lines []domain.SaleLine) (int, error) {
	candidates := make([]domain.ProductCatalogEntry, 0)
	seen := make(map[string]struct{})
	skus := make([]string, 0)
	externalIDs := make([]string, 0)

	for _, line := range lines {
		key := productKey(line.SKU, line.BoulevardProductID)
		if key == "" {
			continue
		}
		if line.SKU != "" {
			skus = append(skus, line.SKU)
		}
		if line.BoulevardProductID != "" {
			externalIDs = append(externalIDs, line.BoulevardProductID)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, domain.ProductCatalogEntry{
			SKU:                line.SKU,
			BoulevardProductID: line.BoulevardProductID,
			Name:               line.ProductName,
			Brand:              line.Brand,
			Category:           line.Category,
		})
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	known, err := r.catalog.Lookup(ctx, skus, externalIDs)
	if err != nil {
		return 0, fmt.Errorf("pre-query products: %w", err)
	}
	knownKeys := make(map[string]struct{}, len(known))
	for _, entry := range known {
		knownKeys[productKey(entry.SKU, entry.BoulevardProductID)] = struct{}{}
	}
	createdCount := 0
	for _, candidate := range candidates {
		if _, ok := knownKeys[productKey(candidate.SKU, candidate.BoulevardProductID)]; !ok {
			createdCount++
		}
	}

	if err := r.catalog.Upsert(ctx, candidates); err != nil {
		return 0, fmt.Errorf("upsert products: %w", err)
	}

	entries, err := r.catalog.Lookup(ctx, skus, externalIDs)
	if err != nil {
		return 0, fmt.Errorf("re-query products: %w", err)
	}

	bySKU := make(map[string]int64)
	byExternalID := make(map[string]int64)
	for _, entry := range entries {
		if entry.SKU != "" {
			bySKU[entry.SKU] = entry.ID
		}
		if entry.BoulevardProductID != "" {
			byExternalID[entry.BoulevardProductID] = entry.ID
		}
	}

	for i := range lines {
		if id, ok := bySKU[lines[i].SKU]; ok && lines[i].SKU != "" {
			productID := id
			lines[i].ProductID = &productID
			continue
		}
		if id, ok := byExternalID[lines[i].BoulevardProductID]; ok && lines[i].BoulevardProductID != "" {
			productID := id
			lines[i].ProductID = &productID
		}
	}
	return createdCount, nil
}

func productKey(sku, externalID string) string {
	if sku != "" {
		return "sku:" + sku
	}
	if externalID != "" {
		return "ext:" + externalID
	}
	return ""
}

// dedupeByLineID drops earlier occurrences of a repeated line id, keeping
// the last one (grouped report exports can print the same logical line
// twice). Returns the surviving lines in first-seen order and the number
// dropped.
func dedupeByLineID(lines []domain.SaleLine) ([]domain.SaleLine, int) {
	index := make(map[string]int, len(lines))
	out := make([]domain.SaleLine, 0, len(lines))
	dropped := 0

	for _, line := range lines {
		if at, ok := index[line.LineID]; ok {
			out[at] = line // last write wins
			dropped++
			continue
		}
		index[line.LineID] = len(out)
		out = append(out, line)
	}
	return out, dropped
}
