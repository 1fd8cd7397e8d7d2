package salesync

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/solara-medspa/backend-go/internal/domain"
)

// synthesizeLineID derives a stable identifier for a sale line that carries
// no natural key. Two ingestions of the same underlying sale must feed
// byte-identical input to the digest so the upsert is a no-op; a changed
// field (a corrected quantity, say) intentionally yields a new id and an
// additional stored line.
func synthesizeLineID(line *domain.SaleLine) string {
	parts := []string{
		line.OrderID,
		line.SKU,
		strings.ToLower(line.ProductName),
		line.SoldAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		strings.ToLower(line.ProviderBoulevardID),
		strings.ToLower(line.ProviderName),
		strconv.FormatFloat(line.Quantity, 'f', -1, 64),
		strconv.FormatFloat(line.NetSales, 'f', -1, 64),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
