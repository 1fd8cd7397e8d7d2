package salesync

import (
	"strings"
	"time"

	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/domain"
)

// Column synonym sets. Boulevard report templates rename columns freely, so
// every field is looked up through pickValue against a synonym list.
var (
	lineIDCols      = []string{"line id", "sale line id", "line item id", "order line id"}
	orderIDCols     = []string{"order id", "sale id", "transaction id", "appointment id"}
	orderNumberCols = []string{"order number", "sale number", "receipt number", "invoice number"}
	soldAtCols      = []string{"sold at", "sale date", "closed at", "transaction date", "completed at", "date"}
	locationCols    = []string{"location", "location name", "site", "store"}
	clientIDCols    = []string{"client id", "customer id", "client boulevard id"}
	providerIDCols  = []string{"staff id", "provider id", "employee id"}
	providerCols    = []string{"staff name", "provider name", "sold by", "staff", "provider"}
	skuCols         = []string{"sku", "product sku", "item sku"}
	productIDCols   = []string{"product id", "boulevard product id"}
	productNameCols = []string{"product name", "item name", "product", "item", "description"}
	brandCols       = []string{"brand", "product brand", "line"}
	categoryCols    = []string{"category", "product category", "item category"}
	quantityCols    = []string{"quantity", "qty", "units sold", "items sold", "units"}
	unitPriceCols   = []string{"unit price", "item price", "retail price", "price"}
	discountCols    = []string{"discount amount", "discounts", "discount"}
	netSalesCols    = []string{"net sales", "net revenue", "net amount", "total net sales"}

	// Summary-mode specific
	productSalesCols  = []string{"product sales", "net sales", "total sales", "gross sales", "sales"}
	salesPerOrderCols = []string{"sales per order", "average sale", "avg sale", "sales/order"}
)

// Normalizer converts raw export rows into canonical sale lines under
// either detailed or summary semantics.
type Normalizer struct {
	locations   []config.Location
	generatedAt time.Time // export generation time; zero when unknown
}

// NewNormalizer builds a Normalizer. generatedAt seeds the carry-forward
// timestamp in detailed mode and stands in for soldAt in summary mode.
func NewNormalizer(locations []config.Location, generatedAt time.Time) *Normalizer {
	return &Normalizer{locations: locations, generatedAt: generatedAt}
}

// carryContext holds the running "last seen" values a detailed export only
// prints on transaction header rows, leaving continuation lines blank.
type carryContext struct {
	orderID      string
	providerName string
	soldAt       time.Time
}

// NormalizeDetailed maps each row to a sale line in file order, threading
// the carry-forward context through the scan. Rows that fail validation
// contribute nothing.
func (n *Normalizer) NormalizeDetailed(rows []Row) []domain.SaleLine {
	ctx := carryContext{soldAt: n.generatedAt}

	lines := make([]domain.SaleLine, 0, len(rows))
	for _, row := range rows {
		line, next := n.normalizeDetailedRow(row, ctx)
		ctx = next
		if line != nil {
			lines = append(lines, *line)
		}
	}
	return lines
}

// normalizeDetailedRow is a pure function of (row, context): it returns the
// normalized line (nil when the row is dropped) plus the updated context.
func (n *Normalizer) normalizeDetailedRow(row Row, ctx carryContext) (*domain.SaleLine, carryContext) {
	// Rows that supply header fields update the context; rows that omit
	// them inherit the most recent values.
	if v := pickValue(row, orderIDCols...); v != "" {
		ctx.orderID = v
	}
	if v := pickValue(row, providerCols...); v != "" {
		ctx.providerName = v
	}
	if t := parseDate(pickValue(row, soldAtCols...)); t != nil {
		ctx.soldAt = *t
	}

	productName := pickValue(row, productNameCols...)
	sku := pickValue(row, skuCols...)

	if ctx.soldAt.IsZero() {
		return nil, ctx
	}
	if productName == "" && sku == "" {
		return nil, ctx
	}
	// Grand-total row some report templates append.
	if strings.EqualFold(productName, "all") {
		return nil, ctx
	}

	quantity := clampZero(toNumber(pickValue(row, quantityCols...), 1))
	unitPrice := clampZero(toNumber(pickValue(row, unitPriceCols...), 0))
	discount := clampZero(toNumber(pickValue(row, discountCols...), 0))

	// An explicit net-sales column always wins over the computed fallback.
	netSales := quantity*unitPrice - discount
	if v := pickValue(row, netSalesCols...); v != "" {
		netSales = toNumber(v, netSales)
	}
	netSales = clampZero(netSales)

	line := domain.SaleLine{
		LineID:              pickValue(row, lineIDCols...),
		OrderID:             ctx.orderID,
		OrderNumber:         pickValue(row, orderNumberCols...),
		SoldAt:              ctx.soldAt,
		LocationKey:         normalizeLocation(pickValue(row, locationCols...), n.locations),
		ClientBoulevardID:   pickValue(row, clientIDCols...),
		ProviderBoulevardID: pickValue(row, providerIDCols...),
		ProviderName:        ctx.providerName,
		SKU:                 sku,
		BoulevardProductID:  pickValue(row, productIDCols...),
		ProductName:         productName,
		Brand:               pickValue(row, brandCols...),
		Category:            pickValue(row, categoryCols...),
		Quantity:            quantity,
		UnitPrice:           unitPrice,
		DiscountAmount:      discount,
		NetSales:            netSales,
		RawRow:              row,
	}

	if line.LineID == "" {
		line.LineID = synthesizeLineID(&line)
	}

	return &line, ctx
}

// Normalize picks the row shape and converts. Returns the lines plus
// whether summary semantics were used. Summary-shaped files lack the
// timestamp and transaction identifier columns, so detailed normalization
// would either drop everything or record zero revenue for them.
func (n *Normalizer) Normalize(rows []Row) ([]domain.SaleLine, bool) {
	if !n.DetailedApplicable(rows) && n.SummaryApplicable(rows) {
		return n.NormalizeSummary(rows), true
	}

	lines := n.NormalizeDetailed(rows)
	if len(lines) == 0 && n.SummaryApplicable(rows) {
		return n.NormalizeSummary(rows), true
	}
	return lines, false
}

// DetailedApplicable reports whether the rows look like a per-transaction
// export: some timestamp or transaction identifier column must exist.
func (n *Normalizer) DetailedApplicable(rows []Row) bool {
	if len(rows) == 0 {
		return false
	}
	first := rows[0]
	return hasAnyColumn(first, soldAtCols) ||
		hasAnyColumn(first, orderIDCols) ||
		hasAnyColumn(first, lineIDCols)
}

// SummaryApplicable reports whether the fallback aggregated-report shape is
// plausible: the column set must contain both a product-name-like and a
// product-sales-like header.
func (n *Normalizer) SummaryApplicable(rows []Row) bool {
	if len(rows) == 0 {
		return false
	}
	return hasAnyColumn(rows[0], productNameCols) && hasAnyColumn(rows[0], productSalesCols)
}

// NormalizeSummary treats each row as one aggregated product total for the
// whole export window: no client, no order, no per-line timestamp.
func (n *Normalizer) NormalizeSummary(rows []Row) []domain.SaleLine {
	soldAt := n.generatedAt
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}

	lines := make([]domain.SaleLine, 0, len(rows))
	for _, row := range rows {
		productName := pickValue(row, productNameCols...)
		if productName == "" || strings.EqualFold(productName, "all") {
			continue
		}

		quantity := clampZero(toNumber(pickValue(row, quantityCols...), 0))
		netSales := clampZero(toNumber(pickValue(row, productSalesCols...), 0))
		if quantity == 0 && netSales == 0 {
			continue
		}

		var unitPrice float64
		if quantity > 0 {
			unitPrice = netSales / quantity
		} else {
			unitPrice = clampZero(toNumber(pickValue(row, salesPerOrderCols...), 0))
		}

		line := domain.SaleLine{
			SoldAt:             soldAt,
			LocationKey:        normalizeLocation(pickValue(row, locationCols...), n.locations),
			SKU:                pickValue(row, skuCols...),
			BoulevardProductID: pickValue(row, productIDCols...),
			ProductName:        productName,
			Brand:              pickValue(row, brandCols...),
			Category:           pickValue(row, categoryCols...),
			Quantity:           quantity,
			UnitPrice:          unitPrice,
			NetSales:           netSales,
			RawRow:             row,
		}
		line.LineID = synthesizeLineID(&line)

		lines = append(lines, line)
	}
	return lines
}

func clampZero(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func hasAnyColumn(row Row, candidates []string) bool {
	normalized := make(map[string]struct{}, len(row))
	for k := range row {
		normalized[normalizeKey(k)] = struct{}{}
	}
	for _, candidate := range candidates {
		if _, ok := normalized[normalizeKey(candidate)]; ok {
			return true
		}
	}
	return false
}
