// backend-go/internal/domain/models.go
package domain

import "time"

// SaleLine is one retail product sale pulled from a Boulevard report export.
// In summary mode a line is one aggregated product total for the export
// window instead of a single transaction line.
type SaleLine struct {
	LineID              string            `json:"line_id" db:"line_id"`
	OrderID             string            `json:"order_id" db:"order_id"`
	OrderNumber         string            `json:"order_number" db:"order_number"`
	SoldAt              time.Time         `json:"sold_at" db:"sold_at"`
	LocationKey         *string           `json:"location_key" db:"location_key"`
	ClientBoulevardID   string            `json:"client_boulevard_id" db:"client_boulevard_id"`
	ClientID            *int64            `json:"client_id" db:"client_id"`
	ProviderBoulevardID string            `json:"provider_boulevard_id" db:"provider_boulevard_id"`
	ProviderName        string            `json:"provider_name" db:"provider_name"`
	ProviderID          *int64            `json:"provider_id" db:"provider_id"`
	SKU                 string            `json:"sku" db:"sku"`
	BoulevardProductID  string            `json:"boulevard_product_id" db:"boulevard_product_id"`
	ProductID           *int64            `json:"product_id" db:"product_id"`
	ProductName         string            `json:"product_name" db:"product_name"`
	Brand               string            `json:"brand" db:"brand"`
	Category            string            `json:"category" db:"category"`
	Quantity            float64           `json:"quantity" db:"quantity"`
	UnitPrice           float64           `json:"unit_price" db:"unit_price"`
	DiscountAmount      float64           `json:"discount_amount" db:"discount_amount"`
	NetSales            float64           `json:"net_sales" db:"net_sales"`
	RawRow              map[string]string `json:"-" db:"-"`
}

// ProductCatalogEntry is a product referenced by at least one sale line.
// Identity is the SKU when present, otherwise the external product id.
type ProductCatalogEntry struct {
	ID                 int64     `json:"id" db:"id"`
	SKU                string    `json:"sku" db:"sku"`
	BoulevardProductID string    `json:"boulevard_product_id" db:"boulevard_product_id"`
	Name               string    `json:"name" db:"name"`
	Brand              string    `json:"brand" db:"brand"`
	Category           string    `json:"category" db:"category"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// ClientRecord is the subset of a client this pipeline touches. Records are
// created minimal on first reference; other sync jobs enrich them.
type ClientRecord struct {
	ID          int64  `json:"id" db:"id"`
	BoulevardID string `json:"boulevard_id" db:"boulevard_id"`
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
}

// StaffRecord is read-only here: providers are an administratively managed
// set and are never auto-created by the sales sync.
type StaffRecord struct {
	ID          int64  `json:"id" db:"id"`
	BoulevardID string `json:"boulevard_id" db:"boulevard_id"`
	Name        string `json:"name" db:"name"`
}

// ReportExportDescriptor identifies a generated export artifact upstream.
// Never persisted; only used to pick the freshest file.
type ReportExportDescriptor struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"reportId"`
	FileURL     string    `json:"fileUrl"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// SyncMode selects between reusing the latest matching export and requesting
// a fresh one.
type SyncMode string

const (
	SyncModeLatest SyncMode = "latest"
	SyncModeCreate SyncMode = "create"
)

// SyncOptions is the invocation body for a sales sync run.
type SyncOptions struct {
	FileURL     string   `json:"fileUrl"`
	DryRun      bool     `json:"dryRun"`
	Mode        SyncMode `json:"mode"`
	FullRefresh bool     `json:"fullRefresh"`
}

// SyncSummary is the response assembled at the end of a run.
type SyncSummary struct {
	Success         bool       `json:"success"`
	RunID           string     `json:"runId"`
	FileURL         string     `json:"fileUrl"`
	ExportID        string     `json:"exportId,omitempty"`
	ParsedRows      int        `json:"parsedRows"`
	SyncedRows      int        `json:"syncedRows"`
	DuplicateRows   int        `json:"duplicateRows"`
	MinSoldAt       *time.Time `json:"minSoldAt,omitempty"`
	MaxSoldAt       *time.Time `json:"maxSoldAt,omitempty"`
	SummaryMode     bool       `json:"summaryMode"`
	FullRefresh     bool       `json:"fullRefresh"`
	DryRun          bool       `json:"dryRun"`
	AuthRetryUsed   bool       `json:"authRetryUsed"`
	HeadersSample   []string   `json:"headersSample,omitempty"`
	CreatedProducts int        `json:"createdProducts"`
	CreatedClients  int        `json:"createdClients"`
	Sample          []SaleLine `json:"sample,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	FinishedAt      time.Time  `json:"finishedAt"`
}

// SalesSummary aggregates synced sale lines for the dashboard read side.
type SalesSummary struct {
	From       time.Time            `json:"from"`
	To         time.Time            `json:"to"`
	TotalUnits float64              `json:"totalUnits"`
	NetSales   float64              `json:"netSales"`
	ByLocation []SalesBreakdownItem `json:"byLocation"`
	ByBrand    []SalesBreakdownItem `json:"byBrand"`
}

// SalesBreakdownItem is one grouped slice of the sales summary.
type SalesBreakdownItem struct {
	Key      string  `json:"key" db:"key"`
	Units    float64 `json:"units" db:"units"`
	NetSales float64 `json:"netSales" db:"net_sales"`
}
