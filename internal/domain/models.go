package domain

import "time"

const (
	OriginInternal = "internal"
	OriginVendor   = "vendor"
)

const (
	PaymentCash    = "cash"
	PaymentEwallet = "ewallet"
)

const (
	ReconciliationBalanced = "balanced"
	ReconciliationShortage = "shortage"
	ReconciliationSurplus  = "surplus"
)

const (
	SummaryScopeAll      = "all"
	SummaryScopeInternal = "internal"
	SummaryScopeVendor   = "vendor"
)

// InventoryItem is a catalog entry. Internal items carry PriceCents 0 and
// get their selling price keyed in at the till; vendor items sell at the
// catalog price and owe CostCents per unit to the vendor.
type InventoryItem struct {
	ID         string    `json:"id"`
	VendorName string    `json:"vendor_name"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	CostCents  int64     `json:"cost_cents"`
	Stock      int       `json:"stock"`
	Category   string    `json:"category,omitempty"`
	Origin     string    `json:"origin"`
	DateAdded  time.Time `json:"date_added"`
}

type ItemCreateRequest struct {
	VendorName string `json:"vendor_name"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Stock      int    `json:"stock"`
	Category   string `json:"category,omitempty"`
}

type ImportResult struct {
	Submitted int             `json:"submitted"`
	Accepted  int             `json:"accepted"`
	Skipped   int             `json:"skipped"`
	Items     []InventoryItem `json:"items"`
}

// CartLine is one requested line in a sale. UnitPriceCents is the manual
// price for internal-origin items and is ignored for vendor items.
type CartLine struct {
	ItemID         string `json:"item_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents,omitempty"`
}

// SaleLine is the catalog snapshot captured at commit time. Later catalog
// edits or deletes never touch it.
type SaleLine struct {
	ItemID         string `json:"item_id"`
	VendorName     string `json:"vendor_name"`
	Name           string `json:"name"`
	Origin         string `json:"origin"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	CostCents      int64  `json:"cost_cents"`
	Qty            int    `json:"qty"`
}

type SaleRequest struct {
	Origin        string     `json:"origin"`
	PaymentMethod string     `json:"payment_method"`
	ReceivedCents int64      `json:"received_cents"`
	Lines         []CartLine `json:"lines"`
}

type SaleRecord struct {
	ID            string     `json:"id"`
	Items         []SaleLine `json:"items"`
	TotalCents    int64      `json:"total_cents"`
	ReceivedCents int64      `json:"received_cents"`
	ChangeCents   int64      `json:"change_cents"`
	PaymentMethod string     `json:"payment_method"`
	Origin        string     `json:"origin"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DraftSale is an uncommitted sale: same numbers a commit would produce,
// but no id, no timestamp, and nothing persisted.
type DraftSale struct {
	Items         []SaleLine `json:"items"`
	TotalCents    int64      `json:"total_cents"`
	ReceivedCents int64      `json:"received_cents"`
	ChangeCents   int64      `json:"change_cents"`
	PaymentMethod string     `json:"payment_method"`
	Origin        string     `json:"origin"`
}

type PayoutRecord struct {
	ID          string    `json:"id"`
	VendorName  string    `json:"vendor_name"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PayoutRequest struct {
	VendorName  string `json:"vendor_name"`
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note,omitempty"`
}

type VendorBalance struct {
	VendorName   string `json:"vendor_name"`
	OwedCents    int64  `json:"owed_cents"`
	PaidCents    int64  `json:"paid_cents"`
	BalanceCents int64  `json:"balance_cents"`
}

type MethodSplit struct {
	CashCents    int64 `json:"cash_cents"`
	EwalletCents int64 `json:"ewallet_cents"`
	TotalCents   int64 `json:"total_cents"`
}

type DailyReconciliation struct {
	Date              string      `json:"date"`
	Transactions      int         `json:"transactions"`
	RevenueCents      int64       `json:"revenue_cents"`
	ExpectedCashCents int64       `json:"expected_cash_cents"`
	CountedCashCents  int64       `json:"counted_cash_cents"`
	VarianceCents     int64       `json:"variance_cents"`
	Status            string      `json:"status"`
	Internal          MethodSplit `json:"internal"`
	Vendor            MethodSplit `json:"vendor"`
}

type VendorMonthLine struct {
	VendorName   string `json:"vendor_name"`
	Units        int    `json:"units"`
	GrossCents   int64  `json:"gross_cents"`
	PayableCents int64  `json:"payable_cents"`
}

type VendorMonthReport struct {
	Month             string            `json:"month"`
	Vendors           []VendorMonthLine `json:"vendors"`
	TotalUnits        int               `json:"total_units"`
	TotalGrossCents   int64             `json:"total_gross_cents"`
	TotalPayableCents int64             `json:"total_payable_cents"`
}

type ItemQty struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type ReceiptResponse struct {
	SaleID       string `json:"sale_id,omitempty"`
	Preview      bool   `json:"preview"`
	Text         string `json:"text"`
	EscposBase64 string `json:"escpos_base64"`
	FileName     string `json:"file_name"`
}

type SalesSummary struct {
	Scope        string    `json:"scope"`
	Transactions int       `json:"transactions"`
	RevenueCents int64     `json:"revenue_cents"`
	ItemCounts   []ItemQty `json:"item_counts"`
	TopItem      *ItemQty  `json:"top_item,omitempty"`
}
