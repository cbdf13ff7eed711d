// Package ledger derives every balance and report from the append-only
// sale and payout histories. Nothing here is stored: the histories are
// the single source of truth and each figure is recomputed on demand.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/azamanzizi-droid/poszz8/internal/cache"
	"github.com/azamanzizi-droid/poszz8/internal/domain"
	"github.com/azamanzizi-droid/poszz8/internal/store"
)

type Engine struct {
	cache cache.ReportCache
	ttl   time.Duration
	loc   *time.Location
}

// NewEngine builds a derivation engine. The location fixes which wall
// clock "a day" and "a month" mean; nil falls back to time.Local, which
// is what the person counting the drawer lives in.
func NewEngine(reportCache cache.ReportCache, ttl time.Duration, loc *time.Location) *Engine {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if ttl < time.Second {
		ttl = 30 * time.Second
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{cache: reportCache, ttl: ttl, loc: loc}
}

// CashInHand is the cash drawer position over all time: every cash sale
// in, every payout out. E-wallet settlements never touch the drawer.
func CashInHand(sales []domain.SaleRecord, payouts []domain.PayoutRecord) int64 {
	var total int64
	for _, sale := range sales {
		if sale.PaymentMethod == domain.PaymentCash {
			total += sale.TotalCents
		}
	}
	for _, payout := range payouts {
		total -= payout.AmountCents
	}
	return total
}

// VendorBalances walks the histories once and reports, per vendor, what
// the stall owes (cost x qty over vendor-origin lines), what it has paid
// out, and the open balance. Vendors appear in first-seen order; a
// vendor with only payouts still shows up.
func VendorBalances(sales []domain.SaleRecord, payouts []domain.PayoutRecord) []domain.VendorBalance {
	index := make(map[string]int)
	balances := make([]domain.VendorBalance, 0, 8)

	at := func(name string) *domain.VendorBalance {
		if i, ok := index[name]; ok {
			return &balances[i]
		}
		balances = append(balances, domain.VendorBalance{VendorName: name})
		index[name] = len(balances) - 1
		return &balances[len(balances)-1]
	}

	for _, sale := range sales {
		for _, line := range sale.Items {
			if line.Origin != domain.OriginVendor {
				continue
			}
			entry := at(line.VendorName)
			entry.OwedCents += line.CostCents * int64(line.Qty)
		}
	}
	for _, payout := range payouts {
		entry := at(payout.VendorName)
		entry.PaidCents += payout.AmountCents
	}
	for i := range balances {
		balances[i].BalanceCents = balances[i].OwedCents - balances[i].PaidCents
	}
	return balances
}

// DailyReconciliation compares the counted drawer against the cash the
// day's sales say should be there. The day boundary is the engine's
// local calendar day, not UTC.
func (e *Engine) DailyReconciliation(date string, countedCents int64, sales []domain.SaleRecord) (domain.DailyReconciliation, error) {
	if _, err := time.ParseInLocation("2006-01-02", date, e.loc); err != nil {
		return domain.DailyReconciliation{}, store.ErrValidation
	}

	rec := domain.DailyReconciliation{
		Date:             date,
		CountedCashCents: countedCents,
	}

	for _, sale := range sales {
		if sale.CreatedAt.In(e.loc).Format("2006-01-02") != date {
			continue
		}
		rec.Transactions++
		rec.RevenueCents += sale.TotalCents

		isCash := sale.PaymentMethod == domain.PaymentCash
		if isCash {
			rec.ExpectedCashCents += sale.TotalCents
		}

		split := &rec.Vendor
		if sale.Origin == domain.OriginInternal {
			split = &rec.Internal
		}
		split.TotalCents += sale.TotalCents
		if isCash {
			split.CashCents += sale.TotalCents
		} else {
			split.EwalletCents += sale.TotalCents
		}
	}

	rec.VarianceCents = countedCents - rec.ExpectedCashCents
	switch {
	case rec.VarianceCents == 0:
		rec.Status = domain.ReconciliationBalanced
	case rec.VarianceCents < 0:
		rec.Status = domain.ReconciliationShortage
	default:
		rec.Status = domain.ReconciliationSurplus
	}

	return rec, nil
}

// MonthlyVendorReport aggregates vendor-origin lines for one local
// calendar month ("2006-01"). Cached per history length.
func (e *Engine) MonthlyVendorReport(ctx context.Context, month string, sales []domain.SaleRecord) (domain.VendorMonthReport, error) {
	if _, err := time.ParseInLocation("2006-01", month, e.loc); err != nil {
		return domain.VendorMonthReport{}, store.ErrValidation
	}

	key := fmt.Sprintf("report:vendor-month:%s:%d", month, len(sales))
	var cached domain.VendorMonthReport
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	report := domain.VendorMonthReport{
		Month:   month,
		Vendors: make([]domain.VendorMonthLine, 0, 8),
	}
	index := make(map[string]int)

	for _, sale := range sales {
		if sale.CreatedAt.In(e.loc).Format("2006-01") != month {
			continue
		}
		for _, line := range sale.Items {
			if line.Origin != domain.OriginVendor {
				continue
			}
			i, ok := index[line.VendorName]
			if !ok {
				report.Vendors = append(report.Vendors, domain.VendorMonthLine{VendorName: line.VendorName})
				i = len(report.Vendors) - 1
				index[line.VendorName] = i
			}
			entry := &report.Vendors[i]
			entry.Units += line.Qty
			entry.GrossCents += line.UnitPriceCents * int64(line.Qty)
			entry.PayableCents += line.CostCents * int64(line.Qty)
		}
	}

	for _, entry := range report.Vendors {
		report.TotalUnits += entry.Units
		report.TotalGrossCents += entry.GrossCents
		report.TotalPayableCents += entry.PayableCents
	}

	e.toCache(ctx, key, report)
	return report, nil
}

// Summary totals transactions and revenue for a scope and counts sold
// quantities per item name. The top item is the highest quantity, with
// the first-encountered name winning ties. Cached per history length.
func (e *Engine) Summary(ctx context.Context, scope string, sales []domain.SaleRecord) (domain.SalesSummary, error) {
	switch scope {
	case domain.SummaryScopeAll, domain.SummaryScopeInternal, domain.SummaryScopeVendor:
	default:
		return domain.SalesSummary{}, store.ErrValidation
	}

	key := fmt.Sprintf("report:summary:%s:%d", scope, len(sales))
	var cached domain.SalesSummary
	if e.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	summary := domain.SalesSummary{
		Scope:      scope,
		ItemCounts: make([]domain.ItemQty, 0, 16),
	}
	index := make(map[string]int)

	for _, sale := range sales {
		if scope == domain.SummaryScopeInternal && sale.Origin != domain.OriginInternal {
			continue
		}
		if scope == domain.SummaryScopeVendor && sale.Origin != domain.OriginVendor {
			continue
		}
		summary.Transactions++
		summary.RevenueCents += sale.TotalCents
		for _, line := range sale.Items {
			i, ok := index[line.Name]
			if !ok {
				summary.ItemCounts = append(summary.ItemCounts, domain.ItemQty{Name: line.Name})
				i = len(summary.ItemCounts) - 1
				index[line.Name] = i
			}
			summary.ItemCounts[i].Qty += line.Qty
		}
	}

	for i := range summary.ItemCounts {
		if summary.TopItem == nil || summary.ItemCounts[i].Qty > summary.TopItem.Qty {
			top := summary.ItemCounts[i]
			summary.TopItem = &top
		}
	}

	e.toCache(ctx, key, summary)
	return summary, nil
}

func (e *Engine) fromCache(ctx context.Context, key string, dest any) bool {
	payload, found, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Printf("[ledger] WARN: cache get %s: %v", key, err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		log.Printf("[ledger] WARN: cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (e *Engine) toCache(ctx context.Context, key string, src any) {
	payload, err := json.Marshal(src)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, payload, e.ttl); err != nil {
		log.Printf("[ledger] WARN: cache set %s: %v", key, err)
	}
}
