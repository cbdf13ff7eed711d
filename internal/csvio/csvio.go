// Package csvio implements the catalog import format and the CSV export
// projections. The format is deliberately plain: comma-delimited, no
// quoting, so a field containing a comma is not supported.
package csvio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/azamanzizi-droid/poszz8/internal/domain"
)

var (
	ErrEmptyInput  = errors.New("no rows submitted")
	ErrNoValidRows = errors.New("no valid rows")
)

// TemplateCSV is the import template handed to users. Column order is
// the contract: vendor, name, selling price, cost price, stock, category.
const TemplateCSV = "Vendor,Nama Item,Harga Jual (RM),Harga Kos (RM),Stok,Kategori\n" +
	"ZZ,Pisang Goreng,0,0,100,Gorengan\n" +
	"Kak Yam,Mee Tarik,4.00,3.00,20,Makanan\n"

type ParseResult struct {
	Items     []domain.InventoryItem
	Submitted int
	Skipped   int
}

// ParseCatalog reads import rows. The first line is always treated as a
// header and ignored. Malformed rows are skipped, never fatal: a bulk
// import should salvage every usable row. Origin is inferred from the
// vendor column: a vendor equal to the internal tag (case-insensitive)
// marks the item internal.
func ParseCatalog(r io.Reader, internalTag string) (ParseResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	result := ParseResult{Items: make([]domain.InventoryItem, 0, 32)}
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			first = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.Submitted++

		item, ok := parseRow(line, internalTag)
		if !ok {
			result.Skipped++
			continue
		}
		result.Items = append(result.Items, item)
	}
	if err := scanner.Err(); err != nil {
		return ParseResult{}, err
	}

	if result.Submitted == 0 {
		return result, ErrEmptyInput
	}
	if len(result.Items) == 0 {
		return result, ErrNoValidRows
	}
	return result, nil
}

func parseRow(line string, internalTag string) (domain.InventoryItem, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return domain.InventoryItem{}, false
	}

	vendor := strings.TrimSpace(fields[0])
	name := strings.TrimSpace(fields[1])
	if vendor == "" || name == "" {
		return domain.InventoryItem{}, false
	}

	priceCents, ok := parseRM(fields[2])
	if !ok || priceCents < 0 {
		return domain.InventoryItem{}, false
	}
	costCents, ok := parseRM(fields[3])
	if !ok || costCents < 0 {
		costCents = 0
	}
	stock, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return domain.InventoryItem{}, false
	}

	category := ""
	if len(fields) > 5 {
		category = strings.TrimSpace(fields[5])
	}

	origin := domain.OriginVendor
	if strings.EqualFold(vendor, internalTag) {
		origin = domain.OriginInternal
	}

	return domain.InventoryItem{
		VendorName: vendor,
		Name:       name,
		PriceCents: priceCents,
		CostCents:  costCents,
		Stock:      stock,
		Category:   category,
		Origin:     origin,
	}, true
}

// SalesCSV renders the sales history export. Line items are flattened
// into one summary column; vendor-origin quantities annotate each name.
func SalesCSV(sales []domain.SaleRecord, loc *time.Location) []byte {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString("ID,Jenis,Item,Jumlah (RM),Kaedah,Tarikh\n")
	for _, sale := range sales {
		parts := make([]string, 0, len(sale.Items))
		for _, line := range sale.Items {
			parts = append(parts, fmt.Sprintf("%s (x%d)", line.Name, line.Qty))
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s\n",
			sale.ID,
			sale.Origin,
			strings.Join(parts, "; "),
			FormatRM(sale.TotalCents),
			sale.PaymentMethod,
			sale.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		)
	}
	return []byte(b.String())
}

// CatalogCSV renders the catalog in the same column order the importer
// reads, so an export can be re-imported as-is.
func CatalogCSV(items []domain.InventoryItem) []byte {
	var b strings.Builder
	b.WriteString("Vendor,Nama Item,Harga Jual (RM),Harga Kos (RM),Stok,Kategori\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%d,%s\n",
			item.VendorName,
			item.Name,
			FormatRM(item.PriceCents),
			FormatRM(item.CostCents),
			item.Stock,
			item.Category,
		)
	}
	return []byte(b.String())
}

// VendorMonthCSV renders the monthly vendor settlement report.
func VendorMonthCSV(report domain.VendorMonthReport) []byte {
	var b strings.Builder
	b.WriteString("Vendor,Item Terjual (Unit),Jumlah Jualan (RM),Bayaran Vendor (RM)\n")
	for _, entry := range report.Vendors {
		fmt.Fprintf(&b, "%s,%d,%s,%s\n",
			entry.VendorName,
			entry.Units,
			FormatRM(entry.GrossCents),
			FormatRM(entry.PayableCents),
		)
	}
	fmt.Fprintf(&b, "JUMLAH,%d,%s,%s\n",
		report.TotalUnits,
		FormatRM(report.TotalGrossCents),
		FormatRM(report.TotalPayableCents),
	)
	return []byte(b.String())
}

// FormatRM renders cents as a ringgit decimal, e.g. 1250 -> "12.50".
func FormatRM(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func parseRM(raw string) (int64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(value * 100)), true
}
