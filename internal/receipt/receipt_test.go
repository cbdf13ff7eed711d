package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/azamanzizi-droid/poszz8/internal/domain"
)

var testLoc = time.FixedZone("MYT", 8*3600)

func sampleSale() domain.SaleRecord {
	return domain.SaleRecord{
		ID: "sale-123",
		Items: []domain.SaleLine{
			{ItemID: "v1", VendorName: "Kak Yam", Name: "Mee Tarik", Origin: domain.OriginVendor, UnitPriceCents: 400, CostCents: 300, Qty: 2},
			{ItemID: "z1", VendorName: "ZZ", Name: "Pisang Goreng", Origin: domain.OriginInternal, UnitPriceCents: 150, Qty: 1},
		},
		TotalCents:    950,
		ReceivedCents: 1000,
		ChangeCents:   50,
		PaymentMethod: domain.PaymentCash,
		Origin:        domain.OriginVendor,
		CreatedAt:     time.Date(2026, 3, 14, 4, 0, 0, 0, time.UTC),
	}
}

func TestTextCommittedReceipt(t *testing.T) {
	r := NewRenderer("Pisang Goreng ZZ", testLoc)
	out := r.Text(FromSale(sampleSale()))

	if strings.Contains(out, "PRATONTON") {
		t.Fatal("committed receipt must not carry the preview banner")
	}
	if !strings.Contains(out, "sale-123") {
		t.Fatal("committed receipt should show the sale id")
	}
	// Quantity suffix only on vendor-origin lines.
	if !strings.Contains(out, "Mee Tarik x2") {
		t.Fatalf("vendor line missing qty suffix:\n%s", out)
	}
	if strings.Contains(out, "Pisang Goreng x") {
		t.Fatalf("internal line must not carry qty suffix:\n%s", out)
	}
	if !strings.Contains(out, "RM 9.50") {
		t.Fatalf("total missing:\n%s", out)
	}
	if !strings.Contains(out, "Baki") || !strings.Contains(out, "RM 0.50") {
		t.Fatalf("cash change missing:\n%s", out)
	}
}

func TestTextPreviewReceipt(t *testing.T) {
	r := NewRenderer("Pisang Goreng ZZ", testLoc)
	sale := sampleSale()
	draft := domain.DraftSale{
		Items:         sale.Items,
		TotalCents:    sale.TotalCents,
		ReceivedCents: sale.ReceivedCents,
		ChangeCents:   sale.ChangeCents,
		PaymentMethod: sale.PaymentMethod,
		Origin:        sale.Origin,
	}

	out := r.Text(FromDraft(draft, time.Now()))
	if !strings.Contains(out, "MOD PRATONTON") {
		t.Fatalf("preview banner missing:\n%s", out)
	}
	if strings.Contains(out, "sale-123") {
		t.Fatal("preview must not carry a sale id")
	}
}

func TestTextEwalletSkipsChangeBlock(t *testing.T) {
	r := NewRenderer("Pisang Goreng ZZ", testLoc)
	sale := sampleSale()
	sale.PaymentMethod = domain.PaymentEwallet
	sale.ReceivedCents = 0
	sale.ChangeCents = 0

	out := r.Text(FromSale(sale))
	if strings.Contains(out, "Tunai") || strings.Contains(out, "Baki") {
		t.Fatalf("ewallet receipt should not show cash lines:\n%s", out)
	}
}

func TestEscposFraming(t *testing.T) {
	r := NewRenderer("Pisang Goreng ZZ", testLoc)
	out := r.Escpos(FromSale(sampleSale()))

	if !bytes.HasPrefix(out, []byte{0x1b, 0x40}) {
		t.Fatal("missing printer init sequence")
	}
	if !bytes.HasSuffix(out, []byte{0x1d, 0x56, 0x41, 0x10}) {
		t.Fatal("missing cut command")
	}
}

func TestPDFOutput(t *testing.T) {
	r := NewRenderer("Pisang Goreng ZZ", testLoc)

	out, err := r.PDF(FromSale(sampleSale()))
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}

	preview, err := r.PDF(FromDraft(domain.DraftSale{
		Items:         sampleSale().Items,
		TotalCents:    950,
		PaymentMethod: domain.PaymentEwallet,
	}, time.Now()))
	if err != nil {
		t.Fatalf("preview PDF: %v", err)
	}
	if len(preview) == 0 {
		t.Fatal("empty preview PDF")
	}
}
