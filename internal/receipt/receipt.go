// Package receipt renders sale receipts. Committed sales and previews go
// through the same renderer; a preview is just a Document with the
// Preview flag set, no id, and no persisted record behind it.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/azamanzizi-droid/poszz8/internal/csvio"
	"github.com/azamanzizi-droid/poszz8/internal/domain"
)

// Document is the tagged receipt input: one shape for both committed
// sales and uncommitted previews.
type Document struct {
	Preview       bool
	ID            string
	Items         []domain.SaleLine
	TotalCents    int64
	ReceivedCents int64
	ChangeCents   int64
	PaymentMethod string
	At            time.Time
}

func FromSale(sale domain.SaleRecord) Document {
	return Document{
		ID:            sale.ID,
		Items:         sale.Items,
		TotalCents:    sale.TotalCents,
		ReceivedCents: sale.ReceivedCents,
		ChangeCents:   sale.ChangeCents,
		PaymentMethod: sale.PaymentMethod,
		At:            sale.CreatedAt,
	}
}

func FromDraft(draft domain.DraftSale, at time.Time) Document {
	return Document{
		Preview:       true,
		Items:         draft.Items,
		TotalCents:    draft.TotalCents,
		ReceivedCents: draft.ReceivedCents,
		ChangeCents:   draft.ChangeCents,
		PaymentMethod: draft.PaymentMethod,
		At:            at,
	}
}

type Renderer struct {
	stallName string
	loc       *time.Location
}

func NewRenderer(stallName string, loc *time.Location) *Renderer {
	if stallName == "" {
		stallName = "Pisang Goreng ZZ"
	}
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{stallName: stallName, loc: loc}
}

// Text renders the plain 32-column receipt. Vendor-origin lines carry a
// quantity suffix; internal lines are priced per entry and show none.
func (r *Renderer) Text(doc Document) string {
	lines := r.lines(doc)
	return strings.Join(lines, "\n") + "\n"
}

// Escpos wraps the text lines in printer init and cut commands.
func (r *Renderer) Escpos(doc Document) []byte {
	out := []byte{0x1b, 0x40}
	for _, line := range r.lines(doc) {
		out = append(out, []byte(line)...)
		out = append(out, '\n')
	}
	out = append(out, []byte{0x1d, 0x56, 0x41, 0x10}...)
	return out
}

// PDF renders an 80mm receipt slip.
func (r *Renderer) PDF(doc Document) ([]byte, error) {
	height := 90.0 + float64(len(doc.Items))*5.0
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(5, 6, 5)
	pdf.AddPage()

	if doc.Preview {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(70, 5, "MOD PRATONTON", "1", 1, "C", false, 0, "")
		pdf.Ln(1)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(70, 6, r.stallName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(70, 4, "Resit Rasmi", "", 1, "C", false, 0, "")
	pdf.CellFormat(70, 4, doc.At.In(r.loc).Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	if doc.ID != "" {
		pdf.CellFormat(70, 4, doc.ID, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Items {
		pdf.CellFormat(45, 5, itemLabel(line), "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 5, "RM "+csvio.FormatRM(line.UnitPriceCents*int64(line.Qty)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Jumlah", "T", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "RM "+csvio.FormatRM(doc.TotalCents), "T", 1, "R", false, 0, "")

	if doc.PaymentMethod == domain.PaymentCash {
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(45, 5, "Tunai", "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 5, "RM "+csvio.FormatRM(doc.ReceivedCents), "", 1, "R", false, 0, "")
		pdf.CellFormat(45, 5, "Baki", "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 5, "RM "+csvio.FormatRM(doc.ChangeCents), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(70, 4, "Terima Kasih!", "", 1, "C", false, 0, "")
	pdf.CellFormat(70, 4, "Sila Datang Lagi.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) lines(doc Document) []string {
	lines := make([]string, 0, len(doc.Items)+14)
	if doc.Preview {
		lines = append(lines, "*** MOD PRATONTON ***")
	}
	lines = append(lines,
		r.stallName,
		"Resit Rasmi",
		doc.At.In(r.loc).Format("2006-01-02 15:04:05"),
	)
	if doc.ID != "" {
		lines = append(lines, doc.ID)
	}
	lines = append(lines, strings.Repeat("-", 32))

	for _, line := range doc.Items {
		amount := "RM " + csvio.FormatRM(line.UnitPriceCents*int64(line.Qty))
		lines = append(lines, padLine(itemLabel(line), amount))
	}

	lines = append(lines, strings.Repeat("-", 32))
	lines = append(lines, padLine("Jumlah", "RM "+csvio.FormatRM(doc.TotalCents)))
	if doc.PaymentMethod == domain.PaymentCash {
		lines = append(lines, padLine("Tunai", "RM "+csvio.FormatRM(doc.ReceivedCents)))
		lines = append(lines, padLine("Baki", "RM "+csvio.FormatRM(doc.ChangeCents)))
	}
	lines = append(lines,
		strings.Repeat("=", 32),
		"Terima Kasih!",
		"Sila Datang Lagi.",
		"",
	)
	return lines
}

func itemLabel(line domain.SaleLine) string {
	if line.Origin == domain.OriginVendor {
		return fmt.Sprintf("%s x%d", line.Name, line.Qty)
	}
	return line.Name
}

func padLine(label string, amount string) string {
	gap := 32 - len(label) - len(amount)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + amount
}
