package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/azamanzizi-droid/poszz8/internal/csvio"
	"github.com/azamanzizi-droid/poszz8/internal/domain"
	"github.com/azamanzizi-droid/poszz8/internal/ledger"
	"github.com/azamanzizi-droid/poszz8/internal/receipt"
	"github.com/azamanzizi-droid/poszz8/internal/store"
	"github.com/azamanzizi-droid/poszz8/internal/xid"
)

// Service holds the business rules of the stall: catalog upkeep, the
// sale pipeline, payouts, and the derived ledger views. All mutations
// validate first and commit through the repository afterwards, so a
// rejected request never leaves partial state behind.
type Service struct {
	repo        store.Repository
	engine      *ledger.Engine
	renderer    *receipt.Renderer
	internalTag string
	loc         *time.Location
}

func New(repo store.Repository, engine *ledger.Engine, renderer *receipt.Renderer, internalTag string, loc *time.Location) *Service {
	if internalTag == "" {
		internalTag = "ZZ"
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:        repo,
		engine:      engine,
		renderer:    renderer,
		internalTag: internalTag,
		loc:         loc,
	}
}

func (s *Service) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) AddItem(ctx context.Context, req domain.ItemCreateRequest) (domain.InventoryItem, error) {
	req.VendorName = strings.TrimSpace(req.VendorName)
	req.Name = strings.TrimSpace(req.Name)
	if req.VendorName == "" || req.Name == "" {
		return domain.InventoryItem{}, store.ErrValidation
	}
	if req.PriceCents < 0 || req.CostCents < 0 || req.Stock < 0 {
		return domain.InventoryItem{}, store.ErrValidation
	}

	origin := domain.OriginVendor
	if strings.EqualFold(req.VendorName, s.internalTag) {
		origin = domain.OriginInternal
	}

	created, err := s.repo.CreateItem(ctx, domain.InventoryItem{
		ID:         xid.New("item"),
		VendorName: req.VendorName,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Stock:      req.Stock,
		Category:   strings.TrimSpace(req.Category),
		Origin:     origin,
		DateAdded:  time.Now().UTC(),
	})
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return *created, nil
}

// ImportCatalogCSV bulk-loads catalog rows. Malformed rows are counted
// and dropped; the import only fails when nothing usable was submitted.
func (s *Service) ImportCatalogCSV(ctx context.Context, r io.Reader) (domain.ImportResult, error) {
	parsed, err := csvio.ParseCatalog(r, s.internalTag)
	if err != nil {
		return domain.ImportResult{Submitted: parsed.Submitted, Skipped: parsed.Skipped}, err
	}

	created, err := s.repo.CreateItems(ctx, parsed.Items)
	if err != nil {
		return domain.ImportResult{}, err
	}

	return domain.ImportResult{
		Submitted: parsed.Submitted,
		Accepted:  len(created),
		Skipped:   parsed.Skipped,
		Items:     created,
	}, nil
}

// DeleteItem removes a catalog entry. Deleting an id that no longer
// exists succeeds quietly; sale history snapshots are never touched.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, strings.TrimSpace(id))
}

func (s *Service) ExportCatalogCSV(ctx context.Context) ([]byte, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return csvio.CatalogCSV(items), nil
}

// PreviewSale prices the cart and computes totals without touching any
// state: same arithmetic as a commit, nothing persisted.
func (s *Service) PreviewSale(ctx context.Context, req domain.SaleRequest) (domain.DraftSale, error) {
	return s.buildDraft(ctx, req)
}

// CommitSale turns a cart into a permanent sale record. The history
// append and the vendor stock decrement happen as one repository
// operation; a validation failure mutates nothing.
func (s *Service) CommitSale(ctx context.Context, req domain.SaleRequest) (domain.SaleRecord, error) {
	draft, err := s.buildDraft(ctx, req)
	if err != nil {
		return domain.SaleRecord{}, err
	}

	committed, err := s.repo.CommitSale(ctx, domain.SaleRecord{
		ID:            xid.New("sale"),
		Items:         draft.Items,
		TotalCents:    draft.TotalCents,
		ReceivedCents: draft.ReceivedCents,
		ChangeCents:   draft.ChangeCents,
		PaymentMethod: draft.PaymentMethod,
		Origin:        draft.Origin,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return domain.SaleRecord{}, err
	}
	return *committed, nil
}

// buildDraft resolves prices and totals for a cart. Vendor lines always
// sell at the catalog price; internal lines have no catalog price (it is
// zero) and must bring a positive manual price.
func (s *Service) buildDraft(ctx context.Context, req domain.SaleRequest) (domain.DraftSale, error) {
	if len(req.Lines) == 0 {
		return domain.DraftSale{}, store.ErrValidation
	}
	if req.Origin != domain.OriginInternal && req.Origin != domain.OriginVendor {
		return domain.DraftSale{}, store.ErrValidation
	}
	if req.PaymentMethod != domain.PaymentCash && req.PaymentMethod != domain.PaymentEwallet {
		return domain.DraftSale{}, store.ErrValidation
	}

	lines := make([]domain.SaleLine, 0, len(req.Lines))
	total := int64(0)
	for _, cartLine := range req.Lines {
		if cartLine.Qty < 1 {
			return domain.DraftSale{}, store.ErrValidation
		}
		item, err := s.repo.GetItem(ctx, cartLine.ItemID)
		if err != nil {
			return domain.DraftSale{}, fmt.Errorf("line %s: %w", cartLine.ItemID, err)
		}

		unitPrice := item.PriceCents
		if item.Origin == domain.OriginInternal {
			if cartLine.UnitPriceCents <= 0 {
				return domain.DraftSale{}, store.ErrValidation
			}
			unitPrice = cartLine.UnitPriceCents
		}

		lines = append(lines, domain.SaleLine{
			ItemID:         item.ID,
			VendorName:     item.VendorName,
			Name:           item.Name,
			Origin:         item.Origin,
			UnitPriceCents: unitPrice,
			CostCents:      item.CostCents,
			Qty:            cartLine.Qty,
		})
		total += unitPrice * int64(cartLine.Qty)
	}

	if req.PaymentMethod == domain.PaymentCash && req.ReceivedCents < total {
		return domain.DraftSale{}, store.ErrValidation
	}

	change := req.ReceivedCents - total
	if change < 0 {
		change = 0
	}

	return domain.DraftSale{
		Items:         lines,
		TotalCents:    total,
		ReceivedCents: req.ReceivedCents,
		ChangeCents:   change,
		PaymentMethod: req.PaymentMethod,
		Origin:        req.Origin,
	}, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) ExportSalesCSV(ctx context.Context) ([]byte, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return csvio.SalesCSV(sales, s.loc), nil
}

func (s *Service) RecordPayout(ctx context.Context, req domain.PayoutRequest) (domain.PayoutRecord, error) {
	req.VendorName = strings.TrimSpace(req.VendorName)
	if req.VendorName == "" || req.AmountCents <= 0 {
		return domain.PayoutRecord{}, store.ErrValidation
	}

	created, err := s.repo.CreatePayout(ctx, domain.PayoutRecord{
		ID:          xid.New("payout"),
		VendorName:  req.VendorName,
		AmountCents: req.AmountCents,
		Note:        strings.TrimSpace(req.Note),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return domain.PayoutRecord{}, err
	}
	return *created, nil
}

func (s *Service) ListPayouts(ctx context.Context) ([]domain.PayoutRecord, error) {
	return s.repo.ListPayouts(ctx)
}

func (s *Service) CashInHand(ctx context.Context) (int64, error) {
	sales, payouts, err := s.histories(ctx)
	if err != nil {
		return 0, err
	}
	return ledger.CashInHand(sales, payouts), nil
}

func (s *Service) VendorBalances(ctx context.Context) ([]domain.VendorBalance, error) {
	sales, payouts, err := s.histories(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.VendorBalances(sales, payouts), nil
}

func (s *Service) DailyReconciliation(ctx context.Context, date string, countedCents int64) (domain.DailyReconciliation, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DailyReconciliation{}, err
	}
	return s.engine.DailyReconciliation(date, countedCents, sales)
}

func (s *Service) MonthlyVendorReport(ctx context.Context, month string) (domain.VendorMonthReport, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.VendorMonthReport{}, err
	}
	return s.engine.MonthlyVendorReport(ctx, month, sales)
}

func (s *Service) MonthlyVendorReportCSV(ctx context.Context, month string) ([]byte, error) {
	report, err := s.MonthlyVendorReport(ctx, month)
	if err != nil {
		return nil, err
	}
	return csvio.VendorMonthCSV(report), nil
}

func (s *Service) SalesSummary(ctx context.Context, scope string) (domain.SalesSummary, error) {
	if scope == "" {
		scope = domain.SummaryScopeAll
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	return s.engine.Summary(ctx, scope, sales)
}

// SaleReceipt renders the receipt for a committed sale.
func (s *Service) SaleReceipt(ctx context.Context, saleID string) (domain.ReceiptResponse, error) {
	sale, err := s.findSale(ctx, saleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	doc := receipt.FromSale(*sale)
	return domain.ReceiptResponse{
		SaleID:       sale.ID,
		Text:         s.renderer.Text(doc),
		EscposBase64: base64.StdEncoding.EncodeToString(s.renderer.Escpos(doc)),
		FileName:     fmt.Sprintf("resit-%s.bin", sale.ID),
	}, nil
}

// PreviewReceipt renders a receipt for an uncommitted cart. The draft is
// priced exactly like a commit but nothing is persisted, and the output
// is tagged as a preview.
func (s *Service) PreviewReceipt(ctx context.Context, req domain.SaleRequest) (domain.ReceiptResponse, error) {
	draft, err := s.buildDraft(ctx, req)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	doc := receipt.FromDraft(draft, time.Now().UTC())
	return domain.ReceiptResponse{
		Preview:      true,
		Text:         s.renderer.Text(doc),
		EscposBase64: base64.StdEncoding.EncodeToString(s.renderer.Escpos(doc)),
		FileName:     "resit-pratonton.bin",
	}, nil
}

// SaleReceiptPDF renders the 80mm PDF slip for a committed sale.
func (s *Service) SaleReceiptPDF(ctx context.Context, saleID string) ([]byte, string, error) {
	sale, err := s.findSale(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.renderer.PDF(receipt.FromSale(*sale))
	if err != nil {
		return nil, "", err
	}
	return payload, fmt.Sprintf("resit-%s.pdf", sale.ID), nil
}

func (s *Service) findSale(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return nil, store.ErrValidation
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		if sales[i].ID == saleID {
			return &sales[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Service) histories(ctx context.Context) ([]domain.SaleRecord, []domain.PayoutRecord, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, nil, err
	}
	payouts, err := s.repo.ListPayouts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sales, payouts, nil
}
