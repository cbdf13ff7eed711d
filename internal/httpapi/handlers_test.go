package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/azamanzizi-droid/poszz8/internal/domain"
	"github.com/azamanzizi-droid/poszz8/internal/ledger"
	"github.com/azamanzizi-droid/poszz8/internal/receipt"
	"github.com/azamanzizi-droid/poszz8/internal/service"
	"github.com/azamanzizi-droid/poszz8/internal/store/memory"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	loc := time.FixedZone("MYT", 8*3600)
	svc := service.New(
		memory.NewSeeded(),
		ledger.NewEngine(nil, 0, loc),
		receipt.NewRenderer("Pisang Goreng ZZ", loc),
		"ZZ",
		loc,
	)
	return New(svc, "*").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createItem(t *testing.T, handler http.Handler, req domain.ItemCreateRequest) domain.InventoryItem {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Item domain.InventoryItem `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	return resp.Item
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t)
	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestItemLifecycle(t *testing.T) {
	handler := newTestHandler(t)

	item := createItem(t, handler, domain.ItemCreateRequest{
		VendorName: "Kak Yam", Name: "Mee Tarik", PriceCents: 400, CostCents: 300, Stock: 20,
	})
	if item.Origin != domain.OriginVendor {
		t.Fatalf("origin = %s", item.Origin)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/items", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Mee Tarik") {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/items/"+item.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	// Second delete of the same id still succeeds.
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/items/"+item.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat delete: status %d", rec.Code)
	}
}

func TestItemValidationRejected(t *testing.T) {
	handler := newTestHandler(t)
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items", domain.ItemCreateRequest{Name: "No Vendor"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestItemImportAndTemplate(t *testing.T) {
	handler := newTestHandler(t)

	csv := "Vendor,Nama,Harga,Kos,Stok,Kategori\n" +
		"Kak Yam,Mee Tarik,4.00,3.00,20,Makanan\n" +
		"bad,row\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", rec.Code, rec.Body.String())
	}
	var result domain.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if result.Submitted != 2 || result.Accepted != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected import counts: %+v", result)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items/template", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("template: status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("template content type: %s", got)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/items/export", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Mee Tarik") {
		t.Fatalf("export: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestSaleCommitAndReceipt(t *testing.T) {
	handler := newTestHandler(t)
	item := createItem(t, handler, domain.ItemCreateRequest{
		VendorName: "Kak Yam", Name: "Mee Tarik", PriceCents: 400, CostCents: 300, Stock: 10,
	})

	saleReq := domain.SaleRequest{
		Origin:        domain.OriginVendor,
		PaymentMethod: domain.PaymentCash,
		ReceivedCents: 1000,
		Lines:         []domain.CartLine{{ItemID: item.ID, Qty: 2}},
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales/preview", saleReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: status %d body %s", rec.Code, rec.Body.String())
	}
	var previewResp struct {
		Draft domain.DraftSale `json:"draft"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &previewResp); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if previewResp.Draft.TotalCents != 800 || previewResp.Draft.ChangeCents != 200 {
		t.Fatalf("unexpected draft: %+v", previewResp.Draft)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/sales", saleReq)
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit: status %d body %s", rec.Code, rec.Body.String())
	}
	var commitResp struct {
		Sale domain.SaleRecord `json:"sale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &commitResp); err != nil {
		t.Fatalf("decode sale: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/sales/%s/receipt", commitResp.Sale.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt: status %d body %s", rec.Code, rec.Body.String())
	}
	var receiptResp domain.ReceiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &receiptResp); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receiptResp.Preview || !strings.Contains(receiptResp.Text, commitResp.Sale.ID) {
		t.Fatalf("unexpected receipt: %+v", receiptResp)
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/sales/%s/receipt?format=pdf", commitResp.Sale.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf receipt: status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("pdf content type: %s", got)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales/no-such-sale/receipt", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing sale receipt: status %d", rec.Code)
	}
}

func TestReceiptPreviewEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	item := createItem(t, handler, domain.ItemCreateRequest{
		VendorName: "Kak Yam", Name: "Mee Tarik", PriceCents: 400, Stock: 10,
	})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/receipts/preview", domain.SaleRequest{
		Origin:        domain.OriginVendor,
		PaymentMethod: domain.PaymentEwallet,
		Lines:         []domain.CartLine{{ItemID: item.ID, Qty: 1}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var resp domain.ReceiptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Preview || !strings.Contains(resp.Text, "MOD PRATONTON") {
		t.Fatalf("preview receipt not tagged: %+v", resp)
	}
}

func TestPayoutsAndLedger(t *testing.T) {
	handler := newTestHandler(t)
	item := createItem(t, handler, domain.ItemCreateRequest{
		VendorName: "Kak Yam", Name: "Mee Tarik", PriceCents: 400, CostCents: 300, Stock: 10,
	})

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleRequest{
		Origin:        domain.OriginVendor,
		PaymentMethod: domain.PaymentCash,
		ReceivedCents: 2000,
		Lines:         []domain.CartLine{{ItemID: item.ID, Qty: 5}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/payouts", domain.PayoutRequest{VendorName: "Kak Yam", AmountCents: 500})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payout: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/payouts", domain.PayoutRequest{VendorName: "Kak Yam"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero payout: status %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ledger/cash-in-hand", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cash_in_hand_cents":1500`) {
		t.Fatalf("cash in hand: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ledger/vendor-balances", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Kak Yam") {
		t.Fatalf("balances: status %d body %s", rec.Code, rec.Body.String())
	}

	today := time.Now().In(time.FixedZone("MYT", 8*3600)).Format("2006-01-02")
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ledger/reconciliation?date="+today+"&counted_cents=2000", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reconciliation: status %d body %s", rec.Code, rec.Body.String())
	}
	var recon domain.DailyReconciliation
	if err := json.Unmarshal(rec.Body.Bytes(), &recon); err != nil {
		t.Fatalf("decode reconciliation: %v", err)
	}
	if recon.Status != domain.ReconciliationBalanced {
		t.Fatalf("status = %s, want balanced", recon.Status)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ledger/reconciliation?date=bad&counted_cents=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status %d", rec.Code)
	}
}

func TestReportsEndpoints(t *testing.T) {
	handler := newTestHandler(t)
	item := createItem(t, handler, domain.ItemCreateRequest{
		VendorName: "Kak Yam", Name: "Mee Tarik", PriceCents: 400, CostCents: 300, Stock: 10,
	})
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleRequest{
		Origin:        domain.OriginVendor,
		PaymentMethod: domain.PaymentEwallet,
		Lines:         []domain.CartLine{{ItemID: item.ID, Qty: 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit: status %d body %s", rec.Code, rec.Body.String())
	}

	month := time.Now().In(time.FixedZone("MYT", 8*3600)).Format("2006-01")
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/vendor-month?month="+month, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Kak Yam") {
		t.Fatalf("vendor report: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/vendor-month?month="+month+"&format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("vendor report csv: status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("csv content type: %s", got)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/summary?scope=vendor", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d body %s", rec.Code, rec.Body.String())
	}
	var summary domain.SalesSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Transactions != 1 || summary.TopItem == nil || summary.TopItem.Name != "Mee Tarik" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/summary?scope=wholesale", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad scope: status %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)
	rec := doJSON(t, handler, http.MethodPut, "/api/v1/items", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(`{"vendor_name":"Kak Yam","name":"X","bogus":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestPreflightAndSecurityHeaders(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/items", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
}
