package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/azamanzizi-droid/poszz8/internal/csvio"
	"github.com/azamanzizi-droid/poszz8/internal/domain"
	"github.com/azamanzizi-droid/poszz8/internal/service"
	"github.com/azamanzizi-droid/poszz8/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/items", a.handleItems)
	mux.HandleFunc("/api/v1/items/import", a.handleItemImport)
	mux.HandleFunc("/api/v1/items/template", a.handleItemTemplate)
	mux.HandleFunc("/api/v1/items/export", a.handleItemExport)
	mux.HandleFunc("/api/v1/items/", a.handleItemActions)

	mux.HandleFunc("/api/v1/sales", a.handleSales)
	mux.HandleFunc("/api/v1/sales/preview", a.handleSalePreview)
	mux.HandleFunc("/api/v1/sales/export", a.handleSaleExport)
	mux.HandleFunc("/api/v1/sales/", a.handleSaleActions)

	mux.HandleFunc("/api/v1/receipts/preview", a.handleReceiptPreview)

	mux.HandleFunc("/api/v1/payouts", a.handlePayouts)

	mux.HandleFunc("/api/v1/ledger/cash-in-hand", a.handleCashInHand)
	mux.HandleFunc("/api/v1/ledger/vendor-balances", a.handleVendorBalances)
	mux.HandleFunc("/api/v1/ledger/reconciliation", a.handleReconciliation)

	mux.HandleFunc("/api/v1/reports/vendor-month", a.handleVendorMonthReport)
	mux.HandleFunc("/api/v1/reports/summary", a.handleSummary)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.service.ListItems(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req domain.ItemCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		item, err := a.service.AddItem(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleItemActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/items/"
	id := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("item id required"))
		return
	}

	// Deleting an id that no longer exists is a quiet success.
	if err := a.service.DeleteItem(r.Context(), id); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleItemImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	result, err := a.service.ImportCatalogCSV(r.Context(), r.Body)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, csvio.ErrEmptyInput) || errors.Is(err, csvio.ErrNoValidRows) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleItemTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeCSV(w, "template-katalog.csv", []byte(csvio.TemplateCSV))
}

func (a *API) handleItemExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	payload, err := a.service.ExportCatalogCSV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeCSV(w, "katalog.csv", payload)
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sales, err := a.service.ListSales(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		// Newest-first tail of history; the full list stays available
		// with a large enough limit.
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 1000)
		if len(sales) > limit {
			sales = sales[len(sales)-limit:]
		}
		writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
	case http.MethodPost:
		var req domain.SaleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		sale, err := a.service.CommitSale(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleSalePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	draft, err := a.service.PreviewSale(r.Context(), req)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

func (a *API) handleSaleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	payload, err := a.service.ExportSalesCSV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeCSV(w, "jualan.csv", payload)
}

// handleSaleActions serves /api/v1/sales/{id}/receipt. With format=pdf the
// response is the PDF slip itself; otherwise the text and ESC/POS payloads
// come back as JSON.
func (a *API) handleSaleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/sales/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if !strings.HasSuffix(tail, "/receipt") {
		writeError(w, http.StatusBadRequest, errors.New("unknown sale action"))
		return
	}
	saleID := strings.Trim(strings.TrimSuffix(tail, "/receipt"), "/")
	if saleID == "" {
		writeError(w, http.StatusBadRequest, errors.New("sale id required"))
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "pdf") {
		payload, name, err := a.service.SaleReceiptPDF(r.Context(), saleID)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		_, _ = w.Write(payload)
		return
	}

	resp, err := a.service.SaleReceipt(r.Context(), saleID)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleReceiptPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.PreviewReceipt(r.Context(), req)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handlePayouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		payouts, err := a.service.ListPayouts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payouts": payouts})
	case http.MethodPost:
		var req domain.PayoutRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		payout, err := a.service.RecordPayout(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"payout": payout})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCashInHand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	cash, err := a.service.CashInHand(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cash_in_hand_cents": cash})
}

func (a *API) handleVendorBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	balances, err := a.service.VendorBalances(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendors": balances})
}

func (a *API) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, errors.New("date required (YYYY-MM-DD)"))
		return
	}
	counted, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("counted_cents")), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("counted_cents must be an integer"))
		return
	}

	recon, err := a.service.DailyReconciliation(r.Context(), date, counted)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, recon)
}

func (a *API) handleVendorMonthReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		writeError(w, http.StatusBadRequest, errors.New("month required (YYYY-MM)"))
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		payload, err := a.service.MonthlyVendorReportCSV(r.Context(), month)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeCSV(w, fmt.Sprintf("laporan-vendor-%s.csv", month), payload)
		return
	}

	report, err := a.service.MonthlyVendorReport(r.Context(), month)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	summary, err := a.service.SalesSummary(r.Context(), strings.TrimSpace(r.URL.Query().Get("scope")))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		startedAt := time.Now()
		next.ServeHTTP(recorder, r)
		observeRequest(r.Method, r.URL.Path, recorder.status, time.Since(startedAt))
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeCSV(w http.ResponseWriter, name string, payload []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(payload)
}
