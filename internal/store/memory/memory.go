package memory

import (
	"context"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/azamanzizi-droid/poszz8/internal/domain"
	"github.com/azamanzizi-droid/poszz8/internal/snapshot"
	"github.com/azamanzizi-droid/poszz8/internal/store"
	"github.com/azamanzizi-droid/poszz8/internal/xid"
)

// Store keeps the whole stall state behind one RWMutex. Sales and
// payouts are append-only slices; the catalog is a map keyed by item id.
// After each mutation the state is snapshotted through the persister;
// a failed save is logged and never fails the operation, the in-memory
// state stays the source of truth.
type Store struct {
	mu      sync.RWMutex
	items   map[string]domain.InventoryItem
	sales   []domain.SaleRecord
	payouts []domain.PayoutRecord
	persist snapshot.Persister
}

// New restores state from the persister, falling back to the seeded
// default catalog and empty histories when no snapshot exists.
func New(persist snapshot.Persister, internalTag string) (*Store, error) {
	if persist == nil {
		persist = snapshot.Noop{}
	}

	s := &Store{
		items:   make(map[string]domain.InventoryItem),
		sales:   make([]domain.SaleRecord, 0, 128),
		payouts: make([]domain.PayoutRecord, 0, 32),
		persist: persist,
	}

	var catalog []domain.InventoryItem
	found, err := persist.Load(snapshot.Catalog, &catalog)
	if err != nil {
		return nil, err
	}
	if !found {
		catalog = domain.DefaultCatalog(internalTag, time.Now().UTC())
		for i := range catalog {
			catalog[i].ID = xid.New("item")
		}
	}
	for _, item := range catalog {
		s.items[item.ID] = item
	}

	if _, err := persist.Load(snapshot.Sales, &s.sales); err != nil {
		return nil, err
	}
	if _, err := persist.Load(snapshot.Payouts, &s.payouts); err != nil {
		return nil, err
	}

	return s, nil
}

// NewSeeded returns a non-persisting store with the default catalog.
func NewSeeded() *Store {
	s, err := New(snapshot.Noop{}, "ZZ")
	if err != nil {
		// Noop persister cannot fail a load.
		panic(err)
	}
	return s
}

func (s *Store) ListItems(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	slices.SortFunc(items, compareItems)
	return items, nil
}

func (s *Store) GetItem(_ context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.insertLocked(item)
	if err != nil {
		return nil, err
	}
	s.saveCatalogLocked()
	return created, nil
}

func (s *Store) CreateItems(_ context.Context, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		saved, err := s.insertLocked(item)
		if err != nil {
			return nil, err
		}
		created = append(created, *saved)
	}
	s.saveCatalogLocked()
	return created, nil
}

func (s *Store) insertLocked(item domain.InventoryItem) (*domain.InventoryItem, error) {
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.VendorName) == "" {
		return nil, store.ErrValidation
	}
	if item.PriceCents < 0 || item.CostCents < 0 {
		return nil, store.ErrValidation
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now().UTC()
	}
	if _, exists := s.items[item.ID]; exists {
		return nil, store.ErrValidation
	}

	s.items[item.ID] = item
	created := item
	return &created, nil
}

// DeleteItem removes a catalog entry. A missing id is a no-op: the item
// is equally gone either way. Sale history snapshots are untouched.
func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return nil
	}
	delete(s.items, id)
	s.saveCatalogLocked()
	return nil
}

// CommitSale appends the sale and decrements stock for vendor-origin
// lines that still match a catalog item, all under one lock. Stock may
// go negative; an oversell never blocks the sale.
func (s *Store) CommitSale(_ context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	for _, line := range sale.Items {
		if line.Origin != domain.OriginVendor {
			continue
		}
		item, exists := s.items[line.ItemID]
		if !exists {
			continue
		}
		item.Stock -= line.Qty
		s.items[line.ItemID] = item
	}

	s.sales = append(s.sales, cloneSale(sale))
	s.saveCatalogLocked()
	s.saveSalesLocked()

	committed := cloneSale(sale)
	return &committed, nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.SaleRecord, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	return sales, nil
}

func (s *Store) CreatePayout(_ context.Context, payout domain.PayoutRecord) (*domain.PayoutRecord, error) {
	if strings.TrimSpace(payout.VendorName) == "" || payout.AmountCents <= 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if payout.ID == "" {
		payout.ID = xid.New("payout")
	}
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = time.Now().UTC()
	}

	s.payouts = append(s.payouts, payout)
	s.savePayoutsLocked()

	created := payout
	return &created, nil
}

func (s *Store) ListPayouts(_ context.Context) ([]domain.PayoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payouts := make([]domain.PayoutRecord, len(s.payouts))
	copy(payouts, s.payouts)
	return payouts, nil
}

func (s *Store) saveCatalogLocked() {
	items := make([]domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	slices.SortFunc(items, compareItems)
	if err := s.persist.Save(snapshot.Catalog, items); err != nil {
		log.Printf("[memory-store] WARN: catalog snapshot failed: %v", err)
	}
}

func (s *Store) saveSalesLocked() {
	if err := s.persist.Save(snapshot.Sales, s.sales); err != nil {
		log.Printf("[memory-store] WARN: sales snapshot failed: %v", err)
	}
}

func (s *Store) savePayoutsLocked() {
	if err := s.persist.Save(snapshot.Payouts, s.payouts); err != nil {
		log.Printf("[memory-store] WARN: payouts snapshot failed: %v", err)
	}
}

func compareItems(a domain.InventoryItem, b domain.InventoryItem) int {
	if a.DateAdded.Equal(b.DateAdded) {
		return cmpString(a.ID, b.ID)
	}
	if a.DateAdded.Before(b.DateAdded) {
		return -1
	}
	return 1
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src domain.SaleRecord) domain.SaleRecord {
	dup := src
	items := make([]domain.SaleLine, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
