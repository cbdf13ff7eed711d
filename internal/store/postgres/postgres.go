// Package postgres backs the repository with PostgreSQL. Sale lines are
// stored as a JSONB snapshot on the sale row, so catalog edits never
// rewrite history.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/azamanzizi-droid/poszz8/internal/domain"
	"github.com/azamanzizi-droid/poszz8/internal/store"
	"github.com/azamanzizi-droid/poszz8/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string, internalTag string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.seedIfEmpty(ctx, internalTag); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			vendor_name TEXT NOT NULL,
			name TEXT NOT NULL,
			price_cents BIGINT NOT NULL DEFAULT 0,
			cost_cents BIGINT NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL,
			date_added TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			items JSONB NOT NULL,
			total_cents BIGINT NOT NULL,
			received_cents BIGINT NOT NULL DEFAULT 0,
			change_cents BIGINT NOT NULL DEFAULT 0,
			payment_method TEXT NOT NULL,
			origin TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS payouts (
			id TEXT PRIMARY KEY,
			vendor_name TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_vendor ON payouts (vendor_name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedIfEmpty(ctx context.Context, internalTag string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM items`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, item := range domain.DefaultCatalog(internalTag, time.Now().UTC()) {
		item.ID = xid.New("item")
		if _, err := s.CreateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_name, name, price_cents, cost_cents, stock, category, origin, date_added
		FROM items
		ORDER BY date_added, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 64)
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ID, &item.VendorName, &item.Name, &item.PriceCents, &item.CostCents, &item.Stock, &item.Category, &item.Origin, &item.DateAdded); err != nil {
			return nil, err
		}
		item.DateAdded = item.DateAdded.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, vendor_name, name, price_cents, cost_cents, stock, category, origin, date_added
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.VendorName, &item.Name, &item.PriceCents, &item.CostCents, &item.Stock, &item.Category, &item.Origin, &item.DateAdded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.DateAdded = item.DateAdded.UTC()
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	prepared, err := prepareItem(item)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, vendor_name, name, price_cents, cost_cents, stock, category, origin, date_added)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, prepared.ID, prepared.VendorName, prepared.Name, prepared.PriceCents, prepared.CostCents, prepared.Stock, prepared.Category, prepared.Origin, prepared.DateAdded)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}
	return &prepared, nil
}

func (s *Store) CreateItems(ctx context.Context, items []domain.InventoryItem) ([]domain.InventoryItem, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		prepared, err := prepareItem(item)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (id, vendor_name, name, price_cents, cost_cents, stock, category, origin, date_added)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, prepared.ID, prepared.VendorName, prepared.Name, prepared.PriceCents, prepared.CostCents, prepared.Stock, prepared.Category, prepared.Origin, prepared.DateAdded)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrValidation
			}
			return nil, err
		}
		created = append(created, prepared)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteItem removes a catalog entry. A missing id is a no-op: the item
// is equally gone either way. Sale rows keep their own line snapshots.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	return err
}

// CommitSale appends the sale row and decrements stock for vendor-origin
// lines in one serializable transaction. Stock may go negative; an
// oversell never blocks the sale.
func (s *Store) CommitSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	linesJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, items, total_cents, received_cents, change_cents, payment_method, origin, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sale.ID, linesJSON, sale.TotalCents, sale.ReceivedCents, sale.ChangeCents, sale.PaymentMethod, sale.Origin, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	for _, line := range sale.Items {
		if line.Origin != domain.OriginVendor {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE items SET stock = stock - $2 WHERE id = $1
		`, line.ItemID, line.Qty)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	committed := sale
	return &committed, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, items, total_cents, received_cents, change_cents, payment_method, origin, created_at
		FROM sales
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.SaleRecord, 0, 128)
	for rows.Next() {
		var sale domain.SaleRecord
		var linesJSON []byte
		if err := rows.Scan(&sale.ID, &linesJSON, &sale.TotalCents, &sale.ReceivedCents, &sale.ChangeCents, &sale.PaymentMethod, &sale.Origin, &sale.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(linesJSON, &sale.Items); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreatePayout(ctx context.Context, payout domain.PayoutRecord) (*domain.PayoutRecord, error) {
	if strings.TrimSpace(payout.VendorName) == "" || payout.AmountCents <= 0 {
		return nil, store.ErrValidation
	}
	if payout.ID == "" {
		payout.ID = xid.New("payout")
	}
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payouts (id, vendor_name, amount_cents, note, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, payout.ID, payout.VendorName, payout.AmountCents, payout.Note, payout.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := payout
	return &created, nil
}

func (s *Store) ListPayouts(ctx context.Context) ([]domain.PayoutRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_name, amount_cents, note, created_at
		FROM payouts
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := make([]domain.PayoutRecord, 0, 32)
	for rows.Next() {
		var payout domain.PayoutRecord
		if err := rows.Scan(&payout.ID, &payout.VendorName, &payout.AmountCents, &payout.Note, &payout.CreatedAt); err != nil {
			return nil, err
		}
		payout.CreatedAt = payout.CreatedAt.UTC()
		payouts = append(payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payouts, nil
}

func prepareItem(item domain.InventoryItem) (domain.InventoryItem, error) {
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.VendorName) == "" {
		return domain.InventoryItem{}, store.ErrValidation
	}
	if item.PriceCents < 0 || item.CostCents < 0 {
		return domain.InventoryItem{}, store.ErrValidation
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now().UTC()
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
