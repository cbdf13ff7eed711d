package store

import (
	"context"
	"errors"

	"github.com/azamanzizi-droid/poszz8/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Repository holds the catalog plus the append-only sale and payout
// histories. CommitSale appends the sale and decrements vendor stock as
// one operation; everything derived (cash in hand, vendor balances,
// reports) is computed from the histories on demand and never stored.
type Repository interface {
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*domain.InventoryItem, error)
	CreateItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	CreateItems(ctx context.Context, items []domain.InventoryItem) ([]domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id string) error

	CommitSale(ctx context.Context, sale domain.SaleRecord) (*domain.SaleRecord, error)
	ListSales(ctx context.Context) ([]domain.SaleRecord, error)

	CreatePayout(ctx context.Context, payout domain.PayoutRecord) (*domain.PayoutRecord, error)
	ListPayouts(ctx context.Context) ([]domain.PayoutRecord, error)
}
