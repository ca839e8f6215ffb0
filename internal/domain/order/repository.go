package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines persistence operations for orders
type Repository interface {
	// FindByIDForStore finds an order (with items) by ID within a store
	FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its order number within a store
	FindByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*Order, error)

	// FindAllForStore finds orders for a store with filtering
	FindAllForStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]Order, error)

	// CountForStore counts orders for a store with filtering
	CountForStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts orders in a given status for a store
	CountByStatus(ctx context.Context, storeID uuid.UUID, status Status) (int64, error)

	// Save persists the order and reconciles its items
	Save(ctx context.Context, order *Order) error

	// SaveWithLock persists with an optimistic version check
	SaveWithLock(ctx context.Context, order *Order) error

	// UpdateTotals persists only the derived monetary fields. Discount,
	// shipping and tax are operator inputs and must not be touched here.
	UpdateTotals(ctx context.Context, storeID, orderID uuid.UUID, subtotal, total decimal.Decimal) error

	// UpdateTracking persists the waybill and new status for a freshly
	// provisioned shipment. Must refuse to overwrite an existing waybill.
	UpdateTracking(ctx context.Context, storeID, orderID uuid.UUID, trackingNumber string, status Status) error

	// DeleteForStore deletes an order and its items
	DeleteForStore(ctx context.Context, storeID, id uuid.UUID) error

	// GenerateOrderNumber generates the next sequential order number
	GenerateOrderNumber(ctx context.Context, storeID uuid.UUID) (string, error)
}
