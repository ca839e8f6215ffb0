package order

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// SellerStateProvider supplies the store's registered tax state. The split
// between CGST/SGST and IGST on every line depends on it.
type SellerStateProvider interface {
	SellerState(ctx context.Context, storeID uuid.UUID) string
}

// Service handles order business operations
type Service struct {
	repo        order.Repository
	sellerState SellerStateProvider
	events      shared.EventPublisher
	logger      *zap.Logger
}

// ServiceOption is a functional option for configuring the Service
type ServiceOption func(*Service)

// WithEventPublisher sets the sink for the order aggregate's domain events
func WithEventPublisher(pub shared.EventPublisher) ServiceOption {
	return func(s *Service) {
		s.events = pub
	}
}

// NewService creates a new order Service
func NewService(repo order.Repository, sellerState SellerStateProvider, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:        repo,
		sellerState: sellerState,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publishEvents drains the aggregate's pending events after a successful
// save. Delivery failures are logged, not bubbled; the state change is
// already committed.
func (s *Service) publishEvents(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if s.events == nil {
		return
	}
	for _, e := range events {
		if err := s.events.Publish(ctx, e); err != nil {
			s.logger.Warn("Domain event delivery failed",
				zap.String("event_type", e.EventType()),
				zap.Error(err))
		}
	}
}

// resolveSellerState returns the store's tax state, empty when no provider
// is configured. An empty state makes every line split intrastate.
func (s *Service) resolveSellerState(ctx context.Context, storeID uuid.UUID) string {
	if s.sellerState == nil {
		return ""
	}
	return s.sellerState.SellerState(ctx, storeID)
}

// Create creates a new order with its line items and charges
func (s *Service) Create(ctx context.Context, storeID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	orderNumber, err := s.repo.GenerateOrderNumber(ctx, storeID)
	if err != nil {
		return nil, err
	}

	shippingAddr, err := req.ShippingAddress.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	billingAddr := shippingAddr
	if req.BillingAddress != nil {
		billingAddr, err = req.BillingAddress.ToAddress()
		if err != nil {
			return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
		}
	}

	o, err := order.NewOrder(storeID, orderNumber, req.CustomerName, req.CustomerEmail, req.CustomerPhone, shippingAddr, billingAddr)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = req.PaymentMethod

	sellerState := s.resolveSellerState(ctx, storeID)
	for _, item := range req.Items {
		if _, err := o.AddItem(item.ProductID, item.Name, item.SKU, item.Quantity, item.UnitPrice, item.GSTPercent, sellerState); err != nil {
			return nil, err
		}
	}

	if req.DiscountAmount != nil {
		if err := o.SetDiscount(*req.DiscountAmount); err != nil {
			return nil, err
		}
	}
	if req.ShippingAmount != nil {
		if err := o.SetShipping(*req.ShippingAmount); err != nil {
			return nil, err
		}
	}
	if req.TaxAmount != nil {
		if err := o.SetTax(*req.TaxAmount); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	s.logger.Info("Order created",
		zap.String("store_id", storeID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Int("items", o.ItemCount()))

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *Service) GetByID(ctx context.Context, storeID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its order number
func (s *Service) GetByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*OrderResponse, error) {
	o, err := s.repo.FindByOrderNumber(ctx, storeID, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, storeID uuid.UUID, filter OrderListFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if len(filter.Statuses) > 0 {
		domainFilter.Filters["statuses"] = filter.Statuses
	}
	if filter.PaymentStatus != nil {
		domainFilter.Filters["payment_status"] = *filter.PaymentStatus
	}
	if filter.HasShipment != nil {
		domainFilter.Filters["has_shipment"] = *filter.HasShipment
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	if filter.MinAmount != nil {
		domainFilter.Filters["min_amount"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		domainFilter.Filters["max_amount"] = *filter.MaxAmount
	}

	orders, err := s.repo.FindAllForStore(ctx, storeID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.CountForStore(ctx, storeID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderListItemResponses(orders), total, nil
}

// AddItem adds a line item to an order and persists the recomputed totals
func (s *Service) AddItem(ctx context.Context, storeID, orderID uuid.UUID, req AddItemRequest) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	sellerState := s.resolveSellerState(ctx, storeID)
	if _, err := o.AddItem(req.ProductID, req.Name, req.SKU, req.Quantity, req.UnitPrice, req.GSTPercent, sellerState); err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateItem applies an item update. A no-op update skips the write entirely.
func (s *Service) UpdateItem(ctx context.Context, storeID, orderID, itemID uuid.UUID, req UpdateItemRequest) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	sellerState := s.resolveSellerState(ctx, storeID)
	changed, err := o.UpdateItem(itemID, order.ItemUpdate{
		Name:      req.Name,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}, sellerState)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.repo.SaveWithLock(ctx, o); err != nil {
			return nil, err
		}
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// RemoveItem removes a line item and persists the recomputed totals
func (s *Service) RemoveItem(ctx context.Context, storeID, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// SetCharges sets the order-level discount, shipping and tax. Nil fields are
// left untouched.
func (s *Service) SetCharges(ctx context.Context, storeID, orderID uuid.UUID, req SetChargesRequest) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	if req.DiscountAmount != nil {
		if err := o.SetDiscount(*req.DiscountAmount); err != nil {
			return nil, err
		}
	}
	if req.ShippingAmount != nil {
		if err := o.SetShipping(*req.ShippingAmount); err != nil {
			return nil, err
		}
	}
	if req.TaxAmount != nil {
		if err := o.SetTax(*req.TaxAmount); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// Recalculate rederives the order totals from its line items and persists
// only the derived fields. Running it twice in a row changes nothing.
func (s *Service) Recalculate(ctx context.Context, storeID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	o.RecalculateTotals()

	if err := s.repo.UpdateTotals(ctx, storeID, orderID, o.Subtotal, o.TotalAmount); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateStatus advances an order through its lifecycle
func (s *Service) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, target order.Status) (*OrderResponse, error) {
	o, err := s.repo.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	switch target {
	case order.StatusShipped:
		err = o.MarkShipped()
	case order.StatusDelivered:
		err = o.MarkDelivered()
	case order.StatusCancelled:
		err = o.Cancel()
	default:
		err = shared.NewDomainError("INVALID_STATE", "Unsupported status transition")
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Cancel cancels an order
func (s *Service) Cancel(ctx context.Context, storeID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.UpdateStatus(ctx, storeID, orderID, order.StatusCancelled)
}

// Delete deletes an order and its items
func (s *Service) Delete(ctx context.Context, storeID, orderID uuid.UUID) error {
	if err := s.repo.DeleteForStore(ctx, storeID, orderID); err != nil {
		return err
	}

	s.logger.Info("Order deleted",
		zap.String("store_id", storeID.String()),
		zap.String("order_id", orderID.String()))
	return nil
}
