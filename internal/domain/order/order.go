package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Status represents the fulfillment status of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a valid order Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Item represents a line item in an order. The GST columns hold the split
// computed at the time the line was last touched; they are snapshots, not
// derived on read.
type Item struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Name       string
	SKU        string
	Quantity   int64
	UnitPrice  decimal.Decimal
	Subtotal   decimal.Decimal // UnitPrice * Quantity, rounded to 2dp
	GSTPercent decimal.Decimal
	CGSTAmount decimal.Decimal
	SGSTAmount decimal.Decimal
	IGSTAmount decimal.Decimal
	Oversold   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewItem creates a new order line item and computes its tax split.
// sellerState is the store's registered state; buyerState comes from the
// order's shipping address.
func NewItem(orderID, productID uuid.UUID, name, sku string, quantity int64, unitPrice, gstPercent decimal.Decimal, sellerState, buyerState string) (*Item, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if gstPercent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_GST_PERCENT", "GST percent cannot be negative")
	}

	now := time.Now()
	item := &Item{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: productID,
		Name:      name,
		SKU:       sku,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.applyTax(gstPercent, sellerState, buyerState)
	return item, nil
}

// applyTax recomputes the line subtotal and GST split
func (i *Item) applyTax(gstPercent decimal.Decimal, sellerState, buyerState string) {
	b := SplitTax(i.UnitPrice, i.Quantity, gstPercent, sellerState, buyerState)
	i.Subtotal = b.Subtotal
	i.GSTPercent = b.GSTPercent
	i.CGSTAmount = b.CGST
	i.SGSTAmount = b.SGST
	i.IGSTAmount = b.IGST
}

// TaxAmount returns the total tax carried by this line
func (i *Item) TaxAmount() decimal.Decimal {
	return i.CGSTAmount.Add(i.SGSTAmount).Add(i.IGSTAmount)
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// Order is the aggregate root for a storefront order. Customer and address
// fields are denormalized snapshots taken at checkout, not live references.
//
// The monetary invariant is TotalAmount == Subtotal - DiscountAmount +
// ShippingAmount + TaxAmount after every RecalculateTotals call. Discount,
// shipping and tax are operator/promotion inputs and are never derived here.
type Order struct {
	shared.StoreAggregateRoot
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	BillingAddress  valueobject.Address
	ShippingAddress valueobject.Address
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	TrackingNumber  *string
	Items           []Item
	CancelledAt     *time.Time
	DeliveredAt     *time.Time
}

// NewOrder creates a new order in pending status
func NewOrder(storeID uuid.UUID, orderNumber, customerName, customerEmail, customerPhone string, shipping, billing valueobject.Address) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if shipping.IsZero() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}
	if billing.IsZero() {
		billing = shipping
	}

	order := &Order{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		OrderNumber:        orderNumber,
		CustomerName:       customerName,
		CustomerEmail:      customerEmail,
		CustomerPhone:      customerPhone,
		BillingAddress:     billing,
		ShippingAddress:    shipping,
		Subtotal:           decimal.Zero,
		DiscountAmount:     decimal.Zero,
		ShippingAmount:     decimal.Zero,
		TaxAmount:          decimal.Zero,
		TotalAmount:        decimal.Zero,
		Status:             StatusPending,
		PaymentStatus:      PaymentPending,
		Items:              make([]Item, 0),
	}

	order.AddDomainEvent(NewCreatedEvent(order))

	return order, nil
}

// AddItem adds a new line item. The same product may not appear twice;
// callers update the existing line instead.
func (o *Order) AddItem(productID uuid.UUID, name, sku string, quantity int64, unitPrice, gstPercent decimal.Decimal, sellerState string) (*Item, error) {
	if o.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a completed or cancelled order")
	}

	for _, item := range o.Items {
		if item.ProductID == productID && productID != uuid.Nil {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order, update quantity instead")
		}
	}

	item, err := NewItem(o.ID, productID, name, sku, quantity, unitPrice, gstPercent, sellerState, o.ShippingAddress.State())
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.RecalculateTotals()
	o.UpdatedAt = time.Now()

	return item, nil
}

// ItemUpdate carries the mutable fields of a line item. Nil fields are
// left untouched.
type ItemUpdate struct {
	Name      *string
	Quantity  *int64
	UnitPrice *decimal.Decimal
}

// UpdateItem applies an update to a line item and recomputes its tax split
// and the order totals. Returns false when the update changes nothing, so
// callers can skip the write entirely.
func (o *Order) UpdateItem(itemID uuid.UUID, update ItemUpdate, sellerState string) (bool, error) {
	if o.IsTerminal() {
		return false, shared.NewDomainError("INVALID_STATE", "Cannot update items on a completed or cancelled order")
	}

	for idx := range o.Items {
		item := &o.Items[idx]
		if item.ID != itemID {
			continue
		}

		changed := false
		if update.Name != nil && *update.Name != item.Name {
			if *update.Name == "" {
				return false, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
			}
			item.Name = *update.Name
			changed = true
		}
		if update.Quantity != nil && *update.Quantity != item.Quantity {
			if *update.Quantity <= 0 {
				return false, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
			}
			item.Quantity = *update.Quantity
			changed = true
		}
		if update.UnitPrice != nil && !update.UnitPrice.Equal(item.UnitPrice) {
			if update.UnitPrice.IsNegative() {
				return false, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
			}
			item.UnitPrice = *update.UnitPrice
			changed = true
		}

		if !changed {
			return false, nil
		}

		item.applyTax(item.GSTPercent, sellerState, o.ShippingAddress.State())
		item.UpdatedAt = time.Now()
		o.RecalculateTotals()
		o.UpdatedAt = time.Now()
		return true, nil
	}

	return false, shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// RemoveItem removes a line item and recomputes totals
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a completed or cancelled order")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.RecalculateTotals()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// GetItem returns an item by its ID
func (o *Order) GetItem(itemID uuid.UUID) *Item {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// SetDiscount sets the order-level discount. Operator input; never derived.
func (o *Order) SetDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	o.DiscountAmount = amount
	o.RecalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// SetShipping sets the shipping charge. Operator input; never derived.
func (o *Order) SetShipping(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING", "Shipping amount cannot be negative")
	}
	o.ShippingAmount = amount
	o.RecalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// SetTax sets the order-level tax amount. Operator input; never derived.
func (o *Order) SetTax(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_TAX", "Tax amount cannot be negative")
	}
	o.TaxAmount = amount
	o.RecalculateTotals()
	o.UpdatedAt = time.Now()
	return nil
}

// RecalculateTotals derives Subtotal from the current line items and
// TotalAmount from the invariant. Discount, shipping and tax are read as-is.
func (o *Order) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Subtotal)
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Sub(o.DiscountAmount).Add(o.ShippingAmount).Add(o.TaxAmount)
}

// IsCOD reports whether the order is cash-on-delivery, inferred from a
// case-insensitive substring match on the free-text payment method.
func (o *Order) IsCOD() bool {
	method := strings.ToLower(o.PaymentMethod)
	return strings.Contains(method, "cod") || strings.Contains(method, "cash")
}

// HasShipment reports whether a shipment has already been provisioned
func (o *Order) HasShipment() bool {
	return o.TrackingNumber != nil && *o.TrackingNumber != ""
}

// AssignTracking records the carrier waybill and advances the order to
// processing. Refuses to overwrite an existing waybill: one order, one
// shipment.
func (o *Order) AssignTracking(waybill string) error {
	if waybill == "" {
		return shared.NewDomainError("INVALID_WAYBILL", "Tracking number cannot be empty")
	}
	if o.HasShipment() {
		return shared.NewDomainError("SHIPMENT_EXISTS",
			fmt.Sprintf("Order already has a shipment with tracking number %s", *o.TrackingNumber))
	}
	if !o.Status.CanTransitionTo(StatusProcessing) && o.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot provision shipment for order in %s status", o.Status))
	}

	o.TrackingNumber = &waybill
	if o.Status == StatusPending {
		o.Status = StatusProcessing
	}
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewShipmentProvisionedEvent(o, waybill))

	return nil
}

// MarkShipped advances a processing order to shipped
func (o *Order) MarkShipped() error {
	if !o.Status.CanTransitionTo(StatusShipped) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}
	o.Status = StatusShipped
	o.UpdatedAt = time.Now()
	return nil
}

// MarkDelivered advances a shipped order to delivered
func (o *Order) MarkDelivered() error {
	if !o.Status.CanTransitionTo(StatusDelivered) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot deliver order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = StatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel cancels the order. Shipped and delivered orders cannot be cancelled.
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewCancelledEvent(o))

	return nil
}

// IsTerminal returns true for delivered and cancelled orders
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}
