package order

import (
	"github.com/storefront/backend/internal/domain/shared"
)

// Event types for the order aggregate
const (
	EventOrderCreated             = "order.created"
	EventOrderShipmentProvisioned = "order.shipment_provisioned"
	EventOrderCancelled           = "order.cancelled"
)

// CreatedEvent is raised when a new order is placed
type CreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
}

// NewCreatedEvent creates a new CreatedEvent
func NewCreatedEvent(o *Order) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, "Order", o.ID, o.StoreID),
		OrderNumber:     o.OrderNumber,
	}
}

// ShipmentProvisionedEvent is raised when a carrier waybill is assigned
type ShipmentProvisionedEvent struct {
	shared.BaseDomainEvent
	OrderNumber    string `json:"order_number"`
	TrackingNumber string `json:"tracking_number"`
}

// NewShipmentProvisionedEvent creates a new ShipmentProvisionedEvent
func NewShipmentProvisionedEvent(o *Order, waybill string) *ShipmentProvisionedEvent {
	return &ShipmentProvisionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderShipmentProvisioned, "Order", o.ID, o.StoreID),
		OrderNumber:     o.OrderNumber,
		TrackingNumber:  waybill,
	}
}

// CancelledEvent is raised when an order is cancelled
type CancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	HadShipment bool   `json:"had_shipment"`
}

// NewCancelledEvent creates a new CancelledEvent
func NewCancelledEvent(o *Order) *CancelledEvent {
	return &CancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCancelled, "Order", o.ID, o.StoreID),
		OrderNumber:     o.OrderNumber,
		HadShipment:     o.HasShipment(),
	}
}
