package shipping

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/infrastructure/carrier"
)

// ProvisionResult is the outcome of a shipment provisioning attempt
type ProvisionResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Success     bool      `json:"success"`
	// AlreadyProvisioned is set when the order carried a waybill before this
	// attempt; the carrier was never called.
	AlreadyProvisioned bool   `json:"already_provisioned"`
	Waybill            string `json:"waybill,omitempty"`
	Message            string `json:"message,omitempty"`
}

// TrackingEvent is one status record in a tracking response
type TrackingEvent struct {
	Waybill              string `json:"waybill"`
	ReferenceNo          string `json:"reference_no"`
	Status               string `json:"status"`
	StatusDateTime       string `json:"status_date_time,omitempty"`
	StatusLocation       string `json:"status_location,omitempty"`
	Instructions         string `json:"instructions,omitempty"`
	PickUpDate           string `json:"pickup_date,omitempty"`
	PromisedDeliveryDate string `json:"promised_delivery_date,omitempty"`
}

// TrackingResponse is the tracking answer for one order
type TrackingResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Waybill     string          `json:"waybill"`
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	Events      []TrackingEvent `json:"events"`
	CheckedAt   time.Time       `json:"checked_at"`
}

// ServiceabilityResponse is the pincode serviceability answer
type ServiceabilityResponse struct {
	Pincode        string `json:"pincode"`
	Serviceable    bool   `json:"serviceable"`
	CODAllowed     bool   `json:"cod_allowed"`
	PrepaidAllowed bool   `json:"prepaid_allowed"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Embargo        bool   `json:"embargo"`
	Message        string `json:"message,omitempty"`
}

// CancelResponse is the outcome of a shipment cancellation
type CancelResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	Waybill string    `json:"waybill"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
}

func toTrackingEvents(shipments []carrier.TrackedShipment) []TrackingEvent {
	events := make([]TrackingEvent, 0, len(shipments))
	for _, s := range shipments {
		events = append(events, TrackingEvent{
			Waybill:              s.Waybill,
			ReferenceNo:          s.ReferenceNo,
			Status:               s.Status.Status,
			StatusDateTime:       s.Status.StatusDateTime,
			StatusLocation:       s.Status.StatusLocation,
			Instructions:         s.Status.Instructions,
			PickUpDate:           s.PickUpDate,
			PromisedDeliveryDate: s.PromisedDeliveryDate,
		})
	}
	return events
}
