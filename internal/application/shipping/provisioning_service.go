package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/carrier"
	"github.com/storefront/backend/internal/infrastructure/retry"
)

// Carrier is the slice of the carrier client the provisioner needs
type Carrier interface {
	CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*carrier.CreateResult, error)
	Track(ctx context.Context, waybill, orderRef string) (*carrier.TrackResult, error)
	CheckPincode(ctx context.Context, pincode string) (*carrier.PincodeServiceability, error)
	Cancel(ctx context.Context, waybill string) (*carrier.CancelResult, error)
}

// CarrierFactory builds a carrier client scoped to one store
type CarrierFactory func(storeID uuid.UUID) (Carrier, error)

// CredentialResolver resolves carrier credentials for a store
type CredentialResolver interface {
	Resolve(ctx context.Context, storeID uuid.UUID) (*settings.Credentials, error)
}

// ProvisioningService creates carrier shipments for orders. Provisioning is
// idempotent per order: an order that already carries a waybill is never sent
// to the carrier again, and the database guard refuses to overwrite a waybill
// written by a concurrent attempt.
type ProvisioningService struct {
	orders   order.Repository
	resolver CredentialResolver
	carriers CarrierFactory
	executor *retry.Executor
	events   shared.EventPublisher
	logger   *zap.Logger
}

// ProvisioningOption is a functional option for the ProvisioningService
type ProvisioningOption func(*ProvisioningService)

// WithEventPublisher sets the sink notified when a waybill is assigned
func WithEventPublisher(pub shared.EventPublisher) ProvisioningOption {
	return func(s *ProvisioningService) {
		s.events = pub
	}
}

// NewProvisioningService creates a new ProvisioningService
func NewProvisioningService(orders order.Repository, resolver CredentialResolver, carriers CarrierFactory, executor *retry.Executor, logger *zap.Logger, opts ...ProvisioningOption) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProvisioningService{
		orders:   orders,
		resolver: resolver,
		carriers: carriers,
		executor: executor,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoCreateShipment provisions a carrier shipment for an order. Credentials
// are resolved first so a misconfigured store fails before any carrier
// traffic. Carrier-side rejections come back as a failed result, not an
// error; only missing orders and missing credentials are errors.
func (s *ProvisioningService) AutoCreateShipment(ctx context.Context, storeID, orderID uuid.UUID) (*ProvisionResult, error) {
	o, err := s.orders.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
	}

	if o.HasShipment() {
		result.AlreadyProvisioned = true
		result.Waybill = *o.TrackingNumber
		result.Message = fmt.Sprintf("Order already has a shipment with tracking number %s", *o.TrackingNumber)
		return result, nil
	}

	creds, err := s.resolver.Resolve(ctx, storeID)
	if err != nil {
		return nil, err
	}

	req, err := shipping.BuildShipmentRequest(o, creds.PickupLocation)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			result.Message = domainErr.Message
			return result, nil
		}
		return nil, err
	}

	client, err := s.carriers(storeID)
	if err != nil {
		return nil, err
	}

	// Create is a single attempt. The carrier may have registered the
	// shipment even when the response never arrived, so repeating the call
	// could raise a duplicate; the operator sees the diagnostic and decides.
	createResult, err := client.CreateShipment(ctx, req)
	if err != nil {
		s.logger.Warn("Carrier create failed",
			zap.String("store_id", storeID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		result.Message = err.Error()
		return result, nil
	}

	if !createResult.Success {
		result.Message = failureMessageWithPickup(createResult.Message, req.PickupLocation)
		s.logger.Warn("Carrier rejected shipment",
			zap.String("store_id", storeID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.String("reason", createResult.Message))
		return result, nil
	}

	if err := s.orders.UpdateTracking(ctx, storeID, orderID, createResult.Waybill, order.StatusProcessing); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "SHIPMENT_EXISTS" {
			// A concurrent attempt won the race; report its waybill instead
			// of the one we just created.
			result.AlreadyProvisioned = true
			result.Message = domainErr.Message
			if fresh, findErr := s.orders.FindByIDForStore(ctx, storeID, orderID); findErr == nil && fresh.HasShipment() {
				result.Waybill = *fresh.TrackingNumber
			}
			return result, nil
		}
		return nil, err
	}

	result.Success = true
	result.Waybill = createResult.Waybill

	if s.events != nil {
		if pubErr := s.events.Publish(ctx, order.NewShipmentProvisionedEvent(o, createResult.Waybill)); pubErr != nil {
			s.logger.Warn("Domain event delivery failed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(pubErr))
		}
	}

	s.logger.Info("Shipment provisioned",
		zap.String("store_id", storeID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("waybill", createResult.Waybill))

	return result, nil
}

// Track looks up the live carrier status for an order's shipment
func (s *ProvisioningService) Track(ctx context.Context, storeID, orderID uuid.UUID) (*TrackingResponse, error) {
	o, err := s.orders.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	if !o.HasShipment() {
		return nil, shared.NewDomainError("NO_SHIPMENT", "Order has no shipment to track")
	}

	client, err := s.carriers(storeID)
	if err != nil {
		return nil, err
	}

	response := &TrackingResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Waybill:     *o.TrackingNumber,
		CheckedAt:   time.Now(),
	}

	var trackResult *carrier.TrackResult
	trackOp := func(ctx context.Context) error {
		result, err := client.Track(ctx, *o.TrackingNumber, "")
		if err != nil {
			return backoffPermanent(err)
		}
		if !result.Success && result.HTTPCode == 0 {
			return errors.New(result.Message)
		}
		trackResult = result
		return nil
	}

	if s.executor != nil {
		err = s.executor.Execute(ctx, "carrier.track",
			map[string]string{"waybill": *o.TrackingNumber}, trackOp)
	} else {
		err = trackOp(ctx)
	}
	if err != nil {
		response.Message = err.Error()
		return response, nil
	}

	response.Success = trackResult.Success
	response.Message = trackResult.Message
	response.Events = toTrackingEvents(trackResult.Shipments)
	return response, nil
}

// CheckPincode answers delivery serviceability for a pincode
func (s *ProvisioningService) CheckPincode(ctx context.Context, storeID uuid.UUID, pincode string) (*ServiceabilityResponse, error) {
	if pincode == "" {
		return nil, shared.NewDomainError("INVALID_PINCODE", "Pincode cannot be empty")
	}

	client, err := s.carriers(storeID)
	if err != nil {
		return nil, err
	}

	var check *carrier.PincodeServiceability
	checkOp := func(ctx context.Context) error {
		result, err := client.CheckPincode(ctx, pincode)
		if err != nil {
			return backoffPermanent(err)
		}
		if !result.Success && result.HTTPCode == 0 {
			return errors.New(result.Message)
		}
		check = result
		return nil
	}

	if s.executor != nil {
		err = s.executor.Execute(ctx, "carrier.check_pincode",
			map[string]string{"pincode": pincode}, checkOp)
	} else {
		err = checkOp(ctx)
	}
	if err != nil {
		return &ServiceabilityResponse{Pincode: pincode, Message: err.Error()}, nil
	}

	return &ServiceabilityResponse{
		Pincode:        pincode,
		Serviceable:    check.Serviceable,
		CODAllowed:     check.CODAllowed,
		PrepaidAllowed: check.PrepaidAllowed,
		City:           check.City,
		State:          check.State,
		Embargo:        check.Embargo,
		Message:        check.Message,
	}, nil
}

// CancelShipment cancels the carrier shipment for an order. The order itself
// stays untouched; cancelling the order is a separate decision.
func (s *ProvisioningService) CancelShipment(ctx context.Context, storeID, orderID uuid.UUID) (*CancelResponse, error) {
	o, err := s.orders.FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	if !o.HasShipment() {
		return nil, shared.NewDomainError("NO_SHIPMENT", "Order has no shipment to cancel")
	}

	client, err := s.carriers(storeID)
	if err != nil {
		return nil, err
	}

	cancelResult, err := client.Cancel(ctx, *o.TrackingNumber)
	if err != nil {
		return nil, err
	}

	response := &CancelResponse{
		OrderID: o.ID,
		Waybill: *o.TrackingNumber,
		Success: cancelResult.Success,
		Message: cancelResult.Message,
	}

	if cancelResult.Success {
		s.logger.Info("Shipment cancelled",
			zap.String("store_id", storeID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.String("waybill", *o.TrackingNumber))
	}

	return response, nil
}

// backoffPermanent marks an error as non-retryable. Client errors mean
// credentials could not be resolved; another attempt cannot fix that.
func backoffPermanent(err error) error {
	return backoff.Permanent(err)
}

// failureMessageWithPickup appends the pickup location to a carrier
// rejection. Most create failures trace back to an unregistered warehouse
// name, so surfacing it saves the operator a settings round trip.
func failureMessageWithPickup(message, pickupLocation string) string {
	if pickupLocation == "" {
		return message
	}
	return fmt.Sprintf("%s (pickup location %q)", message, pickupLocation)
}
