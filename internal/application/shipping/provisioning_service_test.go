package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/carrier"
	"github.com/storefront/backend/internal/infrastructure/retry"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, storeID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAllForStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, storeID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) CountForStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, storeID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, storeID uuid.UUID, status order.Status) (int64, error) {
	args := m.Called(ctx, storeID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateTotals(ctx context.Context, storeID, orderID uuid.UUID, subtotal, total decimal.Decimal) error {
	args := m.Called(ctx, storeID, orderID, subtotal, total)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateTracking(ctx context.Context, storeID, orderID uuid.UUID, trackingNumber string, status order.Status) error {
	args := m.Called(ctx, storeID, orderID, trackingNumber, status)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteForStore(ctx context.Context, storeID, id uuid.UUID) error {
	args := m.Called(ctx, storeID, id)
	return args.Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context, storeID uuid.UUID) (string, error) {
	args := m.Called(ctx, storeID)
	return args.String(0), args.Error(1)
}

// MockCarrier is a mock implementation of Carrier
type MockCarrier struct {
	mock.Mock
}

func (m *MockCarrier) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*carrier.CreateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.CreateResult), args.Error(1)
}

func (m *MockCarrier) Track(ctx context.Context, waybill, orderRef string) (*carrier.TrackResult, error) {
	args := m.Called(ctx, waybill, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.TrackResult), args.Error(1)
}

func (m *MockCarrier) CheckPincode(ctx context.Context, pincode string) (*carrier.PincodeServiceability, error) {
	args := m.Called(ctx, pincode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.PincodeServiceability), args.Error(1)
}

func (m *MockCarrier) Cancel(ctx context.Context, waybill string) (*carrier.CancelResult, error) {
	args := m.Called(ctx, waybill)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.CancelResult), args.Error(1)
}

// stubResolver returns fixed credentials or an error
type stubResolver struct {
	creds *settings.Credentials
	err   error
}

func (r *stubResolver) Resolve(context.Context, uuid.UUID) (*settings.Credentials, error) {
	return r.creds, r.err
}

var testStoreID = uuid.New()

func valueAddress() (valueobject.Address, error) {
	return valueobject.NewAddress("12 MG Road", "", "Ahmedabad", "Gujarat", "380001", "India")
}

func carrierFactory(c Carrier) CarrierFactory {
	return func(uuid.UUID) (Carrier, error) {
		return c, nil
	}
}

func testResolver() *stubResolver {
	return &stubResolver{creds: &settings.Credentials{
		APIToken:       "tok",
		Mode:           "test",
		PickupLocation: "Main Warehouse",
	}}
}

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	addr, err := valueAddress()
	require.NoError(t, err)
	o, err := order.NewOrder(testStoreID, "ORD-2026-00042", "Asha Patel", "asha@example.com", "9876543210", addr, addr)
	require.NoError(t, err)
	o.PaymentMethod = "UPI"
	_, err = o.AddItem(uuid.New(), "Blue Kurta", "KUR-1", 2, decimal.NewFromInt(250), decimal.Zero, "Gujarat")
	require.NoError(t, err)
	return o
}


// capturingPublisher records published domain events
type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, e shared.DomainEvent) error {
	p.events = append(p.events, e)
	return nil
}

func TestProvisioningService_AutoCreateShipment(t *testing.T) {
	t.Run("provisions a shipment and persists the waybill", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)
		repo.On("UpdateTracking", mock.Anything, testStoreID, o.ID, "WB123456", order.StatusProcessing).Return(nil)

		client := new(MockCarrier)
		client.On("CreateShipment", mock.Anything, mock.MatchedBy(func(req *shipping.ShipmentRequest) bool {
			return req.OrderNumber == "ORD-2026-00042" && req.PickupLocation == "Main Warehouse"
		})).Return(&carrier.CreateResult{
			APIResult: carrier.APIResult{Success: true, HTTPCode: 200},
			Waybill:   "WB123456",
		}, nil)

		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil)

		result, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "WB123456", result.Waybill)
		assert.False(t, result.AlreadyProvisioned)
		repo.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("never calls the carrier for an order with a shipment", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.AssignTracking("WB-EXISTING"))

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		client := new(MockCarrier)

		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil)

		result, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.True(t, result.AlreadyProvisioned)
		assert.Equal(t, "WB-EXISTING", result.Waybill)
		client.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "UpdateTracking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails before carrier traffic when credentials are missing", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		client := new(MockCarrier)
		resolver := &stubResolver{err: shared.NewDomainError("CREDENTIALS_NOT_CONFIGURED", "No carrier credentials configured for this store")}

		service := NewProvisioningService(repo, resolver, carrierFactory(client), nil, nil)

		_, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CREDENTIALS_NOT_CONFIGURED", domainErr.Code)
		client.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
	})

	t.Run("carrier rejection surfaces the reason and pickup location", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		client := new(MockCarrier)
		client.On("CreateShipment", mock.Anything, mock.Anything).Return(&carrier.CreateResult{
			APIResult: carrier.APIResult{Success: false, HTTPCode: 200, Message: "ClientWarehouse matching query does not exist"},
		}, nil)

		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil)

		result, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "ClientWarehouse matching query does not exist")
		assert.Contains(t, result.Message, "Main Warehouse")
		repo.AssertNotCalled(t, "UpdateTracking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent provisioning loses to the database guard", func(t *testing.T) {
		o := newPendingOrder(t)

		winner := newPendingOrder(t)
		require.NoError(t, winner.AssignTracking("WB-WINNER"))

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil).Once()
		repo.On("UpdateTracking", mock.Anything, testStoreID, o.ID, "WB-LOSER", order.StatusProcessing).
			Return(shared.NewDomainError("SHIPMENT_EXISTS", "Order already has a shipment"))
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(winner, nil).Once()

		client := new(MockCarrier)
		client.On("CreateShipment", mock.Anything, mock.Anything).Return(&carrier.CreateResult{
			APIResult: carrier.APIResult{Success: true, HTTPCode: 200},
			Waybill:   "WB-LOSER",
		}, nil)

		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil)

		result, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.True(t, result.AlreadyProvisioned)
		assert.Equal(t, "WB-WINNER", result.Waybill)
	})

	t.Run("create is never retried on transport failure", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		// A timeout can follow a delivered request, so a second create
		// could duplicate the shipment at the carrier.
		client := new(MockCarrier)
		client.On("CreateShipment", mock.Anything, mock.Anything).
			Return(nil, errors.New("carrier unreachable: connection refused"))

		executor := retry.NewExecutor(3, time.Millisecond, nil)
		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), executor, nil)

		result, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "carrier unreachable")
		client.AssertNumberOfCalls(t, "CreateShipment", 1)
		repo.AssertNotCalled(t, "UpdateTracking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("order without a shipping pincode is a typed failure", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		client := new(MockCarrier)
		resolver := &stubResolver{creds: &settings.Credentials{APIToken: "tok", Mode: "test"}}

		service := NewProvisioningService(repo, resolver, carrierFactory(client), nil, nil)

		result, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "pickup location")
		client.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
	})

	t.Run("publishes the shipment provisioned event", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)
		repo.On("UpdateTracking", mock.Anything, testStoreID, o.ID, "WB123456", order.StatusProcessing).Return(nil)

		client := new(MockCarrier)
		client.On("CreateShipment", mock.Anything, mock.Anything).Return(&carrier.CreateResult{
			APIResult: carrier.APIResult{Success: true, HTTPCode: 200},
			Waybill:   "WB123456",
		}, nil)

		publisher := &capturingPublisher{}
		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil,
			WithEventPublisher(publisher))

		_, err := service.AutoCreateShipment(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, order.EventOrderShipmentProvisioned, publisher.events[0].EventType())
		assert.Equal(t, o.ID, publisher.events[0].AggregateID())
	})
}

func TestProvisioningService_Track(t *testing.T) {
	t.Run("maps carrier events", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.AssignTracking("WB123456"))

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		client := new(MockCarrier)
		trackResult := &carrier.TrackResult{APIResult: carrier.APIResult{Success: true, HTTPCode: 200}}
		trackResult.Shipments = []carrier.TrackedShipment{{Waybill: "WB123456", ReferenceNo: "ORD-2026-00042"}}
		trackResult.Shipments[0].Status.Status = "In Transit"
		client.On("Track", mock.Anything, "WB123456", "").Return(trackResult, nil)

		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil)

		response, err := service.Track(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.True(t, response.Success)
		require.Len(t, response.Events, 1)
		assert.Equal(t, "In Transit", response.Events[0].Status)
	})

	t.Run("retries transport failures", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.AssignTracking("WB123456"))

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		client := new(MockCarrier)
		client.On("Track", mock.Anything, "WB123456", "").Return(&carrier.TrackResult{
			APIResult: carrier.APIResult{Success: false, Message: "carrier unreachable: connection refused"},
		}, nil).Once()
		client.On("Track", mock.Anything, "WB123456", "").Return(&carrier.TrackResult{
			APIResult: carrier.APIResult{Success: true, HTTPCode: 200},
		}, nil).Once()

		executor := retry.NewExecutor(3, time.Millisecond, nil)
		service := NewProvisioningService(repo, testResolver(), carrierFactory(client), executor, nil)

		response, err := service.Track(context.Background(), testStoreID, o.ID)

		require.NoError(t, err)
		assert.True(t, response.Success)
		client.AssertNumberOfCalls(t, "Track", 2)
	})

	t.Run("order without a shipment cannot be tracked", func(t *testing.T) {
		o := newPendingOrder(t)

		repo := new(MockOrderRepository)
		repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

		service := NewProvisioningService(repo, testResolver(), carrierFactory(new(MockCarrier)), nil, nil)

		_, err := service.Track(context.Background(), testStoreID, o.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_SHIPMENT", domainErr.Code)
	})
}

func TestProvisioningService_CheckPincode(t *testing.T) {
	t.Run("maps serviceability", func(t *testing.T) {
		client := new(MockCarrier)
		client.On("CheckPincode", mock.Anything, "380001").Return(&carrier.PincodeServiceability{
			APIResult:      carrier.APIResult{Success: true, HTTPCode: 200},
			Pincode:        "380001",
			Serviceable:    true,
			CODAllowed:     true,
			PrepaidAllowed: true,
			City:           "Ahmedabad",
		}, nil)

		service := NewProvisioningService(new(MockOrderRepository), testResolver(), carrierFactory(client), nil, nil)

		response, err := service.CheckPincode(context.Background(), testStoreID, "380001")

		require.NoError(t, err)
		assert.True(t, response.Serviceable)
		assert.Equal(t, "Ahmedabad", response.City)
	})

	t.Run("rejects an empty pincode", func(t *testing.T) {
		service := NewProvisioningService(new(MockOrderRepository), testResolver(), carrierFactory(new(MockCarrier)), nil, nil)

		_, err := service.CheckPincode(context.Background(), testStoreID, "")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PINCODE", domainErr.Code)
	})
}

func TestProvisioningService_CancelShipment(t *testing.T) {
	o := newPendingOrder(t)
	require.NoError(t, o.AssignTracking("WB123456"))

	repo := new(MockOrderRepository)
	repo.On("FindByIDForStore", mock.Anything, testStoreID, o.ID).Return(o, nil)

	client := new(MockCarrier)
	client.On("Cancel", mock.Anything, "WB123456").Return(&carrier.CancelResult{
		APIResult: carrier.APIResult{Success: true, HTTPCode: 200, Message: "Shipment cancelled"},
	}, nil)

	service := NewProvisioningService(repo, testResolver(), carrierFactory(client), nil, nil)

	response, err := service.CancelShipment(context.Background(), testStoreID, o.ID)

	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, "WB123456", response.Waybill)
}
