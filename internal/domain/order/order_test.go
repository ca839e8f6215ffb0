package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func testAddress(t *testing.T, state string) valueobject.Address {
	t.Helper()
	addr, err := valueobject.NewAddress("12 MG Road", "", "Ahmedabad", state, "380001", "India")
	require.NoError(t, err)
	return addr
}

func testOrder(t *testing.T) *Order {
	t.Helper()
	addr := testAddress(t, "Gujarat")
	o, err := NewOrder(uuid.New(), "ORD-2026-00001", "Asha Patel", "asha@example.com", "9876543210", addr, addr)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		o := testOrder(t)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PaymentPending, o.PaymentStatus)
		assert.True(t, o.TotalAmount.IsZero())
		assert.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, EventOrderCreated, o.GetDomainEvents()[0].EventType())
	})

	t.Run("requires order number", func(t *testing.T) {
		addr := testAddress(t, "Gujarat")
		_, err := NewOrder(uuid.New(), "", "Asha Patel", "", "", addr, addr)
		assert.Error(t, err)
	})

	t.Run("requires shipping address", func(t *testing.T) {
		_, err := NewOrder(uuid.New(), "ORD-1", "Asha Patel", "", "", valueobject.Address{}, valueobject.Address{})
		assert.Error(t, err)
	})

	t.Run("billing defaults to shipping", func(t *testing.T) {
		addr := testAddress(t, "Gujarat")
		o, err := NewOrder(uuid.New(), "ORD-1", "Asha Patel", "", "", addr, valueobject.Address{})
		require.NoError(t, err)
		assert.Equal(t, addr, o.BillingAddress)
	})
}

func TestOrderTotalsInvariant(t *testing.T) {
	o := testOrder(t)

	_, err := o.AddItem(uuid.New(), "Widget", "W-1", 3, dec("100.00"), dec("18"), "Gujarat")
	require.NoError(t, err)
	item2, err := o.AddItem(uuid.New(), "Gadget", "G-1", 2, dec("50.00"), decimal.Zero, "Gujarat")
	require.NoError(t, err)

	require.NoError(t, o.SetDiscount(dec("50")))
	require.NoError(t, o.SetShipping(dec("40")))
	require.NoError(t, o.SetTax(dec("81")))

	// invariant: total == subtotal - discount + shipping + tax
	want := o.Subtotal.Sub(o.DiscountAmount).Add(o.ShippingAmount).Add(o.TaxAmount)
	assert.True(t, o.TotalAmount.Equal(want))
	assert.True(t, o.Subtotal.Equal(dec("400.00")), "subtotal = %s", o.Subtotal)
	assert.True(t, o.TotalAmount.Equal(dec("471.00")), "total = %s", o.TotalAmount)

	// item removal keeps the invariant
	require.NoError(t, o.RemoveItem(item2.ID))
	want = o.Subtotal.Sub(o.DiscountAmount).Add(o.ShippingAmount).Add(o.TaxAmount)
	assert.True(t, o.TotalAmount.Equal(want))
	assert.True(t, o.Subtotal.Equal(dec("300.00")))
}

func TestRecalculateTotalsPreservesOperatorInputs(t *testing.T) {
	o := testOrder(t)
	_, err := o.AddItem(uuid.New(), "Widget", "W-1", 5, dec("100"), decimal.Zero, "Gujarat")
	require.NoError(t, err)
	require.NoError(t, o.SetDiscount(dec("50")))
	require.NoError(t, o.SetShipping(dec("40")))
	require.NoError(t, o.SetTax(dec("81")))

	o.RecalculateTotals()
	o.RecalculateTotals() // idempotent

	assert.True(t, o.DiscountAmount.Equal(dec("50")))
	assert.True(t, o.ShippingAmount.Equal(dec("40")))
	assert.True(t, o.TaxAmount.Equal(dec("81")))
	assert.True(t, o.TotalAmount.Equal(dec("571")), "total = %s", o.TotalAmount)
}

func TestOrderAddItem(t *testing.T) {
	t.Run("computes tax split from shipping state", func(t *testing.T) {
		o := testOrder(t) // ships to Gujarat
		item, err := o.AddItem(uuid.New(), "Widget", "W-1", 3, dec("100.00"), dec("18"), "Gujarat")
		require.NoError(t, err)
		assert.True(t, item.CGSTAmount.Equal(dec("27.00")))
		assert.True(t, item.SGSTAmount.Equal(dec("27.00")))
		assert.True(t, item.IGSTAmount.IsZero())
	})

	t.Run("interstate seller gets IGST", func(t *testing.T) {
		o := testOrder(t)
		item, err := o.AddItem(uuid.New(), "Widget", "W-1", 3, dec("100.00"), dec("18"), "Maharashtra")
		require.NoError(t, err)
		assert.True(t, item.IGSTAmount.Equal(dec("54.00")))
		assert.True(t, item.CGSTAmount.IsZero())
	})

	t.Run("rejects duplicate product", func(t *testing.T) {
		o := testOrder(t)
		productID := uuid.New()
		_, err := o.AddItem(productID, "Widget", "W-1", 1, dec("10"), decimal.Zero, "Gujarat")
		require.NoError(t, err)
		_, err = o.AddItem(productID, "Widget", "W-1", 1, dec("10"), decimal.Zero, "Gujarat")
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		o := testOrder(t)
		_, err := o.AddItem(uuid.New(), "Widget", "W-1", 0, dec("10"), decimal.Zero, "Gujarat")
		assert.Error(t, err)
	})
}

func TestOrderUpdateItemChangeDetection(t *testing.T) {
	o := testOrder(t)
	item, err := o.AddItem(uuid.New(), "Widget", "W-1", 3, dec("100.00"), dec("18"), "Gujarat")
	require.NoError(t, err)

	t.Run("no-op update reports unchanged", func(t *testing.T) {
		qty := int64(3)
		price := dec("100.00")
		name := "Widget"
		changed, err := o.UpdateItem(item.ID, ItemUpdate{Name: &name, Quantity: &qty, UnitPrice: &price}, "Gujarat")
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("quantity change recomputes line and totals", func(t *testing.T) {
		qty := int64(4)
		changed, err := o.UpdateItem(item.ID, ItemUpdate{Quantity: &qty}, "Gujarat")
		require.NoError(t, err)
		assert.True(t, changed)

		updated := o.GetItem(item.ID)
		assert.True(t, updated.Subtotal.Equal(dec("400.00")))
		assert.True(t, updated.CGSTAmount.Equal(dec("36.00")))
		assert.True(t, o.Subtotal.Equal(dec("400.00")))
	})

	t.Run("unknown item", func(t *testing.T) {
		qty := int64(1)
		_, err := o.UpdateItem(uuid.New(), ItemUpdate{Quantity: &qty}, "Gujarat")
		assert.Error(t, err)
	})
}

func TestOrderIsCOD(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"COD", true},
		{"cod", true},
		{"Cash on Delivery", true},
		{"cash", true},
		{"Prepaid", false},
		{"Razorpay", false},
		{"", false},
	}
	for _, tt := range tests {
		o := testOrder(t)
		o.PaymentMethod = tt.method
		assert.Equal(t, tt.want, o.IsCOD(), "method %q", tt.method)
	}
}

func TestOrderAssignTracking(t *testing.T) {
	t.Run("assigns waybill and advances to processing", func(t *testing.T) {
		o := testOrder(t)
		require.NoError(t, o.AssignTracking("WB123"))
		require.NotNil(t, o.TrackingNumber)
		assert.Equal(t, "WB123", *o.TrackingNumber)
		assert.Equal(t, StatusProcessing, o.Status)
	})

	t.Run("refuses to overwrite existing waybill", func(t *testing.T) {
		o := testOrder(t)
		require.NoError(t, o.AssignTracking("WB123"))
		err := o.AssignTracking("WB456")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WB123")
		assert.Equal(t, "WB123", *o.TrackingNumber)
	})

	t.Run("rejects empty waybill", func(t *testing.T) {
		o := testOrder(t)
		assert.Error(t, o.AssignTracking(""))
	})

	t.Run("rejects cancelled order", func(t *testing.T) {
		o := testOrder(t)
		require.NoError(t, o.Cancel())
		assert.Error(t, o.AssignTracking("WB123"))
	})
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusShipped))
	assert.True(t, StatusShipped.CanTransitionTo(StatusDelivered))
	assert.False(t, StatusShipped.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusProcessing))
}

func TestOrderLifecycle(t *testing.T) {
	o := testOrder(t)
	require.NoError(t, o.AssignTracking("WB1"))
	require.NoError(t, o.MarkShipped())
	require.NoError(t, o.MarkDelivered())
	assert.True(t, o.IsTerminal())
	assert.NotNil(t, o.DeliveredAt)
	assert.Error(t, o.Cancel())
}
