// Package shipping holds the carrier-facing value objects derived from an
// order snapshot. A ShipmentRequest is rebuilt on every provisioning attempt
// and never persisted; only the resulting waybill lands back on the order.
package shipping

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// PaymentMode is the carrier-facing payment classification
type PaymentMode string

const (
	PaymentModeCOD     PaymentMode = "COD"
	PaymentModePrepaid PaymentMode = "Prepaid"
)

// Packaging defaults applied when an order carries no physical dimensions.
const (
	DefaultWeightKG = 0.5
	DefaultLengthCM = 10
	DefaultWidthCM  = 10

	// maxProductsDescLen caps the item summary sent to the carrier
	maxProductsDescLen = 50
)

// ShipmentRequest is the carrier-neutral shipment payload built from an
// order snapshot.
type ShipmentRequest struct {
	OrderNumber    string
	ConsigneeName  string
	AddressLine1   string
	AddressLine2   string
	City           string
	State          string
	Pincode        string
	Country        string
	Phone          string
	PaymentMode    PaymentMode
	CODAmount      decimal.Decimal
	DeclaredValue  decimal.Decimal
	WeightKG       decimal.Decimal
	LengthCM       int
	WidthCM        int
	ProductsDesc   string
	PickupLocation string
}

// InferPaymentMode classifies a free-text payment method. Anything
// mentioning "cod" or "cash" (case-insensitive) ships cash-on-delivery;
// everything else is treated as prepaid.
func InferPaymentMode(paymentMethod string) PaymentMode {
	method := strings.ToLower(paymentMethod)
	if strings.Contains(method, "cod") || strings.Contains(method, "cash") {
		return PaymentModeCOD
	}
	return PaymentModePrepaid
}

// BuildShipmentRequest derives the carrier payload from an order snapshot.
// pickupLocation is the store's registered warehouse name at the carrier.
func BuildShipmentRequest(o *order.Order, pickupLocation string) (*ShipmentRequest, error) {
	addr := o.ShippingAddress
	if addr.IsZero() {
		return nil, shared.NewDomainError("MISSING_ADDRESS", "Order has no shipping address")
	}
	if addr.Zip() == "" {
		return nil, shared.NewDomainError("MISSING_PINCODE", "Shipping address has no pincode")
	}
	if o.CustomerName == "" {
		return nil, shared.NewDomainError("MISSING_CONSIGNEE", "Order has no customer name")
	}
	if pickupLocation == "" {
		return nil, shared.NewDomainError("MISSING_PICKUP_LOCATION", "Store has no pickup location configured")
	}

	mode := InferPaymentMode(o.PaymentMethod)
	codAmount := decimal.Zero
	if mode == PaymentModeCOD {
		codAmount = o.TotalAmount
	}

	return &ShipmentRequest{
		OrderNumber:    o.OrderNumber,
		ConsigneeName:  o.CustomerName,
		AddressLine1:   addr.Line1(),
		AddressLine2:   addr.Line2(),
		City:           addr.City(),
		State:          addr.State(),
		Pincode:        addr.Zip(),
		Country:        addr.Country(),
		Phone:          o.CustomerPhone,
		PaymentMode:    mode,
		CODAmount:      codAmount,
		DeclaredValue:  o.TotalAmount,
		WeightKG:       decimal.NewFromFloat(DefaultWeightKG),
		LengthCM:       DefaultLengthCM,
		WidthCM:        DefaultWidthCM,
		ProductsDesc:   summarizeItems(o.Items),
		PickupLocation: pickupLocation,
	}, nil
}

// summarizeItems joins item names into a short description for the carrier
// label, truncated to keep within the carrier's field limit.
func summarizeItems(items []order.Item) string {
	if len(items) == 0 {
		return "Merchandise"
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	desc := strings.Join(names, ", ")
	if len(desc) > maxProductsDescLen {
		desc = desc[:maxProductsDescLen]
	}
	return desc
}
