package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// AddressInput represents an address in API requests
type AddressInput struct {
	Line1   string `json:"address_line1" binding:"required,min=1,max=200"`
	Line2   string `json:"address_line2" binding:"max=200"`
	City    string `json:"city" binding:"required,min=1,max=100"`
	State   string `json:"state" binding:"max=100"`
	Zip     string `json:"zip" binding:"required,min=1,max=20"`
	Country string `json:"country" binding:"max=100"`
}

// ToAddress converts the input into the address value object
func (a AddressInput) ToAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(a.Line1, a.Line2, a.City, a.State, a.Zip, a.Country)
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name" binding:"required,min=1,max=200"`
	SKU        string          `json:"sku" binding:"max=50"`
	Quantity   int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice  decimal.Decimal `json:"unit_price" binding:"required"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerName    string                 `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerEmail   string                 `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string                 `json:"customer_phone" binding:"max=20"`
	PaymentMethod   string                 `json:"payment_method" binding:"max=50"`
	ShippingAddress AddressInput           `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressInput          `json:"billing_address"`
	Items           []CreateOrderItemInput `json:"items"`
	DiscountAmount  *decimal.Decimal       `json:"discount_amount"`
	ShippingAmount  *decimal.Decimal       `json:"shipping_amount"`
	TaxAmount       *decimal.Decimal       `json:"tax_amount"`
}

// AddItemRequest represents a request to add an item to an order
type AddItemRequest struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name" binding:"required,min=1,max=200"`
	SKU        string          `json:"sku" binding:"max=50"`
	Quantity   int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice  decimal.Decimal `json:"unit_price" binding:"required"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
}

// UpdateItemRequest represents a request to update an order item. Nil fields
// are left untouched.
type UpdateItemRequest struct {
	Name      *string          `json:"name"`
	Quantity  *int64           `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// SetChargesRequest represents a request to set order-level charges. All
// three are operator inputs; nil fields are left untouched.
type SetChargesRequest struct {
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	ShippingAmount *decimal.Decimal `json:"shipping_amount"`
	TaxAmount      *decimal.Decimal `json:"tax_amount"`
}

// UpdateStatusRequest represents a request to change the order status
type UpdateStatusRequest struct {
	Status order.Status `json:"status" binding:"required"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search        string           `form:"search"`
	Status        *order.Status    `form:"status"`
	Statuses      []string         `form:"statuses"`
	PaymentStatus *string          `form:"payment_status"`
	HasShipment   *bool            `form:"has_shipment"`
	StartDate     *time.Time       `form:"start_date"`
	EndDate       *time.Time       `form:"end_date"`
	MinAmount     *decimal.Decimal `form:"min_amount"`
	MaxAmount     *decimal.Decimal `form:"max_amount"`
	Page          int              `form:"page" binding:"min=0"`
	PageSize      int              `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string           `form:"order_by"`
	OrderDir      string           `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line item in API responses
type OrderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
	CGSTAmount decimal.Decimal `json:"cgst_amount"`
	SGSTAmount decimal.Decimal `json:"sgst_amount"`
	IGSTAmount decimal.Decimal `json:"igst_amount"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	StoreID         uuid.UUID           `json:"store_id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	BillingAddress  valueobject.Address `json:"billing_address"`
	ShippingAddress valueobject.Address `json:"shipping_address"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	ShippingAmount  decimal.Decimal     `json:"shipping_amount"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	PaymentMethod   string              `json:"payment_method"`
	TrackingNumber  *string             `json:"tracking_number,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	ItemCount       int                 `json:"item_count"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderListItemResponse represents an order in list API responses
type OrderListItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	TrackingNumber *string         `json:"tracking_number,omitempty"`
	ItemCount      int             `json:"item_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToOrderItemResponse converts a domain item to a response DTO
func ToOrderItemResponse(item order.Item) OrderItemResponse {
	return OrderItemResponse{
		ID:         item.ID,
		ProductID:  item.ProductID,
		Name:       item.Name,
		SKU:        item.SKU,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		Subtotal:   item.Subtotal,
		GSTPercent: item.GSTPercent,
		CGSTAmount: item.CGSTAmount,
		SGSTAmount: item.SGSTAmount,
		IGSTAmount: item.IGSTAmount,
		TaxAmount:  item.TaxAmount(),
	}
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ToOrderItemResponse(item))
	}

	return OrderResponse{
		ID:              o.ID,
		StoreID:         o.StoreID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		BillingAddress:  o.BillingAddress,
		ShippingAddress: o.ShippingAddress,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		ShippingAmount:  o.ShippingAmount,
		TaxAmount:       o.TaxAmount,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status.String(),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		TrackingNumber:  o.TrackingNumber,
		Items:           items,
		ItemCount:       o.ItemCount(),
		CancelledAt:     o.CancelledAt,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderListItemResponses converts domain orders to list response DTOs
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, 0, len(orders))
	for idx := range orders {
		o := &orders[idx]
		responses = append(responses, OrderListItemResponse{
			ID:             o.ID,
			OrderNumber:    o.OrderNumber,
			CustomerName:   o.CustomerName,
			CustomerEmail:  o.CustomerEmail,
			TotalAmount:    o.TotalAmount,
			Status:         o.Status.String(),
			PaymentStatus:  string(o.PaymentStatus),
			TrackingNumber: o.TrackingNumber,
			ItemCount:      o.ItemCount(),
			CreatedAt:      o.CreatedAt,
		})
	}
	return responses
}
