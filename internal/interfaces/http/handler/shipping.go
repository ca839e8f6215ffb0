package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shippingapp "github.com/storefront/backend/internal/application/shipping"
)

// ShippingHandler handles shipment-related API endpoints
type ShippingHandler struct {
	BaseHandler
	provisioning *shippingapp.ProvisioningService
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(provisioning *shippingapp.ProvisioningService) *ShippingHandler {
	return &ShippingHandler{provisioning: provisioning}
}

// RegisterRoutes registers shipping routes
func (h *ShippingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/shipping/serviceability/:pincode", h.CheckPincode)

	orders := rg.Group("/orders/:id/shipment")
	{
		orders.POST("", h.Provision)
		orders.GET("/tracking", h.Track)
		orders.POST("/cancel", h.Cancel)
	}
}

// Provision handles POST /orders/:id/shipment
func (h *ShippingHandler) Provision(c *gin.Context) {
	storeID, orderID, ok := h.ids(c)
	if !ok {
		return
	}

	result, err := h.provisioning.AutoCreateShipment(c.Request.Context(), storeID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Track handles GET /orders/:id/shipment/tracking
func (h *ShippingHandler) Track(c *gin.Context) {
	storeID, orderID, ok := h.ids(c)
	if !ok {
		return
	}

	result, err := h.provisioning.Track(c.Request.Context(), storeID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel handles POST /orders/:id/shipment/cancel
func (h *ShippingHandler) Cancel(c *gin.Context) {
	storeID, orderID, ok := h.ids(c)
	if !ok {
		return
	}

	result, err := h.provisioning.CancelShipment(c.Request.Context(), storeID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CheckPincode handles GET /shipping/serviceability/:pincode
func (h *ShippingHandler) CheckPincode(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	result, err := h.provisioning.CheckPincode(c.Request.Context(), storeID, c.Param("pincode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ids extracts the store and order IDs, responding on failure
func (h *ShippingHandler) ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return uuid.Nil, uuid.Nil, false
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return uuid.Nil, uuid.Nil, false
	}

	return storeID, orderID, true
}
