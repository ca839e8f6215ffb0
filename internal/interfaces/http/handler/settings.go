package handler

import (
	"github.com/gin-gonic/gin"

	settingsapp "github.com/storefront/backend/internal/application/settings"
)

// SettingsHandler handles store settings API endpoints
type SettingsHandler struct {
	BaseHandler
	settingsService *settingsapp.Service
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *settingsapp.Service) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// RegisterRoutes registers settings routes
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	settings := rg.Group("/settings")
	{
		settings.GET("", h.GetAll)
		settings.GET("/:key", h.Get)
		settings.PUT("/:key", h.Set)
	}
}

// SetSettingRequest represents a request to set a setting value
type SetSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// SettingResponse represents a single setting in API responses
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetAll handles GET /settings
func (h *SettingsHandler) GetAll(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	values, err := h.settingsService.GetAll(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, values)
}

// Get handles GET /settings/:key
func (h *SettingsHandler) Get(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	key := c.Param("key")
	value, err := h.settingsService.Get(c.Request.Context(), storeID, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SettingResponse{Key: key, Value: value})
}

// Set handles PUT /settings/:key
func (h *SettingsHandler) Set(c *gin.Context) {
	storeID, err := getStoreID(c)
	if err != nil {
		h.Unauthorized(c, "Store identification required")
		return
	}

	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	key := c.Param("key")
	if err := h.settingsService.Set(c.Request.Context(), storeID, key, req.Value); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SettingResponse{Key: key, Value: req.Value})
}
