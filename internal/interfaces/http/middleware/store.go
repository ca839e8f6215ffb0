package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Keys used to carry store identity through gin.Context
const (
	StoreIDKey     = "store_id"
	StoreHeaderKey = "X-Store-ID"
)

// StoreMiddlewareConfig holds configuration for store middleware
type StoreMiddlewareConfig struct {
	// SkipPaths are paths that don't require a store context
	SkipPaths []string
	// Required determines whether requests without a store are rejected
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultStoreConfig returns default store middleware configuration
func DefaultStoreConfig() StoreMiddlewareConfig {
	return StoreMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
		Required:  true,
	}
}

// StoreMiddleware extracts the store identity from the X-Store-ID header.
// Every storefront route is store-scoped; requests without a valid store
// UUID never reach a handler.
func StoreMiddleware() gin.HandlerFunc {
	return StoreMiddlewareWithConfig(DefaultStoreConfig())
}

// StoreMiddlewareWithConfig returns store middleware with custom configuration
func StoreMiddlewareWithConfig(cfg StoreMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		storeID := c.GetHeader(StoreHeaderKey)
		if storeID == "" {
			if cfg.Required {
				respondStoreError(c, "Store identification required")
				return
			}
			c.Next()
			return
		}

		if _, err := uuid.Parse(storeID); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rejected request with malformed store ID",
					zap.String("store_id", storeID),
					zap.String("path", path))
			}
			respondStoreError(c, "Invalid store ID format")
			return
		}

		c.Set(StoreIDKey, storeID)
		c.Next()
	}
}

// respondStoreError sends an unauthorized response
func respondStoreError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetStoreID retrieves the store ID from gin.Context
func GetStoreID(c *gin.Context) string {
	if storeID, exists := c.Get(StoreIDKey); exists {
		if sid, ok := storeID.(string); ok {
			return sid
		}
	}
	return ""
}

// GetStoreUUID retrieves the store ID as UUID from gin.Context
func GetStoreUUID(c *gin.Context) (uuid.UUID, error) {
	storeID := GetStoreID(c)
	if storeID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(storeID)
}

// MustGetStoreUUID retrieves the store ID as UUID or panics. Use only behind
// StoreMiddleware with Required set.
func MustGetStoreUUID(c *gin.Context) uuid.UUID {
	storeUUID, err := GetStoreUUID(c)
	if err != nil || storeUUID == uuid.Nil {
		panic("valid store_id not found in context")
	}
	return storeUUID
}
