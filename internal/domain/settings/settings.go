// Package settings models per-store configuration: carrier credentials,
// operating mode, pickup location and the store's registered tax state.
package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Well-known setting keys
const (
	KeyCarrierToken   = "carrier_api_token"
	KeyCarrierMode    = "carrier_mode"
	KeyPickupLocation = "carrier_pickup_location"
	KeySellerState    = "seller_state"
)

// Setting is one key/value configuration entry scoped to a store
type Setting struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_settings_store_key"`
	Key       string    `gorm:"size:100;not null;uniqueIndex:idx_settings_store_key"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSetting creates a new store-scoped setting
func NewSetting(storeID uuid.UUID, key, value string) *Setting {
	now := time.Now()
	return &Setting{
		ID:        uuid.New(),
		StoreID:   storeID,
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Repository defines persistence operations for settings
type Repository interface {
	// Get returns the value for a store-scoped key, or shared.ErrNotFound
	Get(ctx context.Context, storeID uuid.UUID, key string) (string, error)

	// Set upserts a store-scoped key
	Set(ctx context.Context, storeID uuid.UUID, key, value string) error

	// GetAll returns every setting for a store as a key/value map
	GetAll(ctx context.Context, storeID uuid.UUID) (map[string]string, error)
}

// Cache sits in front of the settings store. Writes go through the store
// first and then the cache, so entries carry no TTL.
type Cache interface {
	// Get returns the cached value and whether it was present
	Get(ctx context.Context, storeID uuid.UUID, key string) (string, bool, error)

	// Set stores a value for a store-scoped key
	Set(ctx context.Context, storeID uuid.UUID, key, value string) error

	// Delete removes a store-scoped key
	Delete(ctx context.Context, storeID uuid.UUID, key string) error
}

// Credentials is the carrier access configuration resolved for one store
type Credentials struct {
	APIToken       string
	Mode           string // test or live
	PickupLocation string
}

// IsComplete reports whether the credentials are usable for carrier calls
func (c Credentials) IsComplete() bool {
	return c.APIToken != "" && (c.Mode == "test" || c.Mode == "live")
}
