package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// settingsCacheKey generates the cache key for a store-scoped setting
func settingsCacheKey(storeID uuid.UUID, key string) string {
	return fmt.Sprintf("settings:%s:%s", storeID.String(), key)
}
