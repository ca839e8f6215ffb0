package settings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/domain/shared"
)

// Service handles store-scoped configuration with write-through caching.
// Reads try the cache first; writes go to the store and then the cache so
// the cache never serves a stale credential.
type Service struct {
	repo   settings.Repository
	cache  settings.Cache
	logger *zap.Logger
}

// NewService creates a new settings Service
func NewService(repo settings.Repository, cache settings.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Get returns the value for a store-scoped key, consulting the cache first
func (s *Service) Get(ctx context.Context, storeID uuid.UUID, key string) (string, error) {
	if s.cache != nil {
		value, ok, err := s.cache.Get(ctx, storeID, key)
		if err != nil {
			// Cache trouble degrades to a store read
			s.logger.Warn("Settings cache read failed, falling back to store",
				zap.String("store_id", storeID.String()),
				zap.String("key", key),
				zap.Error(err))
		} else if ok {
			return value, nil
		}
	}

	value, err := s.repo.Get(ctx, storeID, key)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, storeID, key, value); err != nil {
			s.logger.Warn("Settings cache backfill failed",
				zap.String("store_id", storeID.String()),
				zap.String("key", key),
				zap.Error(err))
		}
	}

	return value, nil
}

// Set upserts a store-scoped key and writes through to the cache
func (s *Service) Set(ctx context.Context, storeID uuid.UUID, key, value string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_SETTING_KEY", "Setting key cannot be empty")
	}

	if err := s.repo.Set(ctx, storeID, key, value); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, storeID, key, value); err != nil {
			s.logger.Warn("Settings cache write-through failed",
				zap.String("store_id", storeID.String()),
				zap.String("key", key),
				zap.Error(err))
		}
	}

	return nil
}

// GetAll returns every setting for a store
func (s *Service) GetAll(ctx context.Context, storeID uuid.UUID) (map[string]string, error) {
	return s.repo.GetAll(ctx, storeID)
}

// SellerState returns the store's registered tax state, empty when unset
func (s *Service) SellerState(ctx context.Context, storeID uuid.UUID) string {
	state, err := s.Get(ctx, storeID, settings.KeySellerState)
	if err != nil {
		return ""
	}
	return state
}

// CredentialSource resolves carrier credentials for a store. A source
// returns (nil, nil) when it has nothing for the store, letting the
// resolver fall through to the next source.
type CredentialSource interface {
	Name() string
	Resolve(ctx context.Context, storeID uuid.UUID) (*settings.Credentials, error)
}

// StaticSource serves fixed credentials handed to the constructor. Used for
// single-tenant deployments and tests where settings never vary by store.
type StaticSource struct {
	creds settings.Credentials
}

// NewStaticSource creates a source that always returns the given credentials
func NewStaticSource(creds settings.Credentials) *StaticSource {
	return &StaticSource{creds: creds}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Resolve(_ context.Context, _ uuid.UUID) (*settings.Credentials, error) {
	if !s.creds.IsComplete() {
		return nil, nil
	}
	creds := s.creds
	return &creds, nil
}

// CacheSource reads credentials straight from the settings cache without
// touching the store.
type CacheSource struct {
	cache settings.Cache
}

// NewCacheSource creates a source backed by the settings cache
func NewCacheSource(cache settings.Cache) *CacheSource {
	return &CacheSource{cache: cache}
}

func (s *CacheSource) Name() string { return "cache" }

func (s *CacheSource) Resolve(ctx context.Context, storeID uuid.UUID) (*settings.Credentials, error) {
	token, ok, err := s.cache.Get(ctx, storeID, settings.KeyCarrierToken)
	if err != nil || !ok || token == "" {
		return nil, err
	}

	mode, _, err := s.cache.Get(ctx, storeID, settings.KeyCarrierMode)
	if err != nil {
		return nil, err
	}
	pickup, _, err := s.cache.Get(ctx, storeID, settings.KeyPickupLocation)
	if err != nil {
		return nil, err
	}

	creds := settings.Credentials{APIToken: token, Mode: mode, PickupLocation: pickup}
	if !creds.IsComplete() {
		return nil, nil
	}
	return &creds, nil
}

// StoreSource reads credentials from the settings store and backfills the
// cache on a hit.
type StoreSource struct {
	repo  settings.Repository
	cache settings.Cache
}

// NewStoreSource creates a source backed by the settings store
func NewStoreSource(repo settings.Repository, cache settings.Cache) *StoreSource {
	return &StoreSource{repo: repo, cache: cache}
}

func (s *StoreSource) Name() string { return "store" }

func (s *StoreSource) Resolve(ctx context.Context, storeID uuid.UUID) (*settings.Credentials, error) {
	all, err := s.repo.GetAll(ctx, storeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	creds := settings.Credentials{
		APIToken:       all[settings.KeyCarrierToken],
		Mode:           all[settings.KeyCarrierMode],
		PickupLocation: all[settings.KeyPickupLocation],
	}
	if !creds.IsComplete() {
		return nil, nil
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, storeID, settings.KeyCarrierToken, creds.APIToken)
		_ = s.cache.Set(ctx, storeID, settings.KeyCarrierMode, creds.Mode)
		_ = s.cache.Set(ctx, storeID, settings.KeyPickupLocation, creds.PickupLocation)
	}

	return &creds, nil
}

// TestDefaultSource serves placeholder staging credentials so development
// environments work without per-store setup. Never resolves in live mode.
type TestDefaultSource struct {
	creds settings.Credentials
}

// NewTestDefaultSource creates a source with test-mode fallback credentials
func NewTestDefaultSource(apiToken, pickupLocation string) *TestDefaultSource {
	return &TestDefaultSource{
		creds: settings.Credentials{
			APIToken:       apiToken,
			Mode:           "test",
			PickupLocation: pickupLocation,
		},
	}
}

func (s *TestDefaultSource) Name() string { return "test-default" }

func (s *TestDefaultSource) Resolve(_ context.Context, _ uuid.UUID) (*settings.Credentials, error) {
	if !s.creds.IsComplete() {
		return nil, nil
	}
	creds := s.creds
	return &creds, nil
}

// CredentialResolver walks an ordered list of sources and returns the first
// complete set of credentials.
type CredentialResolver struct {
	sources []CredentialSource
	logger  *zap.Logger
}

// NewCredentialResolver creates a resolver over the given sources, consulted
// in order.
func NewCredentialResolver(logger *zap.Logger, sources ...CredentialSource) *CredentialResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialResolver{sources: sources, logger: logger}
}

// Resolve returns the first credentials any source produces
func (r *CredentialResolver) Resolve(ctx context.Context, storeID uuid.UUID) (*settings.Credentials, error) {
	for _, source := range r.sources {
		creds, err := source.Resolve(ctx, storeID)
		if err != nil {
			r.logger.Warn("Credential source failed",
				zap.String("source", source.Name()),
				zap.String("store_id", storeID.String()),
				zap.Error(err))
			continue
		}
		if creds != nil {
			r.logger.Debug("Resolved carrier credentials",
				zap.String("source", source.Name()),
				zap.String("store_id", storeID.String()),
				zap.String("mode", creds.Mode))
			return creds, nil
		}
	}

	return nil, shared.NewDomainError("CREDENTIALS_NOT_CONFIGURED",
		"No carrier credentials configured for this store")
}
