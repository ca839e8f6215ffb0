// Package carrier wraps the logistics provider's HTTP API for one store.
// Business failures from the provider are normalized into result values at
// this boundary; callers never see raw status fields or parse errors.
package carrier

import (
	"errors"

	"github.com/storefront/backend/internal/domain/settings"
)

// Mode selects which provider environment the client talks to
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

const (
	// ProductionBaseURL is the provider's live endpoint
	ProductionBaseURL = "https://track.delhivery.com"
	// StagingBaseURL is the provider's staging endpoint used in test mode
	StagingBaseURL = "https://staging-express.delhivery.com"
)

// Errors for carrier configuration
var (
	ErrConfigMissingToken = errors.New("carrier: API token is required")
	ErrConfigInvalidMode  = errors.New("carrier: mode must be test or live")
)

// Config holds carrier access configuration for one store
type Config struct {
	// APIToken is the provider-issued access token
	APIToken string
	// Mode selects staging (test) or production (live)
	Mode Mode
	// PickupLocation is the registered warehouse name at the provider
	PickupLocation string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// NewConfig creates a new carrier configuration with defaults
func NewConfig(apiToken string, mode Mode, pickupLocation string) *Config {
	if mode == "" {
		mode = ModeTest
	}
	return &Config{
		APIToken:       apiToken,
		Mode:           mode,
		PickupLocation: pickupLocation,
		TimeoutSeconds: 30,
	}
}

// ConfigFromCredentials builds a Config from resolved store credentials
func ConfigFromCredentials(creds settings.Credentials) *Config {
	return NewConfig(creds.APIToken, Mode(creds.Mode), creds.PickupLocation)
}

// Validate validates the carrier configuration
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return ErrConfigMissingToken
	}
	if c.Mode != ModeTest && c.Mode != ModeLive {
		return ErrConfigInvalidMode
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// BaseURL returns the provider endpoint for the configured mode. The
// selection is strictly mode-driven so test-mode shipments can never reach
// the live endpoint.
func (c *Config) BaseURL() string {
	if c.Mode == ModeLive {
		return ProductionBaseURL
	}
	return StagingBaseURL
}
