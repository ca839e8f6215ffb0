package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/domain/shipping"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// embargoMarker in a serviceability remark means the lane is
	// temporarily suspended, not permanently unserviceable
	embargoMarker = "embargo"
)

// CredentialResolver resolves carrier credentials for a store at call time
type CredentialResolver interface {
	Resolve(ctx context.Context, storeID uuid.UUID) (*settings.Credentials, error)
}

// Client talks to the logistics provider on behalf of one store. Credentials
// are re-resolved on every call unless a static config was supplied, so a
// client constructed before the store's settings existed still picks them up.
type Client struct {
	storeID    uuid.UUID
	config     *Config
	resolver   CredentialResolver
	httpClient *http.Client
	logger     *zap.Logger

	// baseURLOverride routes requests to a test server regardless of mode
	baseURLOverride string
}

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client)

// WithResolver sets the credential resolver consulted when no static config
// is present
func WithResolver(resolver CredentialResolver) ClientOption {
	return func(c *Client) {
		c.resolver = resolver
	}
}

// WithClientLogger sets the logger
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBaseURL overrides the provider endpoint. Intended for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURLOverride = baseURL
	}
}

// NewClient creates a carrier client scoped to one store. config may be nil
// when a resolver is supplied.
func NewClient(storeID uuid.UUID, config *Config, opts ...ClientOption) (*Client, error) {
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	timeout := 30
	if config != nil {
		timeout = config.TimeoutSeconds
	}

	client := &Client{
		storeID: storeID,
		config:  config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.config == nil && client.resolver == nil {
		return nil, ErrConfigMissingToken
	}

	return client, nil
}

// resolveConfig returns the active configuration: the static config when
// present, otherwise credentials resolved for the store.
func (c *Client) resolveConfig(ctx context.Context) (*Config, error) {
	if c.config != nil {
		return c.config, nil
	}

	creds, err := c.resolver.Resolve(ctx, c.storeID)
	if err != nil {
		return nil, err
	}

	config := ConfigFromCredentials(*creds)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CheckPincode checks delivery serviceability for a pincode. An embargo
// remark reports as non-serviceable without being a hard failure.
func (c *Client) CheckPincode(ctx context.Context, pincode string) (*PincodeServiceability, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &PincodeServiceability{Pincode: pincode}

	query := url.Values{"filter_codes": {pincode}}
	body, status, reqErr := c.doRequest(ctx, config, http.MethodGet, "/c/api/pin-codes/json/", query, "", nil)
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var resp pincodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed serviceability data: %v", err)
		return result, nil
	}

	if len(resp.DeliveryCodes) == 0 {
		result.Success = true
		result.Message = "Pincode is not serviceable"
		return result, nil
	}

	pc := resp.DeliveryCodes[0].PostalCode
	result.Success = true
	result.City = pc.District
	result.State = pc.State
	result.CODAllowed = pc.COD == "Y" || pc.Cash == "Y"
	result.PrepaidAllowed = pc.PrePaid == "Y"
	result.Remark = pc.Remarks

	if strings.Contains(strings.ToLower(pc.Remarks), embargoMarker) {
		result.Embargo = true
		result.Serviceable = false
		result.Message = "Pincode is temporarily under embargo"
		return result, nil
	}

	result.Serviceable = result.CODAllowed || result.PrepaidAllowed
	if !result.Serviceable {
		result.Message = "Pincode is not serviceable"
	}
	return result, nil
}

// CreateShipment registers a shipment with the provider. The create endpoint
// requires a form body of format=json&data={json} rather than a JSON body.
func (c *Client) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*CreateResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{}

	pickupLocation := req.PickupLocation
	if pickupLocation == "" {
		pickupLocation = config.PickupLocation
	}

	payload := map[string]any{
		"shipments": []map[string]any{
			{
				"name":            req.ConsigneeName,
				"add":             strings.TrimSpace(req.AddressLine1 + " " + req.AddressLine2),
				"city":            req.City,
				"state":           req.State,
				"pin":             req.Pincode,
				"country":         req.Country,
				"phone":           req.Phone,
				"order":           req.OrderNumber,
				"payment_mode":    string(req.PaymentMode),
				"cod_amount":      req.CODAmount.StringFixed(2),
				"total_amount":    req.DeclaredValue.StringFixed(2),
				"products_desc":   req.ProductsDesc,
				"weight":          req.WeightKG.String(),
				"shipment_length": strconv.Itoa(req.LengthCM),
				"shipment_width":  strconv.Itoa(req.WidthCM),
			},
		},
		"pickup_location": map[string]any{
			"name": pickupLocation,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("carrier: failed to marshal shipment payload: %w", err)
	}

	form := url.Values{
		"format": {"json"},
		"data":   {string(data)},
	}

	body, status, reqErr := c.doRequest(ctx, config, http.MethodPost, "/api/cmu/create.json", nil,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed create response: %v", err)
		return result, nil
	}

	if len(resp.Packages) > 0 && resp.Packages[0].Waybill != "" {
		result.Success = true
		result.Waybill = resp.Packages[0].Waybill
		result.RefNum = resp.Packages[0].RefNum
		return result, nil
	}

	result.Message = resp.failureMessage()
	return result, nil
}

// Track looks up shipment status by waybill or by order reference. Exactly
// one of waybill/orderRef should be set; waybill wins when both are.
func (c *Client) Track(ctx context.Context, waybill, orderRef string) (*TrackResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &TrackResult{}

	query := url.Values{}
	switch {
	case waybill != "":
		query.Set("waybill", waybill)
	case orderRef != "":
		query.Set("ref_ids", orderRef)
	default:
		result.Message = "Either a waybill or an order reference is required"
		return result, nil
	}

	body, status, reqErr := c.doRequest(ctx, config, http.MethodGet, "/api/v1/packages/json/", query, "", nil)
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var resp trackResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed tracking data: %v", err)
		return result, nil
	}

	if len(resp.ShipmentData) == 0 {
		result.Message = "No shipment data returned for this reference"
		return result, nil
	}

	result.Success = true
	for _, record := range resp.ShipmentData {
		result.Shipments = append(result.Shipments, record.Shipment)
	}
	return result, nil
}

// Cancel requests cancellation of a shipment. The provider signals the
// outcome via its status string, not the HTTP code.
func (c *Client) Cancel(ctx context.Context, waybill string) (*CancelResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &CancelResult{}

	payload, err := json.Marshal(map[string]any{
		"waybill":      waybill,
		"cancellation": "true",
	})
	if err != nil {
		return nil, fmt.Errorf("carrier: failed to marshal cancel payload: %w", err)
	}

	body, status, reqErr := c.doRequest(ctx, config, http.MethodPost, "/api/p/edit/", nil,
		"application/json", strings.NewReader(string(payload)))
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var resp cancelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed cancel response: %v", err)
		return result, nil
	}

	if strings.EqualFold(resp.Status, "Success") {
		result.Success = true
		result.Message = "Shipment cancelled"
		return result, nil
	}

	result.Message = resp.Remark
	if result.Message == "" {
		result.Message = fmt.Sprintf("Cancellation rejected with status %q", resp.Status)
	}
	return result, nil
}

// CalculateShippingCost estimates the shipping charge for a lane
func (c *Client) CalculateShippingCost(ctx context.Context, params CostParams) (*CostResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &CostResult{}

	query := url.Values{
		"ss": {params.OriginPincode},
		"ds": {params.DestinationPincode},
		"wt": {strconv.Itoa(params.WeightGrams)},
		"md": {params.Mode},
		"pt": {params.PaymentType},
	}

	body, status, reqErr := c.doRequest(ctx, config, http.MethodGet, "/api/k/v1/invoice/shipping_charge/", query, "", nil)
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var entries []costEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed charge data: %v", err)
		return result, nil
	}

	if len(entries) == 0 {
		result.Message = "No charge data returned for this lane"
		return result, nil
	}

	result.Success = true
	result.TotalAmount = decimal.NewFromFloat(entries[0].TotalAmount).Round(2)
	return result, nil
}

// FetchWaybills allocates a batch of waybill numbers
func (c *Client) FetchWaybills(ctx context.Context, count int) (*WaybillResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &WaybillResult{}

	query := url.Values{"count": {strconv.Itoa(count)}}
	body, status, reqErr := c.doRequest(ctx, config, http.MethodGet, "/api/k/v1/waybill/fetch/", query, "", nil)
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	// The endpoint returns either a JSON string of comma-separated waybills
	// or a plain JSON array.
	var asString string
	if err := json.Unmarshal(body, &asString); err == nil {
		result.Success = true
		for _, wb := range strings.Split(asString, ",") {
			if wb = strings.TrimSpace(wb); wb != "" {
				result.Waybills = append(result.Waybills, wb)
			}
		}
		return result, nil
	}

	var asList []string
	if err := json.Unmarshal(body, &asList); err == nil {
		result.Success = true
		result.Waybills = asList
		return result, nil
	}

	result.Message = "carrier returned malformed waybill data"
	return result, nil
}

// CreatePickupRequest schedules a pickup at a warehouse
func (c *Client) CreatePickupRequest(ctx context.Context, req PickupRequest) (*APIResult, error) {
	return c.doJSONAction(ctx, "/api/pickup/request/creation/json/", req)
}

// CreateWarehouse registers a new client warehouse with the provider
func (c *Client) CreateWarehouse(ctx context.Context, warehouse Warehouse) (*APIResult, error) {
	return c.doJSONAction(ctx, "/api/backend/clientwarehouse/create/", warehouse)
}

// UpdateWarehouse updates a client warehouse at the provider
func (c *Client) UpdateWarehouse(ctx context.Context, warehouse Warehouse) (*APIResult, error) {
	return c.doJSONAction(ctx, "/api/backend/clientwarehouse/edit/", warehouse)
}

// ExpectedTAT returns the expected turnaround time in days between two
// pincodes.
func (c *Client) ExpectedTAT(ctx context.Context, originPin, destinationPin string) (*TATResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &TATResult{}

	query := url.Values{
		"origin_pin":      {originPin},
		"destination_pin": {destinationPin},
	}

	body, status, reqErr := c.doRequest(ctx, config, http.MethodGet, "/api/dc/expected_tat", query, "", nil)
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var resp tatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed TAT data: %v", err)
		return result, nil
	}

	if !resp.Success {
		result.Message = "No TAT available for this lane"
		return result, nil
	}

	result.Success = true
	result.ExpectedDays = resp.Data.TAT
	return result, nil
}

// doJSONAction POSTs a JSON payload and normalizes the generic
// success/remark response shape shared by the pickup and warehouse
// endpoints.
func (c *Client) doJSONAction(ctx context.Context, path string, payload any) (*APIResult, error) {
	config, err := c.resolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	result := &APIResult{}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("carrier: failed to marshal payload: %w", err)
	}

	body, status, reqErr := c.doRequest(ctx, config, http.MethodPost, path, nil,
		"application/json", strings.NewReader(string(data)))
	result.HTTPCode = status
	result.Raw = string(body)
	if reqErr != nil {
		result.Message = reqErr.Error()
		return result, nil
	}

	var resp struct {
		Success bool   `json:"success"`
		Remark  string `json:"rmk"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Message = fmt.Sprintf("carrier returned malformed response: %v", err)
		return result, nil
	}

	result.Success = resp.Success
	if !resp.Success {
		result.Message = resp.Remark
		if result.Message == "" {
			result.Message = resp.Error
		}
		if result.Message == "" {
			result.Message = "Carrier rejected the request"
		}
	}
	return result, nil
}

// doRequest performs one HTTP call against the provider. Network failures
// and non-2xx statuses come back as errors for the callers to normalize
// into their result values.
func (c *Client) doRequest(ctx context.Context, config *Config, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, int, error) {
	baseURL := config.BaseURL()
	if c.baseURLOverride != "" {
		baseURL = c.baseURLOverride
	}

	requestURL := baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("carrier: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+config.APIToken)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Carrier request failed",
			zap.String("path", path),
			zap.String("store_id", c.storeID.String()),
			zap.Error(err))
		return nil, 0, fmt.Errorf("carrier unreachable: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("carrier: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("Carrier returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return respBody, resp.StatusCode, fmt.Errorf("carrier returned HTTP %d", resp.StatusCode)
	}

	return respBody, resp.StatusCode, nil
}
