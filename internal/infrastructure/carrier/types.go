package carrier

import (
	"strings"

	"github.com/shopspring/decimal"
)

// APIResult is the normalized outcome of a carrier call. Network errors,
// parse failures and provider-side rejections all land here; nothing at
// this layer panics or surfaces raw provider payloads to callers.
type APIResult struct {
	Success  bool
	Message  string
	HTTPCode int
	Raw      string
}

// PincodeServiceability is the normalized serviceability answer for one
// postal code.
type PincodeServiceability struct {
	APIResult
	Pincode        string
	Serviceable    bool
	CODAllowed     bool
	PrepaidAllowed bool
	City           string
	State          string
	// Embargo marks a temporarily suspended lane; the pincode is reported
	// non-serviceable but the condition is expected to clear.
	Embargo bool
	Remark  string
}

// pincodeResponse mirrors the provider's serviceability payload
type pincodeResponse struct {
	DeliveryCodes []struct {
		PostalCode struct {
			Pin      int    `json:"pin"`
			District string `json:"district"`
			State    string `json:"state_code"`
			PrePaid  string `json:"pre_paid"`
			COD      string `json:"cod"`
			Cash     string `json:"cash"`
			Remarks  string `json:"remarks"`
		} `json:"postal_code"`
	} `json:"delivery_codes"`
}

// createResponse mirrors the provider's shipment-create payload
type createResponse struct {
	Success  bool            `json:"success"`
	Remark   string          `json:"rmk"`
	Packages []createPackage `json:"packages"`
}

type createPackage struct {
	Waybill string   `json:"waybill"`
	Status  string   `json:"status"`
	Remarks []string `json:"remarks"`
	RefNum  string   `json:"refnum"`
}

// CreateResult is the normalized outcome of a shipment creation
type CreateResult struct {
	APIResult
	Waybill string
	RefNum  string
}

// createFailureExtractors is the ordered diagnostic priority for a rejected
// shipment: the per-package remark is the most specific, the provider-level
// remark next, and callers fall back to a generic message. The order is
// operator-facing behavior, not incidental.
var createFailureExtractors = []func(*createResponse) string{
	func(r *createResponse) string {
		if len(r.Packages) == 0 {
			return ""
		}
		return strings.TrimSpace(strings.Join(r.Packages[0].Remarks, "; "))
	},
	func(r *createResponse) string {
		return strings.TrimSpace(r.Remark)
	},
}

// failureMessage returns the most specific rejection reason available
func (r *createResponse) failureMessage() string {
	for _, extract := range createFailureExtractors {
		if msg := extract(r); msg != "" {
			return msg
		}
	}
	return "Carrier rejected the shipment without a reason"
}

// TrackedShipment is one shipment record from the tracking endpoint
type TrackedShipment struct {
	Waybill     string `json:"AWB"`
	ReferenceNo string `json:"ReferenceNo"`
	Status      struct {
		Status         string `json:"Status"`
		StatusDateTime string `json:"StatusDateTime"`
		StatusLocation string `json:"StatusLocation"`
		Instructions   string `json:"Instructions"`
	} `json:"Status"`
	PickUpDate           string `json:"PickUpDate"`
	PromisedDeliveryDate string `json:"PromisedDeliveryDate"`
	DestRecieveDate      string `json:"DestRecieveDate"`
}

// trackResponse mirrors the provider's tracking payload
type trackResponse struct {
	ShipmentData []struct {
		Shipment TrackedShipment `json:"Shipment"`
	} `json:"ShipmentData"`
}

// TrackResult is the normalized outcome of a tracking lookup
type TrackResult struct {
	APIResult
	Shipments []TrackedShipment
}

// CancelResult is the normalized outcome of a cancellation
type CancelResult struct {
	APIResult
}

// cancelResponse mirrors the provider's edit endpoint payload. The provider
// signals the business outcome through the status string, not the HTTP code.
type cancelResponse struct {
	Status string `json:"status"`
	Remark string `json:"rmk"`
}

// CostParams are the inputs for a shipping cost estimate
type CostParams struct {
	OriginPincode      string
	DestinationPincode string
	WeightGrams        int
	Mode               string // E = express, S = surface
	PaymentType        string // COD or Pre-paid
}

// CostResult is the normalized outcome of a cost estimate
type CostResult struct {
	APIResult
	TotalAmount decimal.Decimal
}

// costEntry mirrors one row of the provider's charge payload
type costEntry struct {
	TotalAmount float64 `json:"total_amount"`
}

// WaybillResult is the normalized outcome of a bulk waybill allocation
type WaybillResult struct {
	APIResult
	Waybills []string
}

// PickupRequest describes a pickup to be scheduled at a warehouse
type PickupRequest struct {
	PickupLocation string `json:"pickup_location"`
	PickupDate     string `json:"pickup_date"` // YYYY-MM-DD
	PickupTime     string `json:"pickup_time"` // HH:MM:SS
	ExpectedCount  int    `json:"expected_package_count"`
}

// Warehouse describes a client warehouse registration at the provider
type Warehouse struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	Pincode       string `json:"pin"`
	Country       string `json:"country,omitempty"`
	ReturnAddress string `json:"return_address,omitempty"`
	ReturnPin     string `json:"return_pin,omitempty"`
}

// TATResult is the normalized outcome of an expected turnaround-time lookup
type TATResult struct {
	APIResult
	ExpectedDays int
}

// tatResponse mirrors the provider's TAT payload
type tatResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TAT int `json:"tat"`
	} `json:"data"`
}
