package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a value object representing a billing or shipping address.
// It is stored serialized as JSON. Historic rows were written by different
// form handlers, so deserialization accepts the legacy field names
// ("street" for line 1, "postal_code" for zip) alongside the current ones.
type Address struct {
	line1   string
	line2   string
	city    string
	state   string
	zip     string
	country string
}

// NewAddress creates a new Address. Line 1, city and zip are required;
// state may be empty (tax splitting then falls back to the intrastate default).
func NewAddress(line1, line2, city, state, zip, country string) (Address, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	zip = strings.TrimSpace(zip)
	country = strings.TrimSpace(country)

	if line1 == "" {
		return Address{}, fmt.Errorf("address line 1 is required")
	}
	if city == "" {
		return Address{}, fmt.Errorf("address city is required")
	}
	if zip == "" {
		return Address{}, fmt.Errorf("address zip is required")
	}
	if country == "" {
		country = "India"
	}

	return Address{
		line1:   line1,
		line2:   line2,
		city:    city,
		state:   state,
		zip:     zip,
		country: country,
	}, nil
}

// Line1 returns the first address line
func (a Address) Line1() string { return a.line1 }

// Line2 returns the second address line
func (a Address) Line2() string { return a.line2 }

// City returns the city
func (a Address) City() string { return a.city }

// State returns the state
func (a Address) State() string { return a.state }

// Zip returns the postal code
func (a Address) Zip() string { return a.zip }

// Country returns the country
func (a Address) Country() string { return a.country }

// IsZero reports whether the address is empty
func (a Address) IsZero() bool {
	return a == Address{}
}

// FullStreet returns both address lines joined for carrier payloads
func (a Address) FullStreet() string {
	if a.line2 == "" {
		return a.line1
	}
	return a.line1 + ", " + a.line2
}

type addressJSON struct {
	Line1   string `json:"address_line1,omitempty"`
	Line2   string `json:"address_line2,omitempty"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Postal  string `json:"postal_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// MarshalJSON serializes the address using the current field names
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Line1:   a.line1,
		Line2:   a.line2,
		City:    a.city,
		State:   a.state,
		Zip:     a.zip,
		Country: a.country,
	})
}

// UnmarshalJSON deserializes an address, accepting legacy field names:
// "street" is read when "address_line1" is absent, "postal_code" when
// "zip" is absent.
func (a *Address) UnmarshalJSON(data []byte) error {
	var raw addressJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	line1 := raw.Line1
	if line1 == "" {
		line1 = raw.Street
	}
	zip := raw.Zip
	if zip == "" {
		zip = raw.Postal
	}

	a.line1 = strings.TrimSpace(line1)
	a.line2 = strings.TrimSpace(raw.Line2)
	a.city = strings.TrimSpace(raw.City)
	a.state = strings.TrimSpace(raw.State)
	a.zip = strings.TrimSpace(zip)
	a.country = strings.TrimSpace(raw.Country)
	return nil
}

// Value implements driver.Valuer so Address can be stored as a JSON column
func (a Address) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}
