package partner

import "strings"

// AddressComponents is the structured form of a dropoff address. The partner
// prefers components when street, city, state and zip are all known; otherwise
// a single joined line is sent instead.
type AddressComponents struct {
	Street  string `json:"street"`
	Unit    string `json:"unit,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip_code"`
	Country string `json:"country"`
}

// IsComplete reports whether all four required components are present.
func (a AddressComponents) IsComplete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.Zip != ""
}

// SingleLine joins the non-empty components into one comma-separated line.
func (a AddressComponents) SingleLine() string {
	return JoinAddress(a.Street, a.Unit, a.City, a.State, a.Zip)
}

// JoinAddress joins non-empty address segments with ", ".
func JoinAddress(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ", ")
}

// DispatchPayload is the translated create-delivery request. It is built per
// call by the translator, embedded into the order's raw snapshot for audit,
// and never independently persisted.
type DispatchPayload struct {
	ExternalDeliveryID string `json:"external_delivery_id"`

	PickupAddress      string `json:"pickup_address"`
	PickupBusinessName string `json:"pickup_business_name,omitempty"`
	PickupPhoneNumber  string `json:"pickup_phone_number,omitempty"`
	PickupInstructions string `json:"pickup_instructions,omitempty"`

	// Exactly one of DropoffAddress / DropoffComponents is set: components when
	// the structured form is complete, the joined line otherwise.
	DropoffAddress    string             `json:"dropoff_address,omitempty"`
	DropoffComponents *AddressComponents `json:"dropoff_address_components,omitempty"`

	DropoffPhoneNumber  string `json:"dropoff_phone_number"`
	DropoffContactName  string `json:"dropoff_contact_given_name,omitempty"`
	DropoffInstructions string `json:"dropoff_instructions,omitempty"`

	// Monetary fields in minor units (cents). Nil means the value was absent
	// or non-finite in the inbound order and the field is omitted on the wire.
	OrderValue *int64 `json:"order_value,omitempty"`
	Tip        *int64 `json:"tip,omitempty"`
}
