package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"dispatch/internal/core/domain/model/merchant"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
)

// minAddressLen is the shortest address the partner accepts on either end of
// the delivery.
const minAddressLen = 10

// defaultCountry is assumed when the inbound order carries no country.
const defaultCountry = "US"

var zipPattern = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

// OrderTranslator maps an inbound order into the partner's dispatch payload
// shape, normalizing addresses, phone numbers and monetary values.
//
// Inbound payloads arrive in several shapes depending on which upstream
// integration produced them. Dropoff resolution is therefore an explicit
// priority-ordered chain of candidate extractors rather than optimistic field
// access: structured address parts, then a nested address object, then the
// delivery object's direct fields, then free text with zip extraction, then a
// raw string fallback.
type OrderTranslator struct{}

// NewOrderTranslator creates a new OrderTranslator instance.
func NewOrderTranslator() OrderTranslator {
	return OrderTranslator{}
}

// Translate builds the create-delivery payload for an order. m is the merchant
// profile from the directory and may be nil when the store is unknown; the
// pickup address then falls back to the order's own fields.
//
// Returns errs.ValidationError when either address cannot be resolved to the
// partner's minimum requirements. The order stays unsent in that case.
func (t OrderTranslator) Translate(ord *order.Order, m *merchant.Merchant) (partner.DispatchPayload, error) {
	if err := ord.Validate(); err != nil {
		return partner.DispatchPayload{}, err
	}

	var doc map[string]any
	if ord.HasSnapshot() {
		if err := json.Unmarshal(ord.Raw(), &doc); err != nil {
			return partner.DispatchPayload{}, errs.NewValidationErrorWithCause("order payload", err)
		}
	}

	payload := partner.DispatchPayload{
		ExternalDeliveryID: externalID(ord),
	}

	if err := t.resolvePickup(&payload, doc, m); err != nil {
		return partner.DispatchPayload{}, err
	}

	if err := t.resolveDropoff(&payload, doc); err != nil {
		return partner.DispatchPayload{}, err
	}

	payload.DropoffPhoneNumber = NormalizePhone(firstString(
		stringField(doc, "phone"),
		nestedString(doc, "customer", "phone"),
		nestedString(doc, "delivery", "phone"),
	))
	payload.DropoffContactName = firstString(
		nestedString(doc, "customer", "name"),
		stringField(doc, "customer_name"),
	)
	payload.DropoffInstructions = firstString(
		nestedString(doc, "delivery", "instructions"),
		stringField(doc, "special_instructions"),
	)

	payload.OrderValue = MinorUnits(numberField(doc, "order_value", "total"))
	payload.Tip = MinorUnits(numberField(doc, "tip"))

	return payload, nil
}

// resolvePickup prefers the configured merchant address; otherwise it
// assembles the pickup line from the order's own store fields.
func (t OrderTranslator) resolvePickup(p *partner.DispatchPayload, doc map[string]any, m *merchant.Merchant) error {
	if m != nil && m.HasAddress() {
		p.PickupAddress = m.Address
		p.PickupBusinessName = m.Name
		p.PickupPhoneNumber = NormalizePhone(m.Phone)
	} else {
		p.PickupAddress = partner.JoinAddress(
			stringField(doc, "store_address"),
			stringField(doc, "store_city"),
			stringField(doc, "store_state"),
			stringField(doc, "store_zip"),
		)
		p.PickupBusinessName = stringField(doc, "store_name")
		p.PickupPhoneNumber = NormalizePhone(stringField(doc, "store_phone"))
	}

	if len(p.PickupAddress) < minAddressLen {
		return errs.NewValidationErrorWithCause("pickup_address",
			fmt.Errorf("%q is shorter than %d characters", p.PickupAddress, minAddressLen))
	}

	return nil
}

// dropoff is an intermediate resolution result. Components are used on the
// wire when complete; the single line otherwise.
type dropoff struct {
	components partner.AddressComponents
	line       string
}

// resolveDropoff walks the candidate sources in priority order and takes the
// first that yields anything.
func (t OrderTranslator) resolveDropoff(p *partner.DispatchPayload, doc map[string]any) error {
	candidates := []func(map[string]any) (dropoff, bool){
		fromAddressParts,
		fromAddressObject,
		fromDeliveryFields,
		fromFreeText,
		fromRawString,
	}

	var d dropoff
	found := false
	for _, candidate := range candidates {
		if got, ok := candidate(doc); ok {
			d = got
			found = true
			break
		}
	}

	if !found {
		return errs.NewValidationError("dropoff_address")
	}

	if d.components.Country == "" {
		d.components.Country = defaultCountry
	}

	line := d.line
	if line == "" {
		line = d.components.SingleLine()
	}

	if len(line) < minAddressLen {
		return errs.NewValidationErrorWithCause("dropoff_address",
			fmt.Errorf("%q is shorter than %d characters", line, minAddressLen))
	}

	if d.components.Street == "" {
		return errs.NewValidationErrorWithCause("dropoff_address", fmt.Errorf("street is missing in %q", line))
	}

	if d.components.IsComplete() {
		components := d.components
		p.DropoffComponents = &components
	} else {
		p.DropoffAddress = line
	}

	return nil
}

// fromAddressParts reads the structured client_address_parts object.
func fromAddressParts(doc map[string]any) (dropoff, bool) {
	parts, ok := mapField(doc, "client_address_parts")
	if !ok {
		return dropoff{}, false
	}

	d := dropoff{components: partner.AddressComponents{
		Street:  firstString(stringField(parts, "street"), stringField(parts, "street_address")),
		Unit:    stringField(parts, "unit"),
		City:    stringField(parts, "city"),
		State:   stringField(parts, "state"),
		Zip:     firstString(stringField(parts, "zip"), stringField(parts, "zip_code")),
		Country: stringField(parts, "country"),
	}}

	return d, d.components.Street != "" || d.components.City != ""
}

// fromAddressObject reads a nested address object.
func fromAddressObject(doc map[string]any) (dropoff, bool) {
	addr, ok := mapField(doc, "address")
	if !ok {
		return dropoff{}, false
	}

	d := dropoff{components: partner.AddressComponents{
		Street: firstString(
			stringField(addr, "street"),
			stringField(addr, "street_address"),
			stringField(addr, "address1"),
		),
		Unit:    firstString(stringField(addr, "unit"), stringField(addr, "address2")),
		City:    stringField(addr, "city"),
		State:   stringField(addr, "state"),
		Zip:     firstString(stringField(addr, "zip"), stringField(addr, "zip_code"), stringField(addr, "postal_code")),
		Country: stringField(addr, "country"),
	}}

	return d, d.components.Street != ""
}

// fromDeliveryFields reads address fields directly off the delivery object.
func fromDeliveryFields(doc map[string]any) (dropoff, bool) {
	delivery, ok := mapField(doc, "delivery")
	if !ok {
		return dropoff{}, false
	}

	d := dropoff{components: partner.AddressComponents{
		Street: firstString(stringField(delivery, "address"), stringField(delivery, "street")),
		City:   stringField(delivery, "city"),
		State:  stringField(delivery, "state"),
		Zip:    stringField(delivery, "zip"),
	}}

	return d, d.components.Street != ""
}

// fromFreeText reads a free-text delivery address, extracting the zip code and
// treating the leading comma segment as the street.
func fromFreeText(doc map[string]any) (dropoff, bool) {
	text := strings.TrimSpace(stringField(doc, "delivery_address"))
	if text == "" {
		return dropoff{}, false
	}

	d := dropoff{line: text}
	d.components.Street = strings.TrimSpace(strings.SplitN(text, ",", 2)[0])
	d.components.Zip = zipPattern.FindString(text)
	return d, true
}

// fromRawString accepts "address" as a plain string, the oldest inbound shape.
func fromRawString(doc map[string]any) (dropoff, bool) {
	raw, isString := doc["address"].(string)
	text := strings.TrimSpace(raw)
	if !isString || text == "" {
		return dropoff{}, false
	}

	d := dropoff{line: text}
	d.components.Street = strings.TrimSpace(strings.SplitN(text, ",", 2)[0])
	d.components.Zip = zipPattern.FindString(text)
	return d, true
}

// NormalizePhone strips everything except digits and a leading "+". No country
// code is inferred.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}

	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + digits
	}
	return digits
}

// MinorUnits converts a monetary amount to integer cents via rounding.
// Non-finite input yields nil, which omits the field on the wire.
func MinorUnits(value float64) *int64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	cents := int64(math.Round(value * 100))
	return &cents
}

// StoreID extracts the originating store's identifier from an order snapshot.
// Returns an empty string when the snapshot carries none.
func StoreID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	return firstString(
		stringField(doc, "store_id"),
		nestedString(doc, "store", "id"),
		nestedString(doc, "merchant", "id"),
	)
}

func externalID(ord *order.Order) string {
	if ord.ID() != "" {
		return ord.ID()
	}
	return uuid.NewString()
}

func stringField(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	if s, ok := doc[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func nestedString(doc map[string]any, objKey, key string) string {
	obj, ok := mapField(doc, objKey)
	if !ok {
		return ""
	}
	return stringField(obj, key)
}

func mapField(doc map[string]any, key string) (map[string]any, bool) {
	if doc == nil {
		return nil, false
	}
	m, ok := doc[key].(map[string]any)
	return m, ok
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// numberField reads the first present numeric field among keys, accepting both
// JSON numbers and numeric strings. Absent fields yield NaN so MinorUnits
// omits them.
func numberField(doc map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if doc == nil {
			break
		}
		switch v := doc[key].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return math.NaN()
}
