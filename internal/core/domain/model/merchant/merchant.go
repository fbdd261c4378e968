// Package merchant holds the read-only merchant profile consumed during
// translation. Merchant records are owned by the merchant directory; the
// dispatch pipeline only reads the pickup-relevant fields.
package merchant

// Merchant is a pickup location as known to the merchant directory.
type Merchant struct {
	ID      string
	Name    string
	Address string
	Phone   string
}

// HasAddress reports whether the directory carries a configured pickup
// address for this merchant.
func (m Merchant) HasAddress() bool {
	return m.Address != ""
}
