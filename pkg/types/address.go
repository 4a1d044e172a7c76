package types

import "strings"

// Address is the shipping/billing address snapshot stored on orders as JSONB.
type Address struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// requiredAddressFields lists the fields checkout validation walks in order;
// the first empty one is reported back to the buyer.
var requiredAddressFields = []struct {
	Name  string
	Value func(Address) string
}{
	{"full_name", func(a Address) string { return a.FullName }},
	{"phone", func(a Address) string { return a.Phone }},
	{"line1", func(a Address) string { return a.Line1 }},
	{"city", func(a Address) string { return a.City }},
	{"state", func(a Address) string { return a.State }},
	{"postal_code", func(a Address) string { return a.PostalCode }},
	{"country", func(a Address) string { return a.Country }},
}

// FirstMissingField returns the name of the first empty required field, or "".
func (a Address) FirstMissingField() string {
	for _, field := range requiredAddressFields {
		if strings.TrimSpace(field.Value(a)) == "" {
			return field.Name
		}
	}
	return ""
}

// IsComplete reports whether every required field is populated.
func (a Address) IsComplete() bool {
	return a.FirstMissingField() == ""
}
