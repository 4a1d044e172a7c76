package enums

import "fmt"

// RelationshipStatus classifies a seller-customer aggregate record.
type RelationshipStatus string

const (
	RelationshipStatusNew    RelationshipStatus = "new"
	RelationshipStatusActive RelationshipStatus = "active"
	RelationshipStatusVIP    RelationshipStatus = "vip"
)

var validRelationshipStatuses = []RelationshipStatus{
	RelationshipStatusNew,
	RelationshipStatusActive,
	RelationshipStatusVIP,
}

// String implements fmt.Stringer.
func (r RelationshipStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RelationshipStatus.
func (r RelationshipStatus) IsValid() bool {
	for _, candidate := range validRelationshipStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRelationshipStatus converts raw input into a RelationshipStatus.
func ParseRelationshipStatus(value string) (RelationshipStatus, error) {
	for _, candidate := range validRelationshipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid relationship status %q", value)
}
