package enums

import "fmt"

// InventoryChangeReason explains why a stock quantity moved.
type InventoryChangeReason string

const (
	InventoryReasonOrderPlaced    InventoryChangeReason = "order_placed"
	InventoryReasonOrderCancelled InventoryChangeReason = "order_cancelled"
	InventoryReasonOrderExpired   InventoryChangeReason = "order_expired"
	InventoryReasonManualAdjust   InventoryChangeReason = "manual_adjust"
	InventoryReasonRestock        InventoryChangeReason = "restock"
)

var validInventoryChangeReasons = []InventoryChangeReason{
	InventoryReasonOrderPlaced,
	InventoryReasonOrderCancelled,
	InventoryReasonOrderExpired,
	InventoryReasonManualAdjust,
	InventoryReasonRestock,
}

// String implements fmt.Stringer.
func (i InventoryChangeReason) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryChangeReason.
func (i InventoryChangeReason) IsValid() bool {
	for _, candidate := range validInventoryChangeReasons {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryChangeReason converts raw input into an InventoryChangeReason.
func ParseInventoryChangeReason(value string) (InventoryChangeReason, error) {
	for _, candidate := range validInventoryChangeReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory change reason %q", value)
}
