package orders

import (
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// transitions holds the only legal forward moves in the order lifecycle.
// Cancellation is deliberately reachable from processing alone; a pending
// card order that never pays is expired by the cron sweep, not cancelled.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:         {enums.OrderStatusPaymentApproved, enums.OrderStatusProcessing},
	enums.OrderStatusPaymentApproved: {enums.OrderStatusProcessing},
	enums.OrderStatusProcessing:      {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:         {enums.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status enums.OrderStatus) bool {
	return len(transitions[status]) == 0
}

// sellerAdvanceTargets are the statuses a seller may move an order into
// through the fulfillment endpoints. payment_approved is reserved for the
// payment confirmation flow and never set directly by a seller.
var sellerAdvanceTargets = map[enums.OrderStatus]bool{
	enums.OrderStatusProcessing: true,
	enums.OrderStatusShipped:    true,
	enums.OrderStatusDelivered:  true,
}

func sellerMayTarget(status enums.OrderStatus) bool {
	return sellerAdvanceTargets[status]
}
