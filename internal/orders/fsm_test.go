package orders

import (
	"testing"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from enums.OrderStatus
		to   enums.OrderStatus
		want bool
	}{
		{"pendingToPaymentApproved", enums.OrderStatusPending, enums.OrderStatusPaymentApproved, true},
		{"pendingToProcessing", enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{"paymentApprovedToProcessing", enums.OrderStatusPaymentApproved, enums.OrderStatusProcessing, true},
		{"processingToShipped", enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{"processingToCancelled", enums.OrderStatusProcessing, enums.OrderStatusCancelled, true},
		{"shippedToDelivered", enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{"pendingToShipped", enums.OrderStatusPending, enums.OrderStatusShipped, false},
		{"pendingToCancelled", enums.OrderStatusPending, enums.OrderStatusCancelled, false},
		{"paymentApprovedToCancelled", enums.OrderStatusPaymentApproved, enums.OrderStatusCancelled, false},
		{"shippedToCancelled", enums.OrderStatusShipped, enums.OrderStatusCancelled, false},
		{"deliveredAnywhere", enums.OrderStatusDelivered, enums.OrderStatusProcessing, false},
		{"cancelledAnywhere", enums.OrderStatusCancelled, enums.OrderStatusPending, false},
		{"skipShipped", enums.OrderStatusProcessing, enums.OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(enums.OrderStatusDelivered) {
		t.Fatal("delivered should be terminal")
	}
	if !IsTerminal(enums.OrderStatusCancelled) {
		t.Fatal("cancelled should be terminal")
	}
	if IsTerminal(enums.OrderStatusProcessing) {
		t.Fatal("processing should not be terminal")
	}
}
