package relationships

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// ListFilters narrows the seller customer list.
type ListFilters struct {
	Status *enums.RelationshipStatus
}

// CustomerSummary is one row of a seller's customer book.
type CustomerSummary struct {
	ID              uuid.UUID                `json:"id"`
	BuyerID         uuid.UUID                `json:"buyer_id"`
	BuyerName       string                   `json:"buyer_name"`
	Status          enums.RelationshipStatus `json:"status"`
	OrderCount      int                      `json:"order_count"`
	TotalSpentCents int64                    `json:"total_spent_cents"`
	LastOrderAt     *time.Time               `json:"last_order_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

// CustomerList wraps a page of customers plus the next page cursor.
type CustomerList struct {
	Customers  []CustomerSummary `json:"customers"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func (r customerRecord) toSummary() CustomerSummary {
	return CustomerSummary{
		ID:              r.ID,
		BuyerID:         r.BuyerID,
		BuyerName:       r.BuyerName,
		Status:          r.Status,
		OrderCount:      r.OrderCount,
		TotalSpentCents: r.TotalSpentCents,
		LastOrderAt:     r.LastOrderAt,
		CreatedAt:       r.CreatedAt,
	}
}
