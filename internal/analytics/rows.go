package analytics

import (
	"time"
)

// OrderEventRow is the flattened order event shape ingested into BigQuery.
type OrderEventRow struct {
	EventID       string    `bigquery:"event_id"`
	EventType     string    `bigquery:"event_type"`
	OrderID       string    `bigquery:"order_id"`
	BuyerID       string    `bigquery:"buyer_id"`
	SellerID      string    `bigquery:"seller_id"`
	OrderNumber   int64     `bigquery:"order_number"`
	TotalCents    int64     `bigquery:"total_cents"`
	ItemCount     int64     `bigquery:"item_count"`
	PaymentMethod string    `bigquery:"payment_method"`
	FromStatus    string    `bigquery:"from_status"`
	ToStatus      string    `bigquery:"to_status"`
	OccurredAt    time.Time `bigquery:"occurred_at"`
	IngestedAt    time.Time `bigquery:"ingested_at"`
}
