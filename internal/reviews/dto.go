package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
)

// ReviewDTO is one review rendered for the API.
type ReviewDTO struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	ProductID uuid.UUID  `json:"product_id"`
	SellerID  uuid.UUID  `json:"seller_id"`
	BuyerID   uuid.UUID  `json:"buyer_id"`
	Rating    int        `json:"rating"`
	Comment   *string    `json:"comment,omitempty"`
	ReplyBody *string    `json:"reply_body,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ReviewList pages reviews newest first.
type ReviewList struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewReviewDTO converts a persisted review row.
func NewReviewDTO(review *models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        review.ID,
		OrderID:   review.OrderID,
		ProductID: review.ProductID,
		SellerID:  review.SellerID,
		BuyerID:   review.BuyerID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		ReplyBody: review.ReplyBody,
		RepliedAt: review.RepliedAt,
		CreatedAt: review.CreatedAt,
	}
}
