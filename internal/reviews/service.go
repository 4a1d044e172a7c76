package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/sellers"
	dbpkg "github.com/jdelacruz/tradepost-backend/pkg/db"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

const maxCommentLength = 2000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// orderLoader fetches the order a review must be anchored to.
type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ratingSink overwrites a seller's denormalized rating columns.
type ratingSink interface {
	UpdateRating(ctx context.Context, id uuid.UUID, avg float64, count int) error
}

// RatingSinkFactory binds the rating writer to a transaction.
type RatingSinkFactory func(tx *gorm.DB) ratingSink

// SubmitReviewInput is buyer feedback on one delivered order line.
type SubmitReviewInput struct {
	BuyerID   uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Rating    int
	Comment   *string
}

// ReplyInput is the seller's public response to a review.
type ReplyInput struct {
	SellerID uuid.UUID
	ReviewID uuid.UUID
	Body     string
}

// Service owns review submission, replies and listing.
type Service interface {
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*ReviewDTO, error)
	ReplyToReview(ctx context.Context, input ReplyInput) (*ReviewDTO, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListSellerReviews(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	events  eventEmitter
	orders  orderLoader
	ratings RatingSinkFactory
}

// ServiceParams collects the review service dependencies.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Events  eventEmitter
	Orders  orderLoader
	Ratings RatingSinkFactory
}

// NewService wires the review service. Ratings defaults to the seller
// repository when not provided.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reviews repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order loader required")
	}
	ratings := params.Ratings
	if ratings == nil {
		ratings = func(tx *gorm.DB) ratingSink {
			return sellers.NewRepository(tx)
		}
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		events:  params.Events,
		orders:  params.Orders,
		ratings: ratings,
	}, nil
}

func (s *service) SubmitReview(ctx context.Context, input SubmitReviewInput) (*ReviewDTO, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.OrderID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and product id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Comment != nil && len(*input.Comment) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment too long")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	if order.BuyerID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be reviewed")
	}
	if !orderContainsProduct(order, input.ProductID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not part of this order")
	}

	review := &models.Review{
		ID:        uuid.New(),
		OrderID:   input.OrderID,
		ProductID: input.ProductID,
		SellerID:  order.SellerID,
		BuyerID:   input.BuyerID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		stats, err := repo.SellerRatingStats(ctx, order.SellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate seller rating")
		}
		if err := s.ratings(tx).UpdateRating(ctx, order.SellerID, stats.Average, stats.Count); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update seller rating")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: enums.UserRoleBuyer.String()},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:  review.ID,
				OrderID:   review.OrderID,
				ProductID: review.ProductID,
				SellerID:  review.SellerID,
				BuyerID:   review.BuyerID,
				Rating:    review.Rating,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit review event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := NewReviewDTO(review)
	return &dto, nil
}

func (s *service) ReplyToReview(ctx context.Context, input ReplyInput) (*ReviewDTO, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reply body required")
	}
	if len(body) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reply too long")
	}

	review, err := s.repo.FindByID(ctx, input.ReviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find review")
	}
	if review.SellerID != input.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another seller")
	}

	now := time.Now().UTC()
	review.ReplyBody = &body
	review.RepliedAt = &now
	if err := s.repo.Update(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save reply")
	}

	dto := NewReviewDTO(review)
	return &dto, nil
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.list(ctx, params, func(cursor *pagination.Cursor) ([]models.Review, *pagination.Cursor, error) {
		return s.repo.ListByProduct(ctx, productID, params.Limit, cursor)
	})
}

func (s *service) ListSellerReviews(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	return s.list(ctx, params, func(cursor *pagination.Cursor) ([]models.Review, *pagination.Cursor, error) {
		return s.repo.ListBySeller(ctx, sellerID, params.Limit, cursor)
	})
}

func (s *service) list(ctx context.Context, params pagination.Params, fetch func(*pagination.Cursor) ([]models.Review, *pagination.Cursor, error)) (*ReviewList, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := fetch(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	out := &ReviewList{Reviews: make([]ReviewDTO, 0, len(rows))}
	for i := range rows {
		out.Reviews = append(out.Reviews, NewReviewDTO(&rows[i]))
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return out, nil
}

func orderContainsProduct(order *models.Order, productID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
