package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubOrderLoader struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type reviewKey struct {
	orderID   uuid.UUID
	productID uuid.UUID
}

type stubReviewRepo struct {
	reviews map[uuid.UUID]*models.Review
	byPair  map[reviewKey]bool
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{reviews: map[uuid.UUID]*models.Review{}, byPair: map[reviewKey]bool{}}
}

func (s *stubReviewRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReviewRepo) Create(ctx context.Context, review *models.Review) error {
	key := reviewKey{review.OrderID, review.ProductID}
	if s.byPair[key] {
		return errors.New(`duplicate key value violates unique constraint "reviews_order_id_product_id_key"`)
	}
	review.CreatedAt = time.Now()
	s.reviews[review.ID] = review
	s.byPair[key] = true
	return nil
}

func (s *stubReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	if review, ok := s.reviews[id]; ok {
		return review, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubReviewRepo) Update(ctx context.Context, review *models.Review) error {
	s.reviews[review.ID] = review
	return nil
}

func (s *stubReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, *pagination.Cursor, error) {
	var rows []models.Review
	for _, review := range s.reviews {
		if review.ProductID == productID {
			rows = append(rows, *review)
		}
	}
	return rows, nil, nil
}

func (s *stubReviewRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, *pagination.Cursor, error) {
	var rows []models.Review
	for _, review := range s.reviews {
		if review.SellerID == sellerID {
			rows = append(rows, *review)
		}
	}
	return rows, nil, nil
}

func (s *stubReviewRepo) SellerRatingStats(ctx context.Context, sellerID uuid.UUID) (ratingStats, error) {
	var sum, count int
	for _, review := range s.reviews {
		if review.SellerID == sellerID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return ratingStats{}, nil
	}
	return ratingStats{Average: float64(sum) / float64(count), Count: count}, nil
}

type ratingUpdate struct {
	sellerID uuid.UUID
	avg      float64
	count    int
}

type stubRatingSink struct {
	updates []ratingUpdate
}

func (s *stubRatingSink) UpdateRating(ctx context.Context, id uuid.UUID, avg float64, count int) error {
	s.updates = append(s.updates, ratingUpdate{sellerID: id, avg: avg, count: count})
	return nil
}

type reviewSetup struct {
	repo    *stubReviewRepo
	emitter *stubEmitter
	orders  *stubOrderLoader
	ratings *stubRatingSink
	svc     Service
}

func newReviewSetup(t *testing.T) *reviewSetup {
	t.Helper()
	repo := newStubReviewRepo()
	emitter := &stubEmitter{}
	orders := &stubOrderLoader{orders: map[uuid.UUID]*models.Order{}}
	ratings := &stubRatingSink{}
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Tx:      &stubTxRunner{},
		Events:  emitter,
		Orders:  orders,
		Ratings: func(tx *gorm.DB) ratingSink { return ratings },
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return &reviewSetup{repo: repo, emitter: emitter, orders: orders, ratings: ratings, svc: svc}
}

func seedDeliveredOrder(setup *reviewSetup, buyerID, sellerID, productID uuid.UUID) *models.Order {
	order := &models.Order{
		ID:       uuid.New(),
		BuyerID:  buyerID,
		SellerID: sellerID,
		Status:   enums.OrderStatusDelivered,
		Items:    []models.OrderItem{{ID: uuid.New(), ProductID: productID, Quantity: 1}},
	}
	setup.orders.orders[order.ID] = order
	return order
}

func TestSubmitReviewUpdatesSellerRating(t *testing.T) {
	setup := newReviewSetup(t)
	buyerID := uuid.New()
	sellerID := uuid.New()
	productID := uuid.New()
	order := seedDeliveredOrder(setup, buyerID, sellerID, productID)

	dto, err := setup.svc.SubmitReview(context.Background(), SubmitReviewInput{
		BuyerID:   buyerID,
		OrderID:   order.ID,
		ProductID: productID,
		Rating:    4,
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	if dto.SellerID != sellerID {
		t.Fatalf("expected review pinned to seller %s, got %s", sellerID, dto.SellerID)
	}
	if len(setup.ratings.updates) != 1 {
		t.Fatalf("expected 1 rating update, got %d", len(setup.ratings.updates))
	}
	update := setup.ratings.updates[0]
	if update.sellerID != sellerID || update.avg != 4 || update.count != 1 {
		t.Fatalf("unexpected rating update %+v", update)
	}
	if len(setup.emitter.events) != 1 || setup.emitter.events[0].EventType != enums.EventReviewSubmitted {
		t.Fatalf("expected review_submitted event, got %+v", setup.emitter.events)
	}
}

func TestSubmitReviewRequiresDeliveredOrder(t *testing.T) {
	setup := newReviewSetup(t)
	buyerID := uuid.New()
	productID := uuid.New()
	order := seedDeliveredOrder(setup, buyerID, uuid.New(), productID)
	order.Status = enums.OrderStatusShipped

	_, err := setup.svc.SubmitReview(context.Background(), SubmitReviewInput{
		BuyerID:   buyerID,
		OrderID:   order.ID,
		ProductID: productID,
		Rating:    5,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestSubmitReviewRejectsDuplicate(t *testing.T) {
	setup := newReviewSetup(t)
	buyerID := uuid.New()
	productID := uuid.New()
	order := seedDeliveredOrder(setup, buyerID, uuid.New(), productID)

	input := SubmitReviewInput{BuyerID: buyerID, OrderID: order.ID, ProductID: productID, Rating: 5}
	if _, err := setup.svc.SubmitReview(context.Background(), input); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	_, err := setup.svc.SubmitReview(context.Background(), input)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestSubmitReviewRejectsForeignProduct(t *testing.T) {
	setup := newReviewSetup(t)
	buyerID := uuid.New()
	order := seedDeliveredOrder(setup, buyerID, uuid.New(), uuid.New())

	_, err := setup.svc.SubmitReview(context.Background(), SubmitReviewInput{
		BuyerID:   buyerID,
		OrderID:   order.ID,
		ProductID: uuid.New(),
		Rating:    3,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
}

func TestSubmitReviewRejectsOtherBuyersOrder(t *testing.T) {
	setup := newReviewSetup(t)
	productID := uuid.New()
	order := seedDeliveredOrder(setup, uuid.New(), uuid.New(), productID)

	_, err := setup.svc.SubmitReview(context.Background(), SubmitReviewInput{
		BuyerID:   uuid.New(),
		OrderID:   order.ID,
		ProductID: productID,
		Rating:    3,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestSubmitReviewRatingBounds(t *testing.T) {
	setup := newReviewSetup(t)
	for _, rating := range []int{0, 6, -1} {
		_, err := setup.svc.SubmitReview(context.Background(), SubmitReviewInput{
			BuyerID:   uuid.New(),
			OrderID:   uuid.New(),
			ProductID: uuid.New(),
			Rating:    rating,
		})
		if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %s", rating, code)
		}
	}
}

func TestReplyToReview(t *testing.T) {
	setup := newReviewSetup(t)
	buyerID := uuid.New()
	sellerID := uuid.New()
	productID := uuid.New()
	order := seedDeliveredOrder(setup, buyerID, sellerID, productID)

	dto, err := setup.svc.SubmitReview(context.Background(), SubmitReviewInput{
		BuyerID:   buyerID,
		OrderID:   order.ID,
		ProductID: productID,
		Rating:    2,
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	replied, err := setup.svc.ReplyToReview(context.Background(), ReplyInput{
		SellerID: sellerID,
		ReviewID: dto.ID,
		Body:     "Sorry about that, we've reached out with a replacement.",
	})
	if err != nil {
		t.Fatalf("unexpected reply error: %v", err)
	}
	if replied.ReplyBody == nil || replied.RepliedAt == nil {
		t.Fatal("expected reply body and timestamp")
	}

	_, err = setup.svc.ReplyToReview(context.Background(), ReplyInput{
		SellerID: uuid.New(),
		ReviewID: dto.ID,
		Body:     "not my review",
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}
