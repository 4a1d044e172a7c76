package relationships

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// Tier thresholds. A buyer becomes active on their second order and vip at
// ten orders or fifty thousand pesos of lifetime spend.
const (
	activeOrderCount   = 2
	vipOrderCount      = 10
	vipSpentCentsFloor = 5_000_000
)

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service maintains seller-customer aggregates and serves the seller's
// customer book.
type Service interface {
	Recompute(ctx context.Context, tx *gorm.DB, sellerID, buyerID uuid.UUID) error
	ListCustomers(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*CustomerList, error)
	TagCustomer(ctx context.Context, sellerID, buyerID uuid.UUID, tags []string) (*CustomerSummary, error)
}

type service struct {
	repo   Repository
	events eventEmitter
}

// NewService builds the relationship service.
func NewService(repo Repository, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("relationships repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, events: events}, nil
}

// StatusFor classifies a purchase history into a relationship tier.
func StatusFor(stats *OrderHistoryStats) enums.RelationshipStatus {
	if stats.OrderCount >= vipOrderCount || stats.TotalSpentCents >= vipSpentCentsFloor {
		return enums.RelationshipStatusVIP
	}
	if stats.OrderCount >= activeOrderCount {
		return enums.RelationshipStatusActive
	}
	return enums.RelationshipStatusNew
}

// Recompute re-derives the aggregate row for a (seller, buyer) pair from the
// pair's order history. It runs inside the transaction that changed the
// history, so the aggregate can never drift from the orders table.
func (s *service) Recompute(ctx context.Context, tx *gorm.DB, sellerID, buyerID uuid.UUID) error {
	if sellerID == uuid.Nil || buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller and buyer ids required")
	}
	repo := s.repo.WithTx(tx)

	stats, err := repo.AggregateOrders(ctx, sellerID, buyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate order history")
	}
	target := StatusFor(stats)

	rel, err := repo.FindPair(ctx, sellerID, buyerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load relationship")
		}
		rel = &models.SellerCustomerRelationship{
			ID:              uuid.New(),
			SellerID:        sellerID,
			BuyerID:         buyerID,
			Status:          target,
			OrderCount:      stats.OrderCount,
			TotalSpentCents: stats.TotalSpentCents,
			FirstOrderAt:    stats.FirstOrderAt,
			LastOrderAt:     stats.LastOrderAt,
		}
		if err := repo.Create(ctx, rel); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create relationship")
		}
		return nil
	}

	previous := rel.Status
	rel.Status = target
	rel.OrderCount = stats.OrderCount
	rel.TotalSpentCents = stats.TotalSpentCents
	rel.FirstOrderAt = stats.FirstOrderAt
	rel.LastOrderAt = stats.LastOrderAt
	if err := repo.Update(ctx, rel); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update relationship")
	}

	if previous != target {
		event := outbox.DomainEvent{
			EventType:     enums.EventRelationshipMoved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   rel.ID,
			Version:       1,
			Data: payloads.RelationshipMovedEvent{
				SellerID: sellerID,
				BuyerID:  buyerID,
				From:     previous,
				To:       target,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) ListCustomers(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*CustomerList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid relationship status")
	}
	list, err := s.repo.ListBySeller(ctx, sellerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return list, nil
}

// TagCustomer replaces the seller's free-form tags on a customer record.
func (s *service) TagCustomer(ctx context.Context, sellerID, buyerID uuid.UUID, tags []string) (*CustomerSummary, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	rel, err := s.repo.FindPair(ctx, sellerID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer relationship not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load relationship")
	}
	rel.Tags = normalizeTags(tags)
	if err := s.repo.Update(ctx, rel); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tags")
	}
	summary := CustomerSummary{
		ID:              rel.ID,
		BuyerID:         rel.BuyerID,
		Status:          rel.Status,
		OrderCount:      rel.OrderCount,
		TotalSpentCents: rel.TotalSpentCents,
		LastOrderAt:     rel.LastOrderAt,
		CreatedAt:       rel.CreatedAt,
	}
	return &summary, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}
