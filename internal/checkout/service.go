package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/orders"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

type cartLoader interface {
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
}

type sellerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error)
}

// PaymentIntent is the provider handle the client finishes the card payment
// against.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type paymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*PaymentIntent, error)
}

// Service orchestrates the checkout flow from an active cart to a placed
// order.
type Service interface {
	Quote(ctx context.Context, buyerID uuid.UUID) (*CheckoutQuote, error)
	Execute(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

// CheckoutInput captures the buyer's delivery and payment choices.
type CheckoutInput struct {
	DeliveryOption  enums.DeliveryOption
	PaymentMethod   enums.PaymentMethod
	ShippingAddress types.Address
	BillingAddress  *types.Address
}

// CheckoutQuote previews totals per delivery option before the buyer commits.
type CheckoutQuote struct {
	SubtotalCents   int64           `json:"subtotal_cents"`
	ItemCount       int             `json:"item_count"`
	SellerID        uuid.UUID       `json:"seller_id"`
	DeliveryOptions []DeliveryQuote `json:"delivery_options"`
}

// CheckoutResult is the placed order plus the card handle when one exists.
type CheckoutResult struct {
	Order               orders.OrderDTO `json:"order"`
	PaymentClientSecret string          `json:"payment_client_secret,omitempty"`
}

type service struct {
	cart     cartLoader
	sellers  sellerLoader
	orders   orderPlacer
	payments paymentProvider
	now      func() time.Time
}

// NewService builds the checkout orchestrator. The payment provider may be
// nil only when card checkout is disabled.
func NewService(cart cartLoader, sellers sellerLoader, placer orderPlacer, payments paymentProvider) (Service, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if sellers == nil {
		return nil, fmt.Errorf("seller loader required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	return &service{
		cart:     cart,
		sellers:  sellers,
		orders:   placer,
		payments: payments,
		now:      time.Now,
	}, nil
}

// checkoutLines is the selected slice of a cart, priced from live products.
type checkoutLines struct {
	sellerID      uuid.UUID
	cartID        uuid.UUID
	subtotalCents int64
	itemCount     int
	lines         []orders.OrderLine
}

func (s *service) Quote(ctx context.Context, buyerID uuid.UUID) (*CheckoutQuote, error) {
	selected, err := s.loadSelectedLines(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return &CheckoutQuote{
		SubtotalCents:   selected.subtotalCents,
		ItemCount:       selected.itemCount,
		SellerID:        selected.sellerID,
		DeliveryOptions: QuoteAllDeliveryOptions(s.now()),
	}, nil
}

func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if missing := input.ShippingAddress.FirstMissingField(); missing != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("shipping address is missing %s", missing))
	}

	quote, err := QuoteDelivery(input.DeliveryOption, s.now())
	if err != nil {
		return nil, err
	}

	selected, err := s.loadSelectedLines(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	seller, err := s.sellers.FindByID(ctx, selected.sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	if !seller.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller is no longer active")
	}

	placeInput := orders.PlaceOrderInput{
		BuyerID:           buyerID,
		SellerID:          seller.ID,
		CartID:            &selected.cartID,
		PaymentMethod:     input.PaymentMethod,
		DeliveryOption:    input.DeliveryOption,
		DeliveryFeeCents:  quote.FeeCents,
		EstimatedDelivery: &quote.EstimatedDelivery,
		ShippingAddress:   input.ShippingAddress,
		BillingAddress:    input.BillingAddress,
		Lines:             selected.lines,
	}

	var clientSecret string
	if input.PaymentMethod == enums.PaymentMethodCard {
		if s.payments == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "card payments are not configured")
		}
		intent, err := s.payments.CreatePaymentIntent(ctx, selected.subtotalCents+quote.FeeCents, map[string]string{
			"buyer_id":  buyerID.String(),
			"seller_id": seller.ID.String(),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
		}
		placeInput.PaymentRef = &intent.ID
		clientSecret = intent.ClientSecret
	}

	order, err := s.orders.PlaceOrder(ctx, placeInput)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: *order, PaymentClientSecret: clientSecret}, nil
}

// loadSelectedLines pulls the buyer's active cart and reduces it to the
// selected lines, enforcing the single-seller rule.
func (s *service) loadSelectedLines(ctx context.Context, buyerID uuid.UUID) (*checkoutLines, error) {
	record, err := s.cart.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	selected := &checkoutLines{cartID: record.ID}
	for _, item := range record.Items {
		if !item.Selected {
			continue
		}
		if selected.sellerID == uuid.Nil {
			selected.sellerID = item.SellerID
		} else if selected.sellerID != item.SellerID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				"selected items span multiple sellers; check out one seller at a time")
		}
		price := item.UnitPriceCents
		if item.Product != nil {
			price = item.Product.EffectivePriceCents()
		}
		selected.subtotalCents += price * int64(item.Quantity)
		selected.itemCount += item.Quantity
		selected.lines = append(selected.lines, orders.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	if len(selected.lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items selected for checkout")
	}
	return selected, nil
}
