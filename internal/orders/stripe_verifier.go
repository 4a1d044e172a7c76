package orders

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/jdelacruz/tradepost-backend/pkg/stripe"
)

type stripeIntentVerifier struct{}

// NewStripeIntentVerifier wraps the configured Stripe client behind the
// payment verifier interface used by card confirmation.
func NewStripeIntentVerifier(api *pkgstripe.Client) PaymentVerifier {
	if api == nil {
		return nil
	}
	return &stripeIntentVerifier{}
}

func (v *stripeIntentVerifier) IntentStatus(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		return "", err
	}
	return string(intent.Status), nil
}
