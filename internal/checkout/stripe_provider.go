package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/jdelacruz/tradepost-backend/pkg/stripe"
)

type stripePaymentProvider struct{}

// NewStripePaymentProvider wraps the configured Stripe client behind the
// checkout payment interface.
func NewStripePaymentProvider(api *pkgstripe.Client) paymentProvider {
	if api == nil {
		return nil
	}
	return &stripePaymentProvider{}
}

func (p *stripePaymentProvider) CreatePaymentIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyPHP)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}
	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
