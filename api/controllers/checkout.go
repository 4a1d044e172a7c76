package controllers

import (
	"net/http"
	"strings"

	"github.com/jdelacruz/tradepost-backend/api/responses"
	"github.com/jdelacruz/tradepost-backend/api/validators"
	"github.com/jdelacruz/tradepost-backend/internal/checkout"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

type checkoutExecuteRequest struct {
	DeliveryOption  string         `json:"delivery_option" validate:"required"`
	PaymentMethod   string         `json:"payment_method" validate:"required"`
	ShippingAddress types.Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
}

func (req checkoutExecuteRequest) toInput() (checkout.CheckoutInput, error) {
	delivery, err := enums.ParseDeliveryOption(strings.TrimSpace(req.DeliveryOption))
	if err != nil {
		return checkout.CheckoutInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery_option")
	}
	payment, err := enums.ParsePaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return checkout.CheckoutInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_method")
	}
	return checkout.CheckoutInput{
		DeliveryOption:  delivery,
		PaymentMethod:   payment,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}, nil
}

// CheckoutQuote prices the selected cart lines before the buyer commits.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// CheckoutExecute converts the cart into an order.
func CheckoutExecute(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutExecuteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), buyerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
