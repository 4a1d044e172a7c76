package checkout

import (
	"time"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

// DeliveryQuote prices one delivery option and estimates its arrival date.
type DeliveryQuote struct {
	Option            enums.DeliveryOption `json:"option"`
	FeeCents          int64                `json:"fee_cents"`
	MinBusinessDays   int                  `json:"min_business_days"`
	MaxBusinessDays   int                  `json:"max_business_days"`
	EstimatedDelivery time.Time            `json:"estimated_delivery"`
}

type deliveryRate struct {
	feeCents int64
	minDays  int
	maxDays  int
}

var deliveryRates = map[enums.DeliveryOption]deliveryRate{
	enums.DeliveryOptionStandard: {feeCents: 150, minDays: 3, maxDays: 5},
	enums.DeliveryOptionExpress:  {feeCents: 300, minDays: 1, maxDays: 2},
	enums.DeliveryOptionSameDay:  {feeCents: 500, minDays: 0, maxDays: 0},
}

// QuoteDelivery returns the fee and arrival estimate for one option. The
// estimate lands on the option's max business days from the given date,
// skipping weekends.
func QuoteDelivery(option enums.DeliveryOption, from time.Time) (*DeliveryQuote, error) {
	rate, ok := deliveryRates[option]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery option")
	}
	return &DeliveryQuote{
		Option:            option,
		FeeCents:          rate.feeCents,
		MinBusinessDays:   rate.minDays,
		MaxBusinessDays:   rate.maxDays,
		EstimatedDelivery: addBusinessDays(from, rate.maxDays),
	}, nil
}

// QuoteAllDeliveryOptions lists every option priced from the given date.
func QuoteAllDeliveryOptions(from time.Time) []DeliveryQuote {
	options := []enums.DeliveryOption{
		enums.DeliveryOptionStandard,
		enums.DeliveryOptionExpress,
		enums.DeliveryOptionSameDay,
	}
	quotes := make([]DeliveryQuote, 0, len(options))
	for _, option := range options {
		quote, _ := QuoteDelivery(option, from)
		quotes = append(quotes, *quote)
	}
	return quotes
}

// addBusinessDays walks forward day by day, counting only weekdays.
func addBusinessDays(from time.Time, days int) time.Time {
	date := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for remaining := days; remaining > 0; {
		date = date.AddDate(0, 0, 1)
		if weekday := date.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
			continue
		}
		remaining--
	}
	return date
}
