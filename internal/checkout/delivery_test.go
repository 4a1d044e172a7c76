package checkout

import (
	"testing"
	"time"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

func TestQuoteDeliveryFees(t *testing.T) {
	from := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC) // a Monday
	cases := []struct {
		option   enums.DeliveryOption
		feeCents int64
		maxDays  int
	}{
		{enums.DeliveryOptionStandard, 150, 5},
		{enums.DeliveryOptionExpress, 300, 2},
		{enums.DeliveryOptionSameDay, 500, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.option), func(t *testing.T) {
			quote, err := QuoteDelivery(tc.option, from)
			if err != nil {
				t.Fatalf("QuoteDelivery: %v", err)
			}
			if quote.FeeCents != tc.feeCents {
				t.Fatalf("fee = %d, want %d", quote.FeeCents, tc.feeCents)
			}
			if quote.MaxBusinessDays != tc.maxDays {
				t.Fatalf("max days = %d, want %d", quote.MaxBusinessDays, tc.maxDays)
			}
		})
	}

	_, err := QuoteDelivery(enums.DeliveryOption("drone"), from)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown option, got %v", err)
	}
}

func TestAddBusinessDaysSkipsWeekends(t *testing.T) {
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		from time.Time
		days int
		want time.Time
	}{
		{"sameDay", monday, 0, monday},
		{"midweek", monday, 2, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)},
		{"fridayPlusOneLandsMonday", friday, 1, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},
		{"fiveFromMondaySkipsWeekend", monday, 5, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},
		{"startingSaturday", saturday, 1, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := addBusinessDays(tc.from, tc.days); !got.Equal(tc.want) {
				t.Fatalf("addBusinessDays(%s, %d) = %s, want %s",
					tc.from.Format("2006-01-02"), tc.days, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}
