package commands

import (
	"context"

	"staysync/internal/domain/booking"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrPriceMismatch   = errs.New("submitted total does not match current rates")
	ErrRateUnavailable = errs.New("rate calendar unavailable for the requested stay")
)

// PriceVerifier recomputes the authoritative total for a stay from the PMS's
// current rate calendar. It runs at booking-creation time, never trusting an
// earlier quote, since rates can change between quote and checkout.
type PriceVerifier struct {
	gateway PMSGateway
}

func NewPriceVerifier(gateway PMSGateway) *PriceVerifier {
	return &PriceVerifier{gateway: gateway}
}

func (v *PriceVerifier) RecomputeTotal(ctx context.Context, propertyID, roomID uuid.UUID, stay booking.StayPeriod) (booking.Money, error) {
	cal, err := v.gateway.GetRateCalendar(ctx, propertyID, roomID, stay.CheckIn(), stay.CheckOut())
	if err != nil {
		return booking.Money{}, errs.Mark(err, ErrRateUnavailable)
	}
	if len(cal.Nights) != stay.Nights() {
		return booking.Money{}, ErrRateUnavailable
	}

	var total int64
	for _, night := range cal.Nights {
		total += night.Amount
	}

	money, err := booking.NewMoney(total, cal.Currency)
	if err != nil {
		return booking.Money{}, errs.Mark(err, ErrRateUnavailable)
	}
	return money, nil
}

// Verify rejects any non-zero difference between the client-submitted total
// and the recomputed one; the match is exact in minor currency units.
func (v *PriceVerifier) Verify(ctx context.Context, propertyID, roomID uuid.UUID, stay booking.StayPeriod, submitted booking.Money) error {
	authoritative, err := v.RecomputeTotal(ctx, propertyID, roomID, stay)
	if err != nil {
		return err
	}
	if !submitted.Equals(authoritative) {
		return ErrPriceMismatch
	}
	return nil
}
