package booking

import (
	"errors"
	"strings"
	"time"
)

// StayPeriod is a check-in/check-out date pair. Times are date-only; the PMS
// wire format carries ISO dates with no time component.
type StayPeriod struct {
	checkIn  time.Time
	checkOut time.Time
}

func NewStayPeriod(checkIn, checkOut time.Time) (StayPeriod, error) {
	ci := truncateToDate(checkIn)
	co := truncateToDate(checkOut)
	if !ci.Before(co) {
		return StayPeriod{}, errors.New("check-in must be before check-out")
	}
	return StayPeriod{checkIn: ci, checkOut: co}, nil
}

func (p StayPeriod) CheckIn() time.Time {
	return p.checkIn
}

func (p StayPeriod) CheckOut() time.Time {
	return p.checkOut
}

func (p StayPeriod) Nights() int {
	return int(p.checkOut.Sub(p.checkIn).Hours() / 24)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Money is an amount in minor currency units. For JPY the minor unit is the
// yen itself.
type Money struct {
	amount   int64
	currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, errors.New("money cannot be negative")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, errors.New("currency must be a 3-letter ISO code")
	}
	return Money{amount: amount, currency: currency}, nil
}

func (m Money) Amount() int64 {
	return m.amount
}

func (m Money) Currency() string {
	return m.currency
}

// Equals requires an exact integer match; price verification tolerates no
// rounding slack.
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

type Occupancy struct {
	adults   int
	children int
}

func NewOccupancy(adults, children int) (Occupancy, error) {
	if adults < 1 {
		return Occupancy{}, errors.New("at least one adult is required")
	}
	if children < 0 {
		return Occupancy{}, errors.New("children count cannot be negative")
	}
	return Occupancy{adults: adults, children: children}, nil
}

func (o Occupancy) Adults() int {
	return o.adults
}

func (o Occupancy) Children() int {
	return o.children
}

type Guest struct {
	name  string
	email string
}

func NewGuest(name, email string) (Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Guest{}, errors.New("guest name is required")
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return Guest{}, errors.New("valid guest email is required")
	}
	return Guest{name: name, email: email}, nil
}

func (g Guest) Name() string {
	return g.name
}

func (g Guest) Email() string {
	return g.email
}
