package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"staysync/internal/pkg/config"
	"staysync/internal/pkg/errs"

	"github.com/google/uuid"
)

// Error carries the PMS response classification the orchestrator's
// retry/compensate decision depends on. Timeouts, 5xx and rate limits are
// transient; explicit business rejections (room no longer available, etc.)
// are permanent and retrying cannot succeed.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Raw        []byte
	transient  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("pms: %s (status %d, code %q)", e.Message, e.StatusCode, e.Code)
	}
	return "pms: " + e.Message
}

func (e *Error) Transient() bool {
	return e.transient
}

// IsTransient reports whether the failure is worth retrying. Unknown errors
// default to transient so the conservative full-budget path applies.
func IsTransient(err error) bool {
	var pmsErr *Error
	if errors.As(err, &pmsErr) {
		return pmsErr.transient
	}
	return true
}

type CreateReservationRequest struct {
	RoomID     uuid.UUID
	PropertyID uuid.UUID
	Arrival    time.Time
	Departure  time.Time
	GuestName  string
	GuestEmail string
	Adults     int
	Children   int
	Total      int64
	Currency   string
	// Correlation fields: echoed into the PMS record so a human auditing the
	// PMS can trace a reservation back to this system, and a duplicate
	// external create is detectable.
	BookingRef string
	PaymentRef string
}

type ReservationCreated struct {
	ReservationID string
	Raw           []byte
}

type NightRate struct {
	Date   time.Time
	Amount int64
}

type RateCalendar struct {
	Currency string
	Nights   []NightRate
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	httpc   *http.Client
}

func NewClient(cfg config.PMSConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.CallTimeout,
		httpc:   &http.Client{},
	}
}

type createReservationBody struct {
	RoomID      string `json:"room_id"`
	PropertyID  string `json:"property_id"`
	Arrival     string `json:"arrival"`
	Departure   string `json:"departure"`
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	BookingRef  string `json:"booking_ref"`
	PaymentRef  string `json:"payment_ref"`
}

type createReservationResult struct {
	ReservationID string `json:"reservation_id"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const isoDate = "2006-01-02"

func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationCreated, error) {
	body := createReservationBody{
		RoomID:      req.RoomID.String(),
		PropertyID:  req.PropertyID.String(),
		Arrival:     req.Arrival.Format(isoDate),
		Departure:   req.Departure.Format(isoDate),
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		Adults:      req.Adults,
		Children:    req.Children,
		TotalAmount: req.Total,
		Currency:    req.Currency,
		BookingRef:  req.BookingRef,
		PaymentRef:  req.PaymentRef,
	}

	raw, status, err := c.post(ctx, "/reservations", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, classify(status, raw)
	}

	var result createReservationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Message: "malformed reservation response", Raw: raw, transient: true}
	}
	if result.ReservationID == "" {
		return nil, &Error{Message: "reservation response missing reservation_id", Raw: raw, transient: true}
	}

	return &ReservationCreated{ReservationID: result.ReservationID, Raw: raw}, nil
}

type rateCalendarResult struct {
	Currency string `json:"currency"`
	Nights   []struct {
		Date   string `json:"date"`
		Amount int64  `json:"amount"`
	} `json:"nights"`
}

// GetRateCalendar fetches the authoritative nightly rates for a room over
// [from, to). Price verification recomputes stay totals from this, never from
// a client-submitted quote.
func (c *Client) GetRateCalendar(ctx context.Context, propertyID, roomID uuid.UUID, from, to time.Time) (*RateCalendar, error) {
	q := url.Values{}
	q.Set("property_id", propertyID.String())
	q.Set("room_id", roomID.String())
	q.Set("from", from.Format(isoDate))
	q.Set("to", to.Format(isoDate))

	raw, status, err := c.get(ctx, "/rates?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, classify(status, raw)
	}

	var result rateCalendarResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Message: "malformed rate calendar response", Raw: raw, transient: true}
	}

	cal := &RateCalendar{Currency: result.Currency, Nights: make([]NightRate, 0, len(result.Nights))}
	for _, n := range result.Nights {
		date, parseErr := time.Parse(isoDate, n.Date)
		if parseErr != nil {
			return nil, &Error{Message: "malformed rate calendar date", Raw: raw, transient: true}
		}
		cal.Nights = append(cal.Nights, NightRate{Date: date, Amount: n.Amount})
	}
	return cal, nil
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, errs.Wrap(err, "failed to encode pms request")
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// do applies a per-call timeout so a slow PMS cannot stall the caller past
// its own request deadline.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, errs.Wrap(err, "failed to build pms request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, &Error{Message: describeTransportError(err), transient: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, &Error{Message: "failed to read pms response", transient: true}
	}

	return raw, resp.StatusCode, nil
}

func describeTransportError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "pms request timed out"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "pms request timed out"
	}
	return "pms request failed: " + err.Error()
}

// NewError builds a classified Error from an HTTP status, for callers that
// synthesize PMS responses (stubs, replay tooling).
func NewError(status int, code, message string, raw []byte) *Error {
	e := classify(status, raw)
	if code != "" {
		e.Code = code
	}
	if message != "" {
		e.Message = message
	}
	return e
}

func classify(status int, raw []byte) *Error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	transient := status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
	return &Error{
		StatusCode: status,
		Code:       body.Code,
		Message:    msg,
		Raw:        raw,
		transient:  transient,
	}
}
