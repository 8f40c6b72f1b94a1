//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"staysync/internal/infra/paygate"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

const nightlyRate = 5000

// pmsStub fakes the property management system. Mode selects the reservation
// outcome; the rate calendar always prices nights at nightlyRate JPY.
type pmsStub struct {
	mu           sync.Mutex
	mode         string // "success", "fail500", "fail409"
	createCalls  int
	reservations int
}

func (p *pmsStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reservations", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.createCalls++

		switch p.mode {
		case "fail500":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"code":"INTERNAL","message":"pms exploded"}`)
		case "fail409":
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"code":"ROOM_UNAVAILABLE","message":"room no longer available"}`)
		default:
			p.reservations++
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"reservation_id":"HTL-2026-%05d"}`, p.reservations)
		}
	})
	mux.HandleFunc("GET /rates", func(w http.ResponseWriter, r *http.Request) {
		from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		type night struct {
			Date   string `json:"date"`
			Amount int64  `json:"amount"`
		}
		var nights []night
		for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
			nights = append(nights, night{Date: d.Format("2006-01-02"), Amount: nightlyRate})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"currency": "JPY", "nights": nights})
	})
	return mux
}

func (p *pmsStub) setMode(mode string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.createCalls = 0
}

func (p *pmsStub) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls
}

// paygateStub fakes the payment gateway's refund endpoint.
type paygateStub struct {
	mu      sync.Mutex
	fail    bool
	refunds int
}

func (p *paygateStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /refunds", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		p.refunds++
		fmt.Fprint(w, `{"status":"refunded"}`)
	})
	return mux
}

func (p *paygateStub) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

func (p *paygateStub) refundCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refunds
}

type FulfillmentTestSuite struct {
	SharedSuite
	pms     *pmsStub
	paygate *paygateStub
}

func TestFulfillmentSuite(t *testing.T) {
	suite.Run(t, new(FulfillmentTestSuite))
}

func (s *FulfillmentTestSuite) SetupSuite() {
	s.pms = &pmsStub{mode: "success"}
	s.paygate = &paygateStub{}

	pmsServer := httptest.NewServer(s.pms.handler())
	payServer := httptest.NewServer(s.paygate.handler())
	s.T().Cleanup(pmsServer.Close)
	s.T().Cleanup(payServer.Close)

	s.SetupSharedSuite(s.T(), StubEndpoints{
		PMSBaseURL:     pmsServer.URL,
		PayGateBaseURL: payServer.URL,
	})
}

func (s *FulfillmentTestSuite) perform(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func (s *FulfillmentTestSuite) createBooking() uuid.UUID {
	checkIn := time.Now().AddDate(0, 0, 7)
	checkOut := checkIn.AddDate(0, 0, 3)

	reqBody := map[string]any{
		"room_id":      uuid.New().String(),
		"property_id":  uuid.New().String(),
		"check_in":     checkIn.Format("2006-01-02"),
		"check_out":    checkOut.Format("2006-01-02"),
		"adults":       2,
		"children":     0,
		"guest_name":   "Hanako Yamada",
		"guest_email":  "hanako@example.com",
		"total_amount": 3 * nightlyRate,
		"currency":     "JPY",
	}

	rec := s.perform(http.MethodPost, "/api/bookings", reqBody, map[string]string{
		"Idempotency-Key": uuid.New().String(),
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		BookingID uuid.UUID `json:"booking_id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.BookingID
}

func (s *FulfillmentTestSuite) deliverCapture(bookingID uuid.UUID) *httptest.ResponseRecorder {
	payload := map[string]any{
		"event_id":   "evt_" + uuid.New().String()[:8],
		"event_type": "payment.succeeded",
		"data": map[string]any{
			"intent_id":  "pi_" + uuid.New().String()[:8],
			"booking_id": bookingID.String(),
			"amount":     3 * nightlyRate,
			"currency":   "JPY",
		},
	}
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	return s.perform(http.MethodPost, "/api/webhooks/payment", body, map[string]string{
		"X-Webhook-Signature": paygate.Sign(s.Config.Webhook.Secret, body),
	})
}

func (s *FulfillmentTestSuite) getBooking(id uuid.UUID) map[string]any {
	rec := s.perform(http.MethodGet, "/api/bookings/"+id.String(), nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var view map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func (s *FulfillmentTestSuite) TestHappyPath() {
	s.pms.setMode("success")
	bookingID := s.createBooking()

	rec := s.deliverCapture(bookingID)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	view := s.getBooking(bookingID)
	s.Equal("confirmed", view["status"])
	s.NotEmpty(view["external_reservation_id"])
	s.EqualValues(1, view["sync_attempts"])

	attemptsRec := s.perform(http.MethodGet, "/api/bookings/"+bookingID.String()+"/attempts", nil, nil)
	s.Equal(http.StatusOK, attemptsRec.Code)

	var attempts []map[string]any
	s.Require().NoError(json.Unmarshal(attemptsRec.Body.Bytes(), &attempts))
	s.Require().Len(attempts, 1)
	s.Equal("success", attempts[0]["outcome"])
}

func (s *FulfillmentTestSuite) TestDuplicateCaptureIsAbsorbed() {
	s.pms.setMode("success")
	bookingID := s.createBooking()

	payload := map[string]any{
		"event_id":   "evt_dup",
		"event_type": "payment.succeeded",
		"data": map[string]any{
			"intent_id":  "pi_dup_" + uuid.New().String()[:8],
			"booking_id": bookingID.String(),
			"amount":     3 * nightlyRate,
			"currency":   "JPY",
		},
	}
	body, err := json.Marshal(payload)
	s.Require().NoError(err)
	headers := map[string]string{
		"X-Webhook-Signature": paygate.Sign(s.Config.Webhook.Secret, body),
	}

	s.Equal(http.StatusOK, s.perform(http.MethodPost, "/api/webhooks/payment", body, headers).Code)
	before := s.pms.calls()
	s.Equal(http.StatusOK, s.perform(http.MethodPost, "/api/webhooks/payment", body, headers).Code)

	s.Equal(before, s.pms.calls(), "duplicate delivery must not re-create the reservation")
	s.Equal("confirmed", s.getBooking(bookingID)["status"])
}

func (s *FulfillmentTestSuite) TestPermanentRejectionRefunds() {
	s.pms.setMode("fail409")
	s.paygate.setFail(false)
	bookingID := s.createBooking()

	refundsBefore := s.paygate.refundCount()
	rec := s.deliverCapture(bookingID)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	view := s.getBooking(bookingID)
	s.Equal("refunded", view["status"])
	s.Empty(view["external_reservation_id"])
	s.Equal(refundsBefore+1, s.paygate.refundCount())
	s.Equal(1, s.pms.calls(), "permanent rejection must not burn the retry budget")
}

func (s *FulfillmentTestSuite) TestRetryBudgetExhaustedRefunds() {
	s.pms.setMode("fail500")
	s.paygate.setFail(false)
	bookingID := s.createBooking()

	rec := s.deliverCapture(bookingID)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	view := s.getBooking(bookingID)
	s.Equal("refunded", view["status"])
	s.EqualValues(5, view["sync_attempts"])
	s.Equal(5, s.pms.calls())
}

func (s *FulfillmentTestSuite) TestRefundFailureEscalatesAndManualRetryRecovers() {
	s.pms.setMode("fail409")
	s.paygate.setFail(true)
	bookingID := s.createBooking()

	rec := s.deliverCapture(bookingID)
	s.Equal(http.StatusInternalServerError, rec.Code, rec.Body.String())
	s.Equal("sync_failed", s.getBooking(bookingID)["status"])

	// Operator fixes the PMS side, then retries by hand.
	s.pms.setMode("success")
	s.paygate.setFail(false)

	retryRec := s.perform(http.MethodPost, "/api/admin/bookings/"+bookingID.String()+"/retry", nil, nil)
	s.Equal(http.StatusOK, retryRec.Code, retryRec.Body.String())
	s.Equal("confirmed", s.getBooking(bookingID)["status"])
}

func (s *FulfillmentTestSuite) TestWebhookSignatureRejected() {
	bookingID := s.createBooking()

	payload := map[string]any{
		"event_id":   "evt_bad",
		"event_type": "payment.succeeded",
		"data": map[string]any{
			"intent_id":  "pi_bad",
			"booking_id": bookingID.String(),
		},
	}
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	rec := s.perform(http.MethodPost, "/api/webhooks/payment", body, map[string]string{
		"X-Webhook-Signature": "0000",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("pending", s.getBooking(bookingID)["status"], "rejected delivery must have no side effects")
}

func (s *FulfillmentTestSuite) TestPriceTamperRejected() {
	checkIn := time.Now().AddDate(0, 0, 7)
	checkOut := checkIn.AddDate(0, 0, 3)

	reqBody := map[string]any{
		"room_id":      uuid.New().String(),
		"property_id":  uuid.New().String(),
		"check_in":     checkIn.Format("2006-01-02"),
		"check_out":    checkOut.Format("2006-01-02"),
		"adults":       2,
		"children":     0,
		"guest_name":   "Hanako Yamada",
		"guest_email":  "hanako@example.com",
		"total_amount": 100,
		"currency":     "JPY",
	}

	rec := s.perform(http.MethodPost, "/api/bookings", reqBody, map[string]string{
		"Idempotency-Key": uuid.New().String(),
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}
