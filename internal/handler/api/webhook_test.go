//go:build unit

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"staysync/internal/handler/api"
	"staysync/internal/infra/paygate"
	"staysync/internal/pkg/config"
	"staysync/internal/usecase/commands"
	commandsmock "staysync/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const testWebhookSecret = "test-webhook-secret"

type WebhookHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockWebhookCommands
	handler      *api.WebhookHandler
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockWebhookCommands(s.mockCtrl)
	s.handler = api.NewWebhookHandler(s.mockCommands, config.WebhookConfig{Secret: testWebhookSecret})

	s.router.POST("/webhooks/payment", s.handler.HandlePaymentEvent)
}

func (s *WebhookHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) deliver(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *WebhookHandlerTestSuite) validPayload(bookingID uuid.UUID) []byte {
	payload := map[string]any{
		"event_id":   "evt_1",
		"event_type": "payment.succeeded",
		"data": map[string]any{
			"intent_id":  "pi_123",
			"booking_id": bookingID.String(),
			"amount":     15000,
			"currency":   "JPY",
		},
	}
	body, err := json.Marshal(payload)
	s.Require().NoError(err)
	return body
}

func (s *WebhookHandlerTestSuite) TestHandlePaymentEvent() {
	s.Run("success: valid signature and payload", func() {
		bookingID := uuid.New()
		body := s.validPayload(bookingID)

		s.mockCommands.EXPECT().
			HandleEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, ev commands.PaymentEvent) error {
				s.Equal(commands.EventPaymentSucceeded, ev.Type)
				s.Equal("pi_123", ev.PaymentIntentID)
				s.Equal(bookingID, ev.BookingID)
				s.Equal(int64(15000), ev.Amount)
				return nil
			}).Times(1)

		rec := s.deliver(body, paygate.Sign(testWebhookSecret, body))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("error: 400 on invalid signature with no side effects", func() {
		body := s.validPayload(uuid.New())
		rec := s.deliver(body, "deadbeef")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 on missing signature", func() {
		body := s.validPayload(uuid.New())
		rec := s.deliver(body, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 on signed but malformed payload", func() {
		body := []byte(`{"event_type":`)
		rec := s.deliver(body, paygate.Sign(testWebhookSecret, body))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 on signed payload with invalid booking id", func() {
		payload := map[string]any{
			"event_id":   "evt_2",
			"event_type": "payment.succeeded",
			"data": map[string]any{
				"intent_id":  "pi_123",
				"booking_id": "not-a-uuid",
			},
		}
		body, err := json.Marshal(payload)
		s.Require().NoError(err)

		rec := s.deliver(body, paygate.Sign(testWebhookSecret, body))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 400 on unknown event type", func() {
		body := s.validPayload(uuid.New())

		s.mockCommands.EXPECT().
			HandleEvent(gomock.Any(), gomock.Any()).
			Return(commands.ErrUnknownEventType).Times(1)

		rec := s.deliver(body, paygate.Sign(testWebhookSecret, body))
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("error: 500 tells the gateway to redeliver", func() {
		body := s.validPayload(uuid.New())

		s.mockCommands.EXPECT().
			HandleEvent(gomock.Any(), gomock.Any()).
			Return(commands.ErrRefundFailed).Times(1)

		rec := s.deliver(body, paygate.Sign(testWebhookSecret, body))
		s.Equal(http.StatusInternalServerError, rec.Code)
	})
}
