package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"staysync/internal/handler/dto/request"
	"staysync/internal/handler/httperr"
	"staysync/internal/infra/paygate"
	"staysync/internal/pkg/config"
	"staysync/internal/pkg/errs"
	"staysync/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const signatureHeader = "X-Webhook-Signature"

type WebhookHandler struct {
	commands commands.WebhookCommands
	secret   string
}

func NewWebhookHandler(cmd commands.WebhookCommands, cfg config.WebhookConfig) *WebhookHandler {
	return &WebhookHandler{commands: cmd, secret: cfg.Secret}
}

// HandlePaymentEvent godoc
// @Summary      Ingest a payment gateway webhook
// @Description  Verifies the HMAC signature over the raw body, then processes the event. Invalid signatures are rejected with no side effects.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Signature  header  string  true  "hex HMAC-SHA256 of the raw body"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  httperr.Response
// @Router       /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Failed to read request body", nil)
		return
	}

	// Signature is computed over the raw bytes, so verify before any parsing.
	if !paygate.VerifySignature(h.secret, body, c.GetHeader(signatureHeader)) {
		err := errs.New("webhook signature mismatch")
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid signature", nil)
		return
	}

	var req request.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid webhook payload", nil)
		return
	}

	ev, err := toPaymentEvent(req)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid webhook payload", err.Error())
		return
	}

	if err := h.commands.HandleEvent(c.Request.Context(), ev); err != nil {
		h.respondEventError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) respondEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrUnknownEventType),
		errors.Is(err, commands.ErrEventInvalid):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unprocessable event", nil)
	case errors.Is(err, commands.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found for event", nil)
	default:
		// 5xx tells the gateway to redeliver; processing is idempotent.
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to process event", nil)
	}
}

func toPaymentEvent(req request.PaymentWebhookRequest) (commands.PaymentEvent, error) {
	bookingID, err := uuid.Parse(req.Data.BookingID)
	if err != nil {
		return commands.PaymentEvent{}, errs.Wrap(err, "invalid booking_id in event")
	}

	var checkoutSessionID *string
	if req.Data.CheckoutSessionID != "" {
		checkoutSessionID = &req.Data.CheckoutSessionID
	}

	return commands.PaymentEvent{
		Type:              req.EventType,
		PaymentIntentID:   req.Data.IntentID,
		CheckoutSessionID: checkoutSessionID,
		Amount:            req.Data.Amount,
		Currency:          req.Data.Currency,
		BookingID:         bookingID,
		FailureReason:     req.Data.FailureReason,
		OccurredAt:        time.Now().UTC(),
	}, nil
}
