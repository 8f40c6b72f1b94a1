package request

// PaymentWebhookRequest is the payload the payment gateway posts on
// capture outcomes. The raw body is signature-verified before binding.
type PaymentWebhookRequest struct {
	EventID   string `json:"event_id" binding:"required"`
	EventType string `json:"event_type" binding:"required"`
	Data      struct {
		IntentID          string `json:"intent_id" binding:"required"`
		CheckoutSessionID string `json:"checkout_session_id"`
		BookingID         string `json:"booking_id" binding:"required"`
		Amount            int64  `json:"amount"`
		Currency          string `json:"currency"`
		FailureReason     string `json:"failure_reason"`
	} `json:"data" binding:"required"`
}
