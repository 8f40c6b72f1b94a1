package api

import (
	"errors"
	"net/http"

	"staysync/internal/handler/dto/request"
	"staysync/internal/handler/dto/response"
	"staysync/internal/handler/httperr"
	"staysync/internal/infra"
	"staysync/internal/pkg/errs"
	"staysync/internal/usecase/commands"
	"staysync/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	commands commands.BookingCommands
	queries  queries.BookingQueries
}

func NewBookingHandler(cmd commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{commands: cmd, queries: q}
}

// CreateBooking godoc
// @Summary      Create a booking
// @Description  Creates a booking in PENDING after re-verifying the submitted total against current rates. Requires an Idempotency-Key header (UUID).
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                        true  "UUID idempotency key"
// @Param        request          body      request.CreateBookingRequest  true  "booking payload"
// @Success      201  {object}  response.CreateBookingResponse
// @Success      200  {object}  response.CreateBookingResponse  "replayed from an earlier identical request"
// @Failure      400  {object}  httperr.Response
// @Failure      409  {object}  httperr.Response
// @Failure      422  {object}  httperr.Response
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	key, ok := getIdempotencyKey(c)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request body", err.Error())
		return
	}

	checkIn, err := req.CheckInDate()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid check_in date", nil)
		return
	}
	checkOut, err := req.CheckOutDate()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid check_out date", nil)
		return
	}

	params := commands.CreateBookingParams{
		RoomID:      req.RoomID,
		PropertyID:  req.PropertyID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Adults:      req.Adults,
		Children:    req.Children,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
	}

	result, err := h.commands.CreateBooking(c.Request.Context(), params, key)
	if err != nil {
		h.respondCreateError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, response.CreateBookingResponse{BookingID: result.BookingID, Status: "pending"})
}

func (h *BookingHandler) respondCreateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrInvalidStay),
		errors.Is(err, commands.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking parameters", err.Error())
	case errors.Is(err, commands.ErrPriceMismatch):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Submitted total does not match current rates", nil)
	case errors.Is(err, commands.ErrRateUnavailable):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Rates temporarily unavailable", nil)
	case errors.Is(err, commands.ErrDuplicateRequest):
		httperr.AbortWithError(c, http.StatusConflict, err, "Idempotency key reused with different parameters", nil)
	case errors.Is(err, commands.ErrIdempotencyInProgress):
		httperr.AbortWithError(c, http.StatusConflict, err, "Request with this idempotency key is still processing", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to create booking", nil)
	}
}

// GetBooking godoc
// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  response.BookingResponse
// @Failure      404  {object}  httperr.Response
// @Router       /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to get booking", nil)
		return
	}
	c.JSON(http.StatusOK, response.FromBookingView(view))
}

// ListSyncAttempts godoc
// @Summary      List PMS sync attempts for a booking
// @Tags         bookings
// @Produce      json
// @Param        id   path      string  true  "booking id"
// @Success      200  {array}   response.SyncAttemptResponse
// @Router       /bookings/{id}/attempts [get]
func (h *BookingHandler) ListSyncAttempts(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	views, err := h.queries.ListSyncAttempts(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to list sync attempts", nil)
		return
	}
	c.JSON(http.StatusOK, response.FromSyncAttemptViews(views))
}

func getIdempotencyKey(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("Idempotency-Key")
	if raw == "" {
		err := errs.New("missing Idempotency-Key header")
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Idempotency-Key header is required", nil)
		return uuid.Nil, false
	}
	key, err := uuid.Parse(raw)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Idempotency-Key must be a UUID", nil)
		return uuid.Nil, false
	}
	return key, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
