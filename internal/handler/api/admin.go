package api

import (
	"errors"
	"net/http"

	"staysync/internal/handler/dto/response"
	"staysync/internal/handler/httperr"
	"staysync/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	commands commands.AdminCommands
}

func NewAdminHandler(cmd commands.AdminCommands) *AdminHandler {
	return &AdminHandler{commands: cmd}
}

// RetryBooking godoc
// @Summary      Manually retry PMS sync for a failed booking
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  httperr.Response
// @Failure      409  {object}  httperr.Response
// @Router       /admin/bookings/{id}/retry [post]
func (h *AdminHandler) RetryBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	err := h.commands.RetryBooking(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, commands.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, commands.ErrNotRetryable):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking is not in a retryable state", nil)
	case errors.Is(err, commands.ErrSyncInProgress):
		httperr.AbortWithError(c, http.StatusConflict, err, "Sync already in progress", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Retry failed", nil)
	}
}

// Reconcile godoc
// @Summary      Sweep bookings stuck mid-saga and re-drive them
// @Tags         admin
// @Produce      json
// @Success      200  {object}  response.ReconcileResponse
// @Router       /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.commands.Reconcile(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Reconciliation failed", nil)
		return
	}
	c.JSON(http.StatusOK, response.FromReconcileReport(report))
}
