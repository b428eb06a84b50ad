package handlers

import (
	"errors"
	"net/http"

	"medibook/models"
	"medibook/services/booking"
	"medibook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking engine over HTTP. Every page-level
// caller funnels through these endpoints; none of them touch slot state.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(service booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: service}
}

// StartBooking claims a slot and opens a payment order for it.
func (h *BookingHandler) StartBooking(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := h.Service.StartBooking(c.Request.Context(), req, identity)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetDaySlots lists a provider's slots for one date.
func (h *BookingHandler) GetDaySlots(c *gin.Context) {
	providerID := c.Query("providerId")
	date := c.Query("date")
	if providerID == "" || date == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "providerId and date are required")
		return
	}

	availability, err := h.Service.GetDayAvailability(c.Request.Context(), providerID, date)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

// CancelHold abandons an in-flight booking attempt and frees its slot.
func (h *BookingHandler) CancelHold(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}
	attemptID := c.Param("attemptID")

	if err := h.Service.CancelHold(c.Request.Context(), attemptID); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attemptId": attemptID, "cancelled": true})
}

// respondBookingError maps the service error taxonomy onto HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	var be *booking.BookingError
	if errors.As(err, &be) {
		status := http.StatusBadRequest
		switch be.Code {
		case booking.CodeSlotTaken:
			status = http.StatusConflict
		case booking.CodeSlotExpired:
			status = http.StatusGone
		case booking.CodeSlotNotFound, booking.CodeStaleCallback:
			status = http.StatusNotFound
		case booking.CodeDayClosed:
			status = http.StatusUnprocessableEntity
		case booking.CodeGatewayUnavailable:
			status = http.StatusServiceUnavailable
		case booking.CodeOrderFailed:
			status = http.StatusBadGateway
		}
		c.JSON(status, utils.ErrorResponse{
			Message: be.Message,
			Code:    be.Code,
			Details: retryHint(be),
		})
		return
	}

	var ce *booking.ConsistencyError
	if errors.As(err, &ce) {
		// Loud by design: payment succeeded but the booking did not land.
		utils.GetLogger().Error("consistency violation surfaced to caller", zap.Error(ce))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{
			Message: "payment succeeded but booking failed; support has been signalled",
			Code:    "consistencyViolation",
		})
		return
	}

	getLogger(c).Error("booking request failed", zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, "booking request failed", err.Error())
}

func retryHint(be *booking.BookingError) string {
	if be.RetrySameSlot {
		return "transient failure; the same slot may be retried"
	}
	switch be.Code {
	case booking.CodeSlotTaken, booking.CodeSlotExpired:
		return "pick a different slot"
	}
	return ""
}
