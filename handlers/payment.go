package handlers

import (
	"net/http"

	"medibook/models"
	"medibook/services/booking"
	"medibook/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler receives the gateway's asynchronous outcome callbacks and
// feeds them into the booking lifecycle.
type PaymentHandler struct {
	Service booking.BookingService
}

func NewPaymentHandler(service booking.BookingService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

// PaymentSucceeded finalizes a booking after a successful charge. Replays
// are safe: a confirmed attempt returns its existing appointment.
func (h *PaymentHandler) PaymentSucceeded(c *gin.Context) {
	var cb models.PaymentSuccessCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid callback payload", err.Error())
		return
	}

	appointment, err := h.Service.ConfirmPayment(c.Request.Context(), cb)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

// PaymentFailed releases the held slot after a declined charge.
func (h *PaymentHandler) PaymentFailed(c *gin.Context) {
	var cb models.PaymentFailureCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid callback payload", err.Error())
		return
	}

	if err := h.Service.FailPayment(c.Request.Context(), cb); err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attemptId": cb.AttemptID, "released": true})
}
