package handlers

import (
	"errors"
	"net/http"

	appointmentRepo "medibook/database/repository/appointment"
	"medibook/services/booking"
	"medibook/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler serves the read paths over confirmed bookings.
type AppointmentHandler struct {
	Service booking.BookingService
}

func NewAppointmentHandler(service booking.BookingService) *AppointmentHandler {
	return &AppointmentHandler{Service: service}
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	appointment, err := h.Service.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		respondBookingError(c, err)
		return
	}
	if appointment.Requester.ID != identity.ID {
		utils.JSONError(c, http.StatusForbidden, "appointment belongs to a different caller", "")
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) ListMyAppointments(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	appointments, err := h.Service.ListAppointments(c.Request.Context(), identity.ID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	appointment, err := h.Service.CancelAppointment(c.Request.Context(), c.Param("id"), identity.ID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}
