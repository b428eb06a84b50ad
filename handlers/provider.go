package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	providerRepo "medibook/database/repository/provider"
	"medibook/models"
	"medibook/utils"

	"github.com/gin-gonic/gin"
)

// ProviderHandler serves the provider read path and the weekly-hours setup
// used to publish bookable days.
type ProviderHandler struct {
	Repo providerRepo.ProviderRepository
}

func NewProviderHandler(repo providerRepo.ProviderRepository) *ProviderHandler {
	return &ProviderHandler{Repo: repo}
}

func (h *ProviderHandler) GetProvider(c *gin.Context) {
	provider, err := h.Repo.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			utils.JSONError(c, http.StatusNotFound, "provider not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch provider", err.Error())
		return
	}
	c.JSON(http.StatusOK, provider)
}

// SetupWeeklyHoursRequest publishes a provider's bookable days and hours.
type SetupWeeklyHoursRequest struct {
	Availability map[string]bool               `json:"availability" binding:"required"`
	WeeklyHours  map[string]models.WeeklyHours `json:"weeklyHours" binding:"required"`
}

func (h *ProviderHandler) SetupWeeklyHours(c *gin.Context) {
	var req SetupWeeklyHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if err := validateWeeklyHours(req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid weekly hours", err.Error())
		return
	}

	providerID := c.Param("id")
	if err := h.Repo.UpdateWeeklyHours(providerID, req.Availability, req.WeeklyHours); err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			utils.JSONError(c, http.StatusNotFound, "provider not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to update weekly hours", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"providerId": providerID, "updated": true})
}

func validateWeeklyHours(req SetupWeeklyHoursRequest) error {
	for day := range req.Availability {
		if !validWeekday(day) {
			return fmt.Errorf("unknown weekday %q in availability", day)
		}
	}
	for day, hours := range req.WeeklyHours {
		if !validWeekday(day) {
			return fmt.Errorf("unknown weekday %q in weeklyHours", day)
		}
		if hours.Day != day {
			return fmt.Errorf("weeklyHours entry %q names day %q", day, hours.Day)
		}
		if hours.StartMinute < 0 || hours.EndMinute > 24*60 || hours.StartMinute >= hours.EndMinute {
			return fmt.Errorf("invalid hours for %s: start %d, end %d", day, hours.StartMinute, hours.EndMinute)
		}
		if hours.SlotIntervalMinutes <= 0 {
			return fmt.Errorf("invalid slot interval for %s: %d", day, hours.SlotIntervalMinutes)
		}
	}
	return nil
}

func validWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}
