package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
	"github.com/Guillaumeperrottet/selfkey-sub000/services"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

const dateLayout = "2006-01-02"

type AvailabilityController struct {
	Establishments *services.EstablishmentService
	Availability   *services.AvailabilityService

	// Injected clock, UTC wall time in production.
	Now func() time.Time
}

func NewAvailabilityController(est *services.EstablishmentService, avail *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		Establishments: est,
		Availability:   avail,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

type availableRoomResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// GetAvailability handles GET /establishments/:slug/availability.
// Validates the requested dates against the establishment's policy and
// returns the bookable rooms; an empty list carries an explicit message
// instead of being an error.
func (ac *AvailabilityController) GetAvailability(c *gin.Context) {
	est, ok := loadEstablishment(c, ac.Establishments)
	if !ok {
		return
	}

	checkIn, err := time.Parse(dateLayout, c.Query("check_in"))
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_date", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, c.Query("check_out"))
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_date", "check_out must be YYYY-MM-DD")
		return
	}

	if rej := services.ValidateStay(*est, ac.Now(), checkIn, checkOut); rej != nil {
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, rej.Reason, rej.Message)
		return
	}

	available, err := ac.Availability.FindAvailable(est.ID, checkIn, checkOut)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to resolve availability")
		return
	}

	rooms := make([]availableRoomResponse, 0, len(available))
	for _, a := range available {
		rooms = append(rooms, availableRoomResponse{ID: a.Room.ID, Name: a.Room.Name, Price: a.NightlyPrice})
	}

	payload := gin.H{"rooms": rooms}
	if len(rooms) == 0 {
		payload["message"] = "no rooms available for these dates"
	}
	utils.JSONSuccess(c, http.StatusOK, payload)
}

// loadEstablishment resolves the :slug param, answering 404 itself when the
// establishment does not exist.
func loadEstablishment(c *gin.Context, svc *services.EstablishmentService) (*models.Establishment, bool) {
	e, err := svc.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrEstablishmentNotFound) {
			utils.JSONErrorCode(c, http.StatusNotFound, "establishment_not_found", "unknown establishment")
		} else {
			utils.JSONError(c, http.StatusInternalServerError, "failed to load establishment")
		}
		return nil, false
	}
	return e, true
}
