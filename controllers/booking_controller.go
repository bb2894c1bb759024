package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Guillaumeperrottet/selfkey-sub000/services"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateBookingRequest struct {
	RoomID   uint   `json:"room_id" binding:"required"`
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`

	Adults   int `json:"adults"`
	Children int `json:"children"`

	GuestName  string `json:"guest_name" binding:"required"`
	GuestEmail string `json:"guest_email" binding:"required,email"`
	GuestPhone string `json:"guest_phone"`

	SelectedOptionValues []uint `json:"selected_option_values"`

	// The total the client showed the guest; rejected on disagreement with
	// the server-side computation.
	ExpectedPrice *float64 `json:"expected_price" binding:"required"`
}

type ConfirmBookingRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	Establishments *services.EstablishmentService
	Lifecycle      *services.BookingLifecycle
}

func NewBookingController(est *services.EstablishmentService, lifecycle *services.BookingLifecycle) *BookingController {
	return &BookingController{Establishments: est, Lifecycle: lifecycle}
}

// CreateBooking handles POST /establishments/:slug/bookings: the full
// validate -> price -> reserve pipeline. Losing the race for the room is a
// 409 the client resolves by re-fetching availability.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	est, ok := loadEstablishment(c, bc.Establishments)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_date", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_date", "check_out must be YYYY-MM-DD")
		return
	}

	booking, breakdown, err := bc.Lifecycle.PlaceBooking(c.Request.Context(), services.BookingRequest{
		Establishment:    *est,
		RoomID:           req.RoomID,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Adults:           req.Adults,
		Children:         req.Children,
		GuestName:        req.GuestName,
		GuestEmail:       req.GuestEmail,
		GuestPhone:       req.GuestPhone,
		SelectedValueIDs: req.SelectedOptionValues,
		ExpectedPrice:    req.ExpectedPrice,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusCreated, gin.H{
		"bookingId":      booking.ID,
		"referenceCode":  booking.ReferenceCode,
		"computedAmount": booking.Amount,
		"breakdown":      breakdown,
	})
}

// GetBooking handles GET /bookings/:reference.
func (bc *BookingController) GetBooking(c *gin.Context) {
	booking, err := bc.Lifecycle.Ledger.GetByReference(c.Param("reference"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// ConfirmBooking handles POST /bookings/:reference/confirm, the
// payment-success webhook target.
func (bc *BookingController) ConfirmBooking(c *gin.Context) {
	var req ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	booking, err := bc.Lifecycle.ConfirmPayment(c.Param("reference"), req.PaymentReference)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// CancelBooking handles POST /bookings/:reference/cancel. Idempotent.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	booking, err := bc.Lifecycle.CancelBooking(c.Param("reference"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// respondBookingError maps the service error taxonomy onto HTTP statuses.
func respondBookingError(c *gin.Context, err error) {
	var rejection *services.StayRejection
	var selection *services.SelectionError

	switch {
	case errors.As(err, &rejection):
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, rejection.Reason, rejection.Message)
	case errors.As(err, &selection):
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, "invalid_selection", selection.Error())
	case errors.Is(err, services.ErrRoomNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "room_not_found", "room not found or inactive")
	case errors.Is(err, services.ErrBookingNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "booking_not_found", "booking not found")
	case errors.Is(err, services.ErrRoomConflict):
		utils.JSONErrorCode(c, http.StatusConflict, "room_conflict", "the room is no longer available for these dates")
	case errors.Is(err, services.ErrPriceMismatch):
		utils.JSONErrorCode(c, http.StatusConflict, "price_mismatch", "the quoted price no longer matches the server-computed total")
	case errors.Is(err, services.ErrAlreadyTerminal):
		utils.JSONErrorCode(c, http.StatusConflict, "already_terminal", "booking is no longer pending")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "internal error")
	}
}
