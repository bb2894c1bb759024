package services

import (
	"fmt"
	"time"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

// Rejection reasons returned by ValidateStay, stable codes for the API layer.
const (
	RejectInvalidRange            = "invalid_range"
	RejectPastDate                = "past_date"
	RejectFutureBookingNotAllowed = "future_booking_not_allowed"
	RejectStayTooLong             = "stay_too_long"
)

// Bookings can never be placed further out than one year, regardless of the
// establishment's own per-stay ceiling.
const maxLookaheadDays = 365

// StayRejection is a policy violation, not an infrastructure failure. It is
// always safe to show to the guest.
type StayRejection struct {
	Reason  string
	Message string
}

func (r *StayRejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

// ValidateStay checks a requested stay against an establishment's booking
// policy. Rules run in order and the first failure wins. The caller supplies
// today so the clock stays injectable.
func ValidateStay(est models.Establishment, today, checkIn, checkOut time.Time) *StayRejection {
	today = DateOnly(today)
	checkIn = DateOnly(checkIn)
	checkOut = DateOnly(checkOut)

	if !checkOut.After(checkIn) {
		return &StayRejection{Reason: RejectInvalidRange, Message: "check-out must be after check-in"}
	}
	if checkIn.Before(today) {
		return &StayRejection{Reason: RejectPastDate, Message: "check-in must not be in the past"}
	}
	if !est.AllowFutureBookings && !checkIn.Equal(today) {
		return &StayRejection{Reason: RejectFutureBookingNotAllowed, Message: "this establishment only accepts same-day bookings"}
	}

	nights := NightsBetween(checkIn, checkOut)
	if nights > est.MaxBookingDays {
		return &StayRejection{
			Reason:  RejectStayTooLong,
			Message: fmt.Sprintf("stay of %d nights exceeds the maximum of %d", nights, est.MaxBookingDays),
		}
	}

	if est.AllowFutureBookings {
		// Double cap: the stay limit and the one-year look-ahead must both hold.
		horizon := checkIn.AddDate(0, 0, est.MaxBookingDays)
		if yearCap := today.AddDate(0, 0, maxLookaheadDays); yearCap.Before(horizon) {
			horizon = yearCap
		}
		if checkOut.After(horizon) {
			return &StayRejection{
				Reason:  RejectStayTooLong,
				Message: "check-out is beyond the bookable horizon",
			}
		}
	}

	return nil
}

// DateOnly truncates a timestamp to its calendar day in UTC. All stay
// arithmetic happens on whole days.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween returns the whole-day difference between two dates, the
// billing unit for room rate and per-night options.
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours() / 24)
}
