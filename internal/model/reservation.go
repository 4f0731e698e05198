package model

import "time"

// Reservation statuses. A reservation is created as StatusReserved and the
// only permitted transition is to StatusCanceled; rows are never updated in
// place otherwise and never physically deleted. "Editing" a reservation is
// modeled as cancel-old plus create-new.
const (
	StatusReserved = "reserved"
	StatusCanceled = "canceled"
)

// Reservation records a user's booking of a seat for a time interval on a
// calendar date.
//
// Fields:
//  ID           – primary key identifier, assigned by the database.
//  UserID       – user who made the reservation.
//  SeatID       – seat being reserved.
//  ReservedDate – calendar date in "YYYY-MM-DD" form, no timezone.
//  StartTime    – interval start as "HH:mm" wall-clock time.
//  EndTime      – interval end as "HH:mm"; the interval is half-open,
//                 [StartTime, EndTime), and StartTime < EndTime always.
//  Status       – StatusReserved or StatusCanceled.
//  CreatedAt    – creation timestamp (UTC).
//
// For a fixed seat and date, the intervals of all reservations with
// Status == StatusReserved are pairwise non-overlapping. That invariant is
// enforced at write time by the booking service's locking overlap check,
// not by any stored constraint.
type Reservation struct {
	ID           uint64    `json:"id"`            // reservations.id
	UserID       uint64    `json:"user_id"`       // reservations.user_id
	SeatID       uint64    `json:"seat_id"`       // reservations.seat_id
	ReservedDate string    `json:"reserved_date"` // reservations.reserved_date
	StartTime    string    `json:"start_time"`    // reservations.start_time
	EndTime      string    `json:"end_time"`      // reservations.end_time
	Status       string    `json:"status"`        // reservations.status
	CreatedAt    time.Time `json:"created_at"`    // reservations.created_at
}

// Interval returns the reservation's time range as an Interval value.
// It assumes the stored times are well formed; malformed rows yield a
// zero interval.
func (r *Reservation) Interval() Interval {
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return Interval{}
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return Interval{}
	}
	return Interval{Start: start, End: end}
}
