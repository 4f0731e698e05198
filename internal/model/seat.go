package model

import "time"

// Seat describes a bookable seat. Like User, it is referenced-only:
// the booking core checks existence and joins the display name into
// listings, nothing more.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name (e.g. "A-12", "Desk 4").
//  CreatedAt – timestamp of creation.
type Seat struct {
	ID        uint64    // seats.id
	Name      string    // seats.name
	CreatedAt time.Time // seats.created_at
}
