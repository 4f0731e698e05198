// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// ReservationBookedEvent is published after a reservation commits, both on
// the create and the rebook path. It carries enough for downstream
// consumers to log or notify without querying the primary database.
type ReservationBookedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	SeatID        uint64 `json:"seat_id"`
	ReservedDate  string `json:"reserved_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BookedAt      string `json:"booked_at"`
}

// ReservationCanceledEvent is published after a cancel commits, and for
// the replaced reservation on the rebook path.
type ReservationCanceledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	CanceledAt    string `json:"canceled_at"`
}
