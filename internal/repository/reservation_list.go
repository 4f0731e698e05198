package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
)

// ReservationFilter narrows the listing result set. Zero values mean
// "no constraint"; every supplied filter is combined with AND, never OR.
// Dates are "YYYY-MM-DD" strings, Status one of model.StatusReserved /
// model.StatusCanceled. Latest, when set, orders results newest slot
// first (reserved_date DESC, start_time DESC); when unset the row order
// is whatever the database returns and callers must not rely on it.
type ReservationFilter struct {
	UserID   uint64
	SeatID   uint64
	FromDate string
	ToDate   string
	Status   string
	Latest   bool
}

// ReservationDetail is one listing row: the reservation joined with the
// display names of the referenced user and seat.
type ReservationDetail struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	UserName     string    `json:"user_name"`
	SeatID       uint64    `json:"seat_id"`
	SeatName     string    `json:"seat_name"`
	ReservedDate string    `json:"reserved_date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// List returns reservations matching the filter, joined with user and
// seat names. It runs on the pool, outside any transaction, and thus
// always reads the latest committed state. When nothing matches it
// returns an empty slice.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]ReservationDetail, error) {
	q := `SELECT r.id, r.user_id, u.name, r.seat_id, s.name,
                 r.reserved_date, r.start_time, r.end_time, r.status, r.created_at
          FROM reservations r
          JOIN users u ON u.id = r.user_id
          JOIN seats s ON s.id = r.seat_id
          WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if f.UserID != 0 {
		q += ` AND r.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.SeatID != 0 {
		q += ` AND r.seat_id = ?`
		args = append(args, f.SeatID)
	}
	if f.FromDate != "" {
		q += ` AND r.reserved_date >= ?`
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		q += ` AND r.reserved_date <= ?`
		args = append(args, f.ToDate)
	}
	if f.Status != "" {
		q += ` AND r.status = ?`
		args = append(args, f.Status)
	}
	if f.Latest {
		q += ` ORDER BY r.reserved_date DESC, r.start_time DESC`
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var date time.Time
		var startRaw, endRaw string
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.UserName, &d.SeatID, &d.SeatName,
			&date, &startRaw, &endRaw, &d.Status, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.ReservedDate = date.Format("2006-01-02")
		start, err := model.ParseClock(startRaw)
		if err != nil {
			return nil, fmt.Errorf("reservation %d: bad start_time: %w", d.ID, err)
		}
		end, err := model.ParseClock(endRaw)
		if err != nil {
			return nil, fmt.Errorf("reservation %d: bad end_time: %w", d.ID, err)
		}
		d.StartTime = start.String()
		d.EndTime = end.String()
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
