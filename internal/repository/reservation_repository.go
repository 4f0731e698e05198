package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
)

// ReservationRepo provides persistence for the `reservations` table.
// Mutating methods are suffixed Tx and operate inside a caller-supplied
// transaction: every step of one booking operation must run on the same
// transaction so that the row/range locks taken by FindOverlappingTx
// remain held across the subsequent insert or cancel. The read-only List
// method runs directly on the pool and only ever sees committed state.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ExistsReservedTx reports whether a reservation with the given ID exists
// in status 'reserved'. A canceled row and a row that never existed are
// deliberately indistinguishable here; both cancel and rebook treat them
// the same. The row, when present, is locked FOR UPDATE so that a
// concurrent cancel or rebook of the same reservation blocks until this
// transaction finishes.
func (r *ReservationRepo) ExistsReservedTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	const q = `SELECT id FROM reservations WHERE id = ? AND status = 'reserved' FOR UPDATE`
	var got uint64
	err := tx.QueryRowContext(ctx, q, id).Scan(&got)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindOverlappingTx reports whether at least one 'reserved' row for the
// given seat and date overlaps the half-open interval [start, end).
// The SQL predicate mirrors model.Interval.Overlaps:
// start_time < end AND end_time > start; equal boundaries do not match,
// so back-to-back bookings pass.
//
// The query is a locking read (SELECT ... FOR UPDATE). InnoDB takes
// exclusive locks on the index records it scans for this seat/date,
// which serializes concurrent booking attempts on the same key range:
// a second transaction probing an overlapping interval blocks here until
// the first commits or rolls back, and then sees its row. This locking
// read, not a serializable isolation level, is what closes the
// check-then-act race between the overlap check and the insert.
//
// excludeID, when non-zero, removes that reservation from consideration;
// the rebook path uses it so the reservation being replaced does not
// collide with its own successor.
func (r *ReservationRepo) FindOverlappingTx(ctx context.Context, tx *sql.Tx, seatID uint64, date string, start, end model.Clock, excludeID uint64) (bool, error) {
	q := `SELECT id FROM reservations
          WHERE seat_id = ? AND reserved_date = ? AND status = 'reserved'
            AND start_time < ? AND end_time > ?`
	args := []interface{}{seatID, date, end.String(), start.String()}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	q += ` LIMIT 1 FOR UPDATE`
	var got uint64
	err := tx.QueryRowContext(ctx, q, args...).Scan(&got)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx creates a new 'reserved' row and returns the fully populated
// entity, querying back the generated ID and created_at (the database
// assigns both).
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, userID, seatID uint64, date string, start, end model.Clock) (*model.Reservation, error) {
	const ins = `INSERT INTO reservations (user_id, seat_id, reserved_date, start_time, end_time, status)
                 VALUES (?, ?, ?, ?, ?, 'reserved')`
	result, err := tx.ExecContext(ctx, ins, userID, seatID, date, start.String(), end.String())
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	const sel = `SELECT id, user_id, seat_id, reserved_date, start_time, end_time, status, created_at
                 FROM reservations WHERE id = ?`
	return scanReservation(tx.QueryRowContext(ctx, sel, uint64(id)))
}

// CancelTx marks the given reservation canceled. The caller is expected
// to have confirmed existence with ExistsReservedTx inside the same
// transaction, so an update touching zero rows indicates a bug rather
// than a routine miss and is surfaced as an error.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	result, err := tx.ExecContext(ctx, `UPDATE reservations SET status = 'canceled' WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cancel reservation %d: no row updated", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReservation reads one reservations row. DATE columns arrive as
// time.Time (the pool opens with parseTime=true), TIME columns as raw
// "HH:mm:ss" strings which are normalized back to "HH:mm".
func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var date time.Time
	var startRaw, endRaw string
	if err := row.Scan(&res.ID, &res.UserID, &res.SeatID, &date, &startRaw, &endRaw, &res.Status, &res.CreatedAt); err != nil {
		return nil, err
	}
	res.ReservedDate = date.Format("2006-01-02")
	start, err := model.ParseClock(startRaw)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: bad start_time: %w", res.ID, err)
	}
	end, err := model.ParseClock(endRaw)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: bad end_time: %w", res.ID, err)
	}
	res.StartTime = start.String()
	res.EndTime = end.String()
	return &res, nil
}
