package repository

import (
	"context"
	"database/sql"
)

// SeatRepo provides read access to the `seats` table. Seats are
// referenced-only entities; the booking flow checks existence and the
// listing path joins the seat name, nothing else.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// ExistsTx reports whether a seat with the given ID exists, within the
// supplied transaction.
func (r *SeatRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
