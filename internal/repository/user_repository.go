package repository

import (
	"context"
	"database/sql"
)

// UserRepo provides read access to the `users` table. The booking flow
// only ever needs an existence check; user management belongs to an
// external system.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// ExistsTx reports whether a user with the given ID exists. The check
// runs inside the supplied transaction so it observes the same snapshot
// as the rest of the enclosing booking operation.
func (r *UserRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
