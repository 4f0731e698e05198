package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/queue"
	"github.com/iliyamo/seat-booking/internal/repository"
)

// BookingRequest carries the already-validated primitive values for one
// booking attempt. The HTTP layer parses and validates user input
// (positive IDs, well-formed date, Start < End) before constructing one;
// the service never re-validates formats. The value lives only for the
// duration of a single call and is never persisted.
type BookingRequest struct {
	UserID       uint64
	SeatID       uint64
	ReservedDate string // "YYYY-MM-DD"
	Start        model.Clock
	End          model.Clock
}

// EventPublisher publishes reservation lifecycle events after a
// successful commit. Publishing is best-effort: failures are logged and
// never affect the outcome of the booking operation. A nil publisher
// disables events.
type EventPublisher interface {
	ReservationBooked(ctx context.Context, evt queue.ReservationBookedEvent) error
	ReservationCanceled(ctx context.Context, evt queue.ReservationCanceledEvent) error
}

// BookingService sequences existence checks, the locking overlap check
// and the mutation of one booking operation inside a single database
// transaction. The *sql.DB handle is constructed at startup and passed
// in explicitly; each call owns its transaction exclusively for the
// call's whole duration. Correctness under concurrency is delegated
// entirely to the row/range locks taken by the repository's
// FindOverlappingTx; there is no in-process mutex, so the guarantee
// holds across multiple service instances sharing one database.
type BookingService struct {
	db           *sql.DB
	users        *repository.UserRepo
	seats        *repository.SeatRepo
	reservations *repository.ReservationRepo
	publisher    EventPublisher
}

// NewBookingService constructs a BookingService. db and the three
// repositories must be non-nil; publisher may be nil to disable events.
func NewBookingService(db *sql.DB, users *repository.UserRepo, seats *repository.SeatRepo, reservations *repository.ReservationRepo, publisher EventPublisher) *BookingService {
	if db == nil || users == nil || seats == nil || reservations == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		db:           db,
		users:        users,
		seats:        seats,
		reservations: reservations,
		publisher:    publisher,
	}
}

// rollback reverts tx and logs a failure instead of returning it: the
// error already chosen for the caller always wins over a secondary
// rollback problem.
func rollback(tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		log.Printf("booking: rollback failed: %v", rbErr)
	}
}

// Create books a seat for the requested interval. Check order is fixed:
// user existence, seat existence, then the locking overlap check, then
// the insert. The overlap check's locks stay held until commit, so two
// concurrent creates for overlapping intervals on the same seat/date
// serialize and exactly one succeeds; the other sees the committed row
// and fails with ErrSlotConflict. No step is ever retried.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*model.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			rollback(tx)
		}
	}()

	ok, err := s.users.ExistsTx(ctx, tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	ok, err = s.seats.ExistsTx(ctx, tx, req.SeatID)
	if err != nil {
		return nil, fmt.Errorf("check seat: %w", err)
	}
	if !ok {
		return nil, ErrSeatNotFound
	}
	conflict, err := s.reservations.FindOverlappingTx(ctx, tx, req.SeatID, req.ReservedDate, req.Start, req.End, 0)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if conflict {
		return nil, ErrSlotConflict
	}
	res, err := s.reservations.InsertTx(ctx, tx, req.UserID, req.SeatID, req.ReservedDate, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	s.publishBooked(ctx, res)
	return res, nil
}

// Cancel marks the reservation canceled. Canceling an unknown or
// already-canceled ID yields ErrReservationNotFound and changes nothing.
func (s *BookingService) Cancel(ctx context.Context, id uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			rollback(tx)
		}
	}()

	ok, err := s.reservations.ExistsReservedTx(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("check reservation: %w", err)
	}
	if !ok {
		return ErrReservationNotFound
	}
	if err := s.reservations.CancelTx(ctx, tx, id); err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true

	s.publishCanceled(ctx, id)
	return nil
}

// Rebook atomically replaces reservation id with a new one built from
// req: cancel-old then create-new inside one transaction, all or
// nothing. The old reservation is excluded from its own overlap check so
// the replacement may reuse or abut the slot being given up. If any
// step after the cancel fails, the rollback restores the old
// reservation to 'reserved'.
func (s *BookingService) Rebook(ctx context.Context, id uint64, req BookingRequest) (*model.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			rollback(tx)
		}
	}()

	ok, err := s.reservations.ExistsReservedTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("check reservation: %w", err)
	}
	if !ok {
		return nil, ErrReservationNotFound
	}
	ok, err = s.users.ExistsTx(ctx, tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	ok, err = s.seats.ExistsTx(ctx, tx, req.SeatID)
	if err != nil {
		return nil, fmt.Errorf("check seat: %w", err)
	}
	if !ok {
		return nil, ErrSeatNotFound
	}
	conflict, err := s.reservations.FindOverlappingTx(ctx, tx, req.SeatID, req.ReservedDate, req.Start, req.End, id)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if conflict {
		return nil, ErrSlotConflict
	}
	if err := s.reservations.CancelTx(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("cancel old reservation: %w", err)
	}
	res, err := s.reservations.InsertTx(ctx, tx, req.UserID, req.SeatID, req.ReservedDate, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("insert new reservation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	s.publishCanceled(ctx, id)
	s.publishBooked(ctx, res)
	return res, nil
}

func (s *BookingService) publishBooked(ctx context.Context, res *model.Reservation) {
	if s.publisher == nil {
		return
	}
	evt := queue.ReservationBookedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		SeatID:        res.SeatID,
		ReservedDate:  res.ReservedDate,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		BookedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.ReservationBooked(ctx, evt); err != nil {
		log.Printf("booking: publish booked event failed: %v", err)
	}
}

func (s *BookingService) publishCanceled(ctx context.Context, id uint64) {
	if s.publisher == nil {
		return
	}
	evt := queue.ReservationCanceledEvent{
		ReservationID: id,
		CanceledAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.ReservationCanceled(ctx, evt); err != nil {
		log.Printf("booking: publish canceled event failed: %v", err)
	}
}
