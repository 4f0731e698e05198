package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/repository"
)

// newBookingMock wires a BookingService to a sqlmock database. The mock
// is ordered, so every test also asserts the fixed sequencing of checks
// and mutations inside the transaction.
func newBookingMock(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := NewBookingService(db,
		repository.NewUserRepo(db),
		repository.NewSeatRepo(db),
		repository.NewReservationRepo(db),
		nil,
	)
	return svc, mock
}

func clock(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return c
}

func request(t *testing.T, start, end string) BookingRequest {
	t.Helper()
	return BookingRequest{
		UserID:       1,
		SeatID:       10,
		ReservedDate: "2025-07-15",
		Start:        clock(t, start),
		End:          clock(t, end),
	}
}

func expectUserExists(mock sqlmock.Sqlmock, found bool) {
	rows := sqlmock.NewRows([]string{"1"})
	if found {
		rows.AddRow(1)
	}
	mock.ExpectQuery(`SELECT 1 FROM users WHERE id = \? LIMIT 1`).
		WithArgs(uint64(1)).WillReturnRows(rows)
}

func expectSeatExists(mock sqlmock.Sqlmock, found bool) {
	rows := sqlmock.NewRows([]string{"1"})
	if found {
		rows.AddRow(1)
	}
	mock.ExpectQuery(`SELECT 1 FROM seats WHERE id = \? LIMIT 1`).
		WithArgs(uint64(10)).WillReturnRows(rows)
}

// expectOverlap sets up the locking overlap probe. The expected SQL
// asserts both the half-open predicate and the FOR UPDATE clause.
func expectOverlap(mock sqlmock.Sqlmock, start, end string, conflict bool) {
	rows := sqlmock.NewRows([]string{"id"})
	if conflict {
		rows.AddRow(99)
	}
	mock.ExpectQuery(`start_time < \? AND end_time > \?[\s]*LIMIT 1 FOR UPDATE`).
		WithArgs(uint64(10), "2025-07-15", end, start).
		WillReturnRows(rows)
}

func expectOverlapExcluding(mock sqlmock.Sqlmock, start, end string, excludeID uint64, conflict bool) {
	rows := sqlmock.NewRows([]string{"id"})
	if conflict {
		rows.AddRow(99)
	}
	mock.ExpectQuery(`start_time < \? AND end_time > \?[\s]*AND id <> \? LIMIT 1 FOR UPDATE`).
		WithArgs(uint64(10), "2025-07-15", end, start, excludeID).
		WillReturnRows(rows)
}

func expectInsert(mock sqlmock.Sqlmock, id uint64, start, end string) {
	mock.ExpectExec(`INSERT INTO reservations \(user_id, seat_id, reserved_date, start_time, end_time, status\)`).
		WithArgs(uint64(1), uint64(10), "2025-07-15", start, end).
		WillReturnResult(sqlmock.NewResult(int64(id), 1))
	mock.ExpectQuery(`SELECT id, user_id, seat_id, reserved_date, start_time, end_time, status, created_at[\s]*FROM reservations WHERE id = \?`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "seat_id", "reserved_date", "start_time", "end_time", "status", "created_at",
		}).AddRow(id, 1, 10,
			time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
			start+":00", end+":00", model.StatusReserved,
			time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)))
}

func expectExistsReserved(mock sqlmock.Sqlmock, id uint64, found bool) {
	rows := sqlmock.NewRows([]string{"id"})
	if found {
		rows.AddRow(id)
	}
	mock.ExpectQuery(`SELECT id FROM reservations WHERE id = \? AND status = 'reserved' FOR UPDATE`).
		WithArgs(id).WillReturnRows(rows)
}

func expectCancel(mock sqlmock.Sqlmock, id uint64) {
	mock.ExpectExec(`UPDATE reservations SET status = 'canceled' WHERE id = \?`).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreateSuccess(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlap(mock, "14:00", "15:00", false)
	expectInsert(mock, 7, "14:00", "15:00")
	mock.ExpectCommit()

	res, err := svc.Create(context.Background(), request(t, "14:00", "15:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ID != 7 || res.SeatID != 10 || res.ReservedDate != "2025-07-15" ||
		res.StartTime != "14:00" || res.EndTime != "15:00" || res.Status != model.StatusReserved {
		t.Errorf("unexpected reservation: %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCreateUserNotFound(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectUserExists(mock, false)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), request(t, "14:00", "15:00"))
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A missing seat aborts before any mutation: the ordered mock proves the
// transaction rolled back with no insert issued.
func TestCreateSeatNotFound(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectUserExists(mock, true)
	expectSeatExists(mock, false)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), request(t, "14:00", "15:00"))
	if !errors.Is(err, ErrSeatNotFound) {
		t.Fatalf("expected ErrSeatNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCreateSlotConflict(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlap(mock, "14:30", "15:30", true)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), request(t, "14:30", "15:30"))
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// An adjacent interval (starting exactly where an existing one ends) is
// not a conflict; the overlap probe comes back empty and the booking
// commits.
func TestCreateAdjacentSucceeds(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlap(mock, "15:00", "16:00", false)
	expectInsert(mock, 8, "15:00", "16:00")
	mock.ExpectCommit()

	res, err := svc.Create(context.Background(), request(t, "15:00", "16:00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.StartTime != "15:00" || res.EndTime != "16:00" {
		t.Errorf("unexpected interval: %s-%s", res.StartTime, res.EndTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCreateCommitFailure(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlap(mock, "14:00", "15:00", false)
	expectInsert(mock, 7, "14:00", "15:00")
	mock.ExpectCommit().WillReturnError(errors.New("server gone away"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), request(t, "14:00", "15:00"))
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit failure, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCancelSuccess(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectExistsReserved(mock, 7, true)
	expectCancel(mock, 7)
	mock.ExpectCommit()

	if err := svc.Cancel(context.Background(), 7); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Canceling an unknown or already-canceled reservation yields
// ErrReservationNotFound every time and issues no update. The two cases
// share one predicate, so one test covers both.
func TestCancelNotFound(t *testing.T) {
	svc, mock := newBookingMock(t)

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		expectExistsReserved(mock, 42, false)
		mock.ExpectRollback()
	}

	for i := 0; i < 2; i++ {
		if err := svc.Cancel(context.Background(), 42); !errors.Is(err, ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Rebook runs cancel-old strictly before create-new inside one
// transaction; the ordered mock fails if the insert fires first. The old
// reservation is excluded from its own overlap check.
func TestRebookSuccess(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectExistsReserved(mock, 7, true)
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlapExcluding(mock, "16:00", "17:00", 7, false)
	expectCancel(mock, 7)
	expectInsert(mock, 9, "16:00", "17:00")
	mock.ExpectCommit()

	res, err := svc.Rebook(context.Background(), 7, request(t, "16:00", "17:00"))
	if err != nil {
		t.Fatalf("Rebook: %v", err)
	}
	if res.ID != 9 || res.StartTime != "16:00" || res.EndTime != "17:00" || res.Status != model.StatusReserved {
		t.Errorf("unexpected reservation: %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRebookNotFound(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectExistsReserved(mock, 7, false)
	mock.ExpectRollback()

	_, err := svc.Rebook(context.Background(), 7, request(t, "16:00", "17:00"))
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRebookSlotConflictKeepsOld(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectExistsReserved(mock, 7, true)
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlapExcluding(mock, "16:00", "17:00", 7, true)
	mock.ExpectRollback()

	_, err := svc.Rebook(context.Background(), 7, request(t, "16:00", "17:00"))
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	// rollback with no cancel issued: the old reservation stays reserved
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A failure between cancel and insert rolls the whole pair back, so the
// old reservation survives.
func TestRebookInsertFailureRollsBackCancel(t *testing.T) {
	svc, mock := newBookingMock(t)

	mock.ExpectBegin()
	expectExistsReserved(mock, 7, true)
	expectUserExists(mock, true)
	expectSeatExists(mock, true)
	expectOverlapExcluding(mock, "16:00", "17:00", 7, false)
	expectCancel(mock, 7)
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(1), uint64(10), "2025-07-15", "16:00", "17:00").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := svc.Rebook(context.Background(), 7, request(t, "16:00", "17:00"))
	if err == nil || errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected internal failure, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
