package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/seat-booking/internal/model"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return tx
}

func clk(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return c
}

// The overlap probe must be a locking read with the half-open predicate:
// start_time strictly below the probe's end and end_time strictly above
// its start, restricted to 'reserved' rows of one seat/date, FOR UPDATE.
func TestFindOverlappingTxQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery(`SELECT id FROM reservations[\s]*WHERE seat_id = \? AND reserved_date = \? AND status = 'reserved'[\s]*AND start_time < \? AND end_time > \? LIMIT 1 FOR UPDATE`).
		WithArgs(uint64(10), "2025-07-15", "15:30", "14:30").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	found, err := repo.FindOverlappingTx(context.Background(), tx, 10, "2025-07-15", clk(t, "14:30"), clk(t, "15:30"), 0)
	if err != nil {
		t.Fatalf("FindOverlappingTx: %v", err)
	}
	if !found {
		t.Error("expected overlap to be reported")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestFindOverlappingTxExcludesReservation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery(`AND start_time < \? AND end_time > \?[\s]*AND id <> \? LIMIT 1 FOR UPDATE`).
		WithArgs(uint64(10), "2025-07-15", "17:00", "16:00", uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindOverlappingTx(context.Background(), tx, 10, "2025-07-15", clk(t, "16:00"), clk(t, "17:00"), 7)
	if err != nil {
		t.Fatalf("FindOverlappingTx: %v", err)
	}
	if found {
		t.Error("expected no overlap once the old reservation is excluded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCancelTxNoRowUpdated(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`UPDATE reservations SET status = 'canceled' WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.CancelTx(context.Background(), tx, 42); err == nil {
		t.Error("expected error when no row was updated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

var listColumns = []string{
	"id", "user_id", "name", "seat_id", "name", "reserved_date",
	"start_time", "end_time", "status", "created_at",
}

func TestListAllFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(`WHERE 1=1 AND r\.user_id = \? AND r\.seat_id = \? AND r\.reserved_date >= \? AND r\.reserved_date <= \? AND r\.status = \? ORDER BY r\.reserved_date DESC, r\.start_time DESC`).
		WithArgs(uint64(1), uint64(10), "2025-07-01", "2025-07-31", model.StatusReserved).
		WillReturnRows(sqlmock.NewRows(listColumns).
			AddRow(7, 1, "dana", 10, "A-1",
				time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
				"14:00:00", "15:00:00", "reserved",
				time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)))

	items, err := repo.List(context.Background(), ReservationFilter{
		UserID:   1,
		SeatID:   10,
		FromDate: "2025-07-01",
		ToDate:   "2025-07-31",
		Status:   model.StatusReserved,
		Latest:   true,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.UserName != "dana" || got.SeatName != "A-1" {
		t.Errorf("unexpected names: %q %q", got.UserName, got.SeatName)
	}
	if got.ReservedDate != "2025-07-15" {
		t.Errorf("ReservedDate = %q, want 2025-07-15", got.ReservedDate)
	}
	if got.StartTime != "14:00" || got.EndTime != "15:00" {
		t.Errorf("times = %q-%q, want 14:00-15:00", got.StartTime, got.EndTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// With no filters the statement carries no extra predicates and no ORDER
// BY, and an empty result comes back as an empty slice, not nil.
func TestListUnfiltered(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(`JOIN seats s ON s\.id = r\.seat_id[\s]*WHERE 1=1$`).
		WillReturnRows(sqlmock.NewRows(listColumns))

	items, err := repo.List(context.Background(), ReservationFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestListSingleFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(`WHERE 1=1 AND r\.seat_id = \?$`).
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(listColumns))

	if _, err := repo.List(context.Background(), ReservationFilter{SeatID: 10}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
