package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/service"
)

// ReservationHandler exposes the booking core over HTTP. It parses and
// validates raw input into primitive values, hands them to the service,
// and maps each outcome to exactly one status code. No business logic
// lives here.
type ReservationHandler struct {
	Booking      *service.BookingService     // transactional create/cancel/rebook
	Reservations *repository.ReservationRepo // read-only listing path
}

// NewReservationHandler constructs a ReservationHandler. Both
// dependencies must be non-nil.
func NewReservationHandler(booking *service.BookingService, reservations *repository.ReservationRepo) *ReservationHandler {
	if booking == nil || reservations == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Booking: booking, Reservations: reservations}
}

// bookingBody is the JSON request body for create and rebook.
type bookingBody struct {
	UserID       uint64 `json:"user_id"`
	SeatID       uint64 `json:"seat_id"`
	ReservedDate string `json:"reserved_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// parseBookingRequest binds and validates the request body. All format
// validation happens here, before any transaction opens; the service
// receives only well-formed values. The returned message is suitable for
// a 400 response body.
func parseBookingRequest(c echo.Context) (service.BookingRequest, string) {
	var body bookingBody
	if err := c.Bind(&body); err != nil {
		return service.BookingRequest{}, "invalid request body"
	}
	if body.UserID == 0 {
		return service.BookingRequest{}, "user_id is required"
	}
	if body.SeatID == 0 {
		return service.BookingRequest{}, "seat_id is required"
	}
	if _, err := time.Parse("2006-01-02", body.ReservedDate); err != nil {
		return service.BookingRequest{}, "reserved_date must be YYYY-MM-DD"
	}
	start, err := model.ParseClock(body.StartTime)
	if err != nil {
		return service.BookingRequest{}, "start_time must be HH:mm"
	}
	end, err := model.ParseClock(body.EndTime)
	if err != nil {
		return service.BookingRequest{}, "end_time must be HH:mm"
	}
	if start >= end {
		return service.BookingRequest{}, "start_time must be before end_time"
	}
	return service.BookingRequest{
		UserID:       body.UserID,
		SeatID:       body.SeatID,
		ReservedDate: body.ReservedDate,
		Start:        start,
		End:          end,
	}, ""
}

// bookingError maps a service failure to its HTTP response. Each business
// sentinel has exactly one status; everything else is an internal failure.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, service.ErrSeatNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case errors.Is(err, service.ErrSlotConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot conflict"})
	default:
		log.Printf("handler: booking operation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// Create handles POST /v1/reservations. On success it returns 201 with
// the created entity.
func (h *ReservationHandler) Create(c echo.Context) error {
	req, msg := parseBookingRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	res, err := h.Booking.Create(c.Request().Context(), req)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Cancel handles DELETE /v1/reservations/:id. Canceling an unknown or
// already-canceled reservation yields 404; the two cases are not
// distinguished.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Booking.Cancel(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.StatusCanceled})
}

// Rebook handles PUT /v1/reservations/:id. It atomically replaces the
// reservation with a new one built from the request body and returns the
// replacement with 200.
func (h *ReservationHandler) Rebook(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	req, msg := parseBookingRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	res, err := h.Booking.Rebook(c.Request().Context(), id, req)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/reservations. Query parameters user_id, seat_id,
// from, to and status each narrow the result set; sort=latest orders by
// date and start time descending. Absent parameters impose no
// constraint.
func (h *ReservationHandler) List(c echo.Context) error {
	var f repository.ReservationFilter
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
		}
		f.UserID = id
	}
	if v := c.QueryParam("seat_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_id"})
		}
		f.SeatID = id
	}
	if v := c.QueryParam("from"); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
		}
		f.FromDate = v
	}
	if v := c.QueryParam("to"); v != "" {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
		}
		f.ToDate = v
	}
	if v := c.QueryParam("status"); v != "" {
		if v != model.StatusReserved && v != model.StatusCanceled {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be reserved or canceled"})
		}
		f.Status = v
	}
	f.Latest = c.QueryParam("sort") == "latest"

	items, err := h.Reservations.List(c.Request().Context(), f)
	if err != nil {
		log.Printf("handler: list reservations failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, items)
}
