// Package service implements the transactional booking core. This file
// defines the sentinel errors that classify business failures. Handlers
// compare against them with errors.Is and translate each into exactly
// one HTTP status; anything else coming out of the service is an
// internal failure and maps to 500.
package service

import "errors"

// ErrUserNotFound is returned when the referenced user does not exist.
// Maps to HTTP 404.
var ErrUserNotFound = errors.New("user not found")

// ErrSeatNotFound is returned when the referenced seat does not exist.
// Maps to HTTP 404.
var ErrSeatNotFound = errors.New("seat not found")

// ErrReservationNotFound is returned by cancel and rebook when no
// reservation in status 'reserved' carries the given ID. It covers both
// "never existed" and "already canceled"; the two cases are
// indistinguishable on purpose. Maps to HTTP 404.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrSlotConflict is returned when the requested interval overlaps an
// existing 'reserved' interval for the same seat and date. It is a
// definitive business outcome, never retried; the caller must pick
// another slot. Maps to HTTP 409.
var ErrSlotConflict = errors.New("slot conflict")
