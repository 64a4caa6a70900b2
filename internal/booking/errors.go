// Package booking implements the reservation engine and the
// payment/cancellation state machine for flight bookings.  This file
// defines the error taxonomy shared by the service, the persistence layer
// and the HTTP handlers.  Every precondition failure maps to exactly one
// sentinel so handlers never collapse distinct causes into a catch-all.
package booking

import (
    "errors"
    "fmt"
    "strings"
)

// ErrFlightNotFound is returned when the flight does not exist or is not
// in ACTIVE status.
var ErrFlightNotFound = errors.New("flight not found")

// ErrBookingNotFound is returned when a booking cannot be located by ID
// or by (reference, email) pair.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInsufficientSeats is returned when the flight's available seat
// counter is smaller than the number of passengers requested.
var ErrInsufficientSeats = errors.New("not enough available seats")

// ErrInvalidSeatSelection is returned when a requested seat falls outside
// the flight's seat grid, when the seat list does not line up with the
// passenger list, or when the same seat is requested twice in one booking.
var ErrInvalidSeatSelection = errors.New("invalid seat selection")

// ErrSeatConflict is the sentinel matched by errors.Is for seat conflicts.
// The concrete error carries the conflicting seat codes; see SeatConflictError.
var ErrSeatConflict = errors.New("seat conflict")

// ErrDuplicatePassenger is returned when two submitted passengers share
// an identity number.
var ErrDuplicatePassenger = errors.New("duplicate passenger identity number")

// ErrInvalidIdentityNumber is returned when a passenger's national
// identity number fails the checksum rules.
var ErrInvalidIdentityNumber = errors.New("invalid identity number")

// ErrAlreadyPaid is returned by Pay when the booking is already paid.
var ErrAlreadyPaid = errors.New("booking already paid")

// ErrBookingCancelled is returned by Pay when the booking was cancelled.
var ErrBookingCancelled = errors.New("booking is cancelled")

// ErrAlreadyCancelled is returned by Cancel when the booking is already
// cancelled.  The second cancel performs no writes and no seat increment.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrCancellationWindowClosed is returned by Cancel when the flight
// departs in less than the cancellation window (24 hours).
var ErrCancellationWindowClosed = errors.New("cancellation window closed")

// ErrUnauthorized is returned when the caller neither owns the booking
// nor holds an administrative role.
var ErrUnauthorized = errors.New("not authorized for this booking")

// ErrDuplicateReference signals that an insert collided with an existing
// booking reference.  The engine regenerates the reference and retries;
// callers only ever see it if every attempt collided.
var ErrDuplicateReference = errors.New("booking reference already in use")

// ErrSerialization is the store's translation of a transaction-level
// deadlock or lock-wait failure.  The engine retries once before
// surfacing ErrConcurrency.
var ErrSerialization = errors.New("transaction serialization failure")

// ErrConcurrency is returned after internal retries of a serialization
// failure are exhausted.  Callers may retry the whole request.
var ErrConcurrency = errors.New("concurrent update conflict, retry")

// SeatConflictError reports which requested seats are already occupied by
// passengers of other active bookings on the same flight.  It matches
// ErrSeatConflict under errors.Is so handlers can branch on the kind
// while still reading the seat codes.
type SeatConflictError struct {
    Seats []string
}

func (e *SeatConflictError) Error() string {
    return fmt.Sprintf("seats already taken: %s", strings.Join(e.Seats, ", "))
}

// Is makes errors.Is(err, ErrSeatConflict) succeed for SeatConflictError values.
func (e *SeatConflictError) Is(target error) bool {
    return target == ErrSeatConflict
}
