package booking

import (
    "context"
    "time"

    "github.com/iliyamo/flight-reservation/internal/model"
)

// Store abstracts persistence for the booking engine.  The MySQL
// implementation lives in internal/repository; tests substitute an
// in-memory fake.  Reads outside InFlightTx are advisory (seat maps,
// lookups); every mutation of a flight's booking state happens inside
// InFlightTx, which serializes callers per flight.
type Store interface {
    // FlightByID returns the flight or ErrFlightNotFound.
    FlightByID(ctx context.Context, id uint64) (*model.Flight, error)
    // BookingByID returns the booking or ErrBookingNotFound.
    BookingByID(ctx context.Context, id uint64) (*model.Booking, error)
    // BookingByReference returns the booking matching both the reference
    // and the contact email, or ErrBookingNotFound.  Used for guest (PNR,
    // email) lookups; the email acts as the shared secret.
    BookingByReference(ctx context.Context, reference, email string) (*model.Booking, error)
    // BookingsByUser lists a user's bookings, newest first.
    BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
    // PassengersByBooking lists the passengers of a booking in seat order.
    PassengersByBooking(ctx context.Context, bookingID uint64) ([]model.Passenger, error)
    // OccupiedSeats returns the seat codes held by passengers of active
    // (non-cancelled) bookings on the flight.  This is the advisory
    // occupancy view; the engine re-reads occupancy inside InFlightTx
    // before committing.
    OccupiedSeats(ctx context.Context, flightID uint64) (map[string]struct{}, error)
    // InFlightTx runs fn while holding exclusive access to the flight's
    // booking state (row lock on the flight record).  fn's error aborts
    // the transaction with no partial writes.  Returns ErrFlightNotFound
    // when the flight does not exist and ErrSerialization when the
    // transaction loses a deadlock or lock-wait race.
    InFlightTx(ctx context.Context, flightID uint64, fn func(tx FlightTx) error) error
}

// FlightTx exposes the reads and writes permitted inside a flight-scoped
// transaction.  All methods operate on the flight whose row is locked.
type FlightTx interface {
    // Flight returns the locked flight row as read at transaction start.
    Flight() *model.Flight
    // OccupiedSeats recomputes the occupancy set under the transaction's
    // isolation, making it the authoritative conflict check.
    OccupiedSeats(ctx context.Context) (map[string]struct{}, error)
    // InsertBooking inserts the booking and its passengers, populating
    // generated IDs.  Returns ErrDuplicateReference when the booking
    // reference collides with the unique index.
    InsertBooking(ctx context.Context, b *model.Booking, passengers []model.Passenger) error
    // BookingForUpdate re-reads a booking on this flight with a row lock,
    // or ErrBookingNotFound.
    BookingForUpdate(ctx context.Context, bookingID uint64) (*model.Booking, error)
    // MarkPaid flips is_paid and records the payment date.
    MarkPaid(ctx context.Context, bookingID uint64, at time.Time) error
    // CancelBooking sets status CANCELLED with date and optional reason.
    CancelBooking(ctx context.Context, bookingID uint64, at time.Time, reason string) error
    // AdjustAvailableSeats adds delta (negative on create, positive on
    // cancel) to the flight's available seat counter.
    AdjustAvailableSeats(ctx context.Context, delta int) error
}
