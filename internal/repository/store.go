package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/model"
)

// Store implements booking.Store over MySQL.  It wires the flight and
// booking repositories behind the flight-scoped transaction the engine
// requires: InFlightTx locks the flight row with SELECT ... FOR UPDATE so
// concurrent mutations of one flight's booking state serialize, while
// different flights proceed independently.
type Store struct {
    db       *sql.DB
    flights  *FlightRepo
    bookings *BookingRepo
}

// NewStore builds a Store and its repositories from a DB handle.
func NewStore(db *sql.DB) *Store {
    return &Store{
        db:       db,
        flights:  NewFlightRepo(db),
        bookings: NewBookingRepo(db),
    }
}

// Flights exposes the flight repository for read-side handlers (search,
// details) that do not go through the booking engine.
func (s *Store) Flights() *FlightRepo { return s.flights }

// Bookings exposes the booking repository for read-side handlers.
func (s *Store) Bookings() *BookingRepo { return s.bookings }

// FlightByID implements booking.Store.
func (s *Store) FlightByID(ctx context.Context, id uint64) (*model.Flight, error) {
    return s.flights.GetByID(ctx, id)
}

// BookingByID implements booking.Store.
func (s *Store) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
    return s.bookings.GetByID(ctx, id)
}

// BookingByReference implements booking.Store.
func (s *Store) BookingByReference(ctx context.Context, reference, email string) (*model.Booking, error) {
    return s.bookings.GetByReferenceAndEmail(ctx, reference, email)
}

// BookingsByUser implements booking.Store.
func (s *Store) BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    return s.bookings.ListByUser(ctx, userID)
}

// PassengersByBooking implements booking.Store.
func (s *Store) PassengersByBooking(ctx context.Context, bookingID uint64) ([]model.Passenger, error) {
    return s.bookings.PassengersByBooking(ctx, bookingID)
}

// OccupiedSeats implements booking.Store (the advisory view).
func (s *Store) OccupiedSeats(ctx context.Context, flightID uint64) (map[string]struct{}, error) {
    return s.bookings.OccupiedSeats(ctx, flightID)
}

// InFlightTx implements booking.Store.  It opens a transaction, locks the
// flight row, runs fn against a flightTx bound to that transaction and
// commits.  fn's error aborts the transaction with no partial writes.
// Deadlocks and lock-wait timeouts are translated to
// booking.ErrSerialization so the engine can apply its retry policy.
func (s *Store) InFlightTx(ctx context.Context, flightID uint64, fn func(tx booking.FlightTx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    flight, err := s.flights.lockByIDTx(ctx, tx, flightID)
    if err != nil {
        return translateTxErr(err)
    }
    ftx := &flightTx{tx: tx, flight: flight, store: s}
    if err := fn(ftx); err != nil {
        return translateTxErr(err)
    }
    if err := tx.Commit(); err != nil {
        return translateTxErr(fmt.Errorf("commit: %w", err))
    }
    committed = true
    return nil
}

func translateTxErr(err error) error {
    if isSerializationFailure(err) {
        return fmt.Errorf("%w: %v", booking.ErrSerialization, err)
    }
    return err
}

// flightTx implements booking.FlightTx for one InFlightTx invocation.
type flightTx struct {
    tx     *sql.Tx
    flight *model.Flight
    store  *Store
}

func (t *flightTx) Flight() *model.Flight { return t.flight }

func (t *flightTx) OccupiedSeats(ctx context.Context) (map[string]struct{}, error) {
    return t.store.bookings.OccupiedSeatsTx(ctx, t.tx, t.flight.ID)
}

func (t *flightTx) InsertBooking(ctx context.Context, b *model.Booking, passengers []model.Passenger) error {
    return t.store.bookings.CreateTx(ctx, t.tx, b, passengers)
}

func (t *flightTx) BookingForUpdate(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    return t.store.bookings.GetForUpdateTx(ctx, t.tx, bookingID)
}

func (t *flightTx) MarkPaid(ctx context.Context, bookingID uint64, at time.Time) error {
    return t.store.bookings.MarkPaidTx(ctx, t.tx, bookingID, at)
}

func (t *flightTx) CancelBooking(ctx context.Context, bookingID uint64, at time.Time, reason string) error {
    return t.store.bookings.CancelTx(ctx, t.tx, bookingID, at, reason)
}

func (t *flightTx) AdjustAvailableSeats(ctx context.Context, delta int) error {
    return t.store.flights.AdjustSeatsTx(ctx, t.tx, t.flight.ID, delta)
}
