// Package repository contains the MySQL persistence layer.  This file
// defines data access for flights.  The seat grid itself is derived in
// code from seats_per_row and total_rows; only the counters live here.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/model"
)

// FlightRepo manages persistence for flights.
type FlightRepo struct {
    db *sql.DB
}

// NewFlightRepo constructs a FlightRepo with the given DB handle.
func NewFlightRepo(db *sql.DB) *FlightRepo {
    return &FlightRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *FlightRepo) DB() *sql.DB {
    return r.db
}

const flightColumns = `id, flight_number, departure_city, arrival_city, departure_time, arrival_time,
    price_cents, total_seats, available_seats, seats_per_row, total_rows, status, created_at, updated_at`

func scanFlight(row interface{ Scan(...any) error }) (*model.Flight, error) {
    var f model.Flight
    err := row.Scan(
        &f.ID, &f.FlightNumber, &f.DepartureCity, &f.ArrivalCity, &f.DepartureTime, &f.ArrivalTime,
        &f.PriceCents, &f.TotalSeats, &f.AvailableSeats, &f.SeatsPerRow, &f.TotalRows,
        &f.Status, &f.CreatedAt, &f.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &f, nil
}

// GetByID returns a flight by primary key or booking.ErrFlightNotFound.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
    const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
    f, err := scanFlight(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrFlightNotFound
    }
    if err != nil {
        return nil, err
    }
    return f, nil
}

// lockByIDTx reads the flight row with FOR UPDATE inside the provided
// transaction.  This is the serialization point for all booking-state
// mutations on the flight: concurrent callers queue here until the
// transaction commits or rolls back.
func (r *FlightRepo) lockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
    const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ? FOR UPDATE`
    f, err := scanFlight(tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrFlightNotFound
    }
    if err != nil {
        return nil, err
    }
    return f, nil
}

// AdjustSeatsTx applies delta to available_seats within the transaction.
// The WHERE guard keeps the counter inside 0..total_seats even if a bug
// upstream produced an out-of-range delta; zero affected rows is reported
// as an error rather than silently corrupting the pool.
func (r *FlightRepo) AdjustSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
    const q = `UPDATE flights
               SET available_seats = available_seats + ?
               WHERE id = ?
                 AND available_seats + ? >= 0
                 AND available_seats + ? <= total_seats`
    res, err := tx.ExecContext(ctx, q, delta, id, delta, delta)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return errors.New("available seat counter out of range")
    }
    return nil
}

// Create inserts a new flight and populates generated fields on f.  The
// available seat counter starts at total_seats.  A duplicate flight
// number surfaces as booking.ErrDuplicateReference's repository cousin,
// ErrFlightNumberTaken.
func (r *FlightRepo) Create(ctx context.Context, f *model.Flight) error {
    const q = `INSERT INTO flights
        (flight_number, departure_city, arrival_city, departure_time, arrival_time,
         price_cents, total_seats, available_seats, seats_per_row, total_rows, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        strings.ToUpper(strings.TrimSpace(f.FlightNumber)),
        f.DepartureCity, f.ArrivalCity,
        f.DepartureTime.UTC(), f.ArrivalTime.UTC(),
        f.PriceCents, f.TotalSeats, f.TotalSeats, f.SeatsPerRow, f.TotalRows,
        model.FlightStatusActive,
    )
    if err != nil {
        if isDuplicateKey(err) {
            return ErrFlightNumberTaken
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    const sel = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
    got, err := scanFlight(r.db.QueryRowContext(ctx, sel, f.ID))
    if err != nil {
        return err
    }
    *f = *got
    return nil
}

// UpdateStatus sets the flight's lifecycle status.  It returns
// booking.ErrFlightNotFound when the flight does not exist.
func (r *FlightRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    const q = `UPDATE flights SET status = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // distinguish "absent" from "already in this status"
        var exists int
        if scanErr := r.db.QueryRowContext(ctx, `SELECT 1 FROM flights WHERE id = ?`, id).Scan(&exists); scanErr != nil {
            if errors.Is(scanErr, sql.ErrNoRows) {
                return booking.ErrFlightNotFound
            }
            return scanErr
        }
    }
    return nil
}
