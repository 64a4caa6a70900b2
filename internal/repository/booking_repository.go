package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their passengers.
// Passengers are owned by the booking and cascade-delete with it.  All
// timestamp fields are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, booking_reference, user_id, contact_email, flight_id, passenger_count,
    total_price_cents, status, is_paid, booking_date, payment_date, cancellation_date, cancellation_reason`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var (
        b          model.Booking
        userID     sql.NullInt64
        payDate    sql.NullTime
        cancelDate sql.NullTime
        reason     sql.NullString
    )
    err := row.Scan(
        &b.ID, &b.BookingReference, &userID, &b.ContactEmail, &b.FlightID, &b.PassengerCount,
        &b.TotalPriceCents, &b.Status, &b.IsPaid, &b.BookingDate, &payDate, &cancelDate, &reason,
    )
    if err != nil {
        return nil, err
    }
    if userID.Valid {
        uid := uint64(userID.Int64)
        b.UserID = &uid
    }
    if payDate.Valid {
        t := payDate.Time
        b.PaymentDate = &t
    }
    if cancelDate.Valid {
        t := cancelDate.Time
        b.CancellationDate = &t
    }
    if reason.Valid {
        s := reason.String
        b.CancellationReason = &s
    }
    return &b, nil
}

// GetByID returns a booking by primary key or booking.ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    return b, nil
}

// GetByReferenceAndEmail resolves a booking by its PNR and contact email.
// The email comparison is case-insensitive; a mismatch is reported as
// not-found so the pair behaves like a credential.
func (r *BookingRepo) GetByReferenceAndEmail(ctx context.Context, reference, email string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE booking_reference = ? AND LOWER(contact_email) = LOWER(?)`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, reference, email))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    return b, nil
}

// ListByUser returns all bookings owned by the user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY booking_date DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// PassengersByBooking returns a booking's passengers ordered by seat code.
func (r *BookingRepo) PassengersByBooking(ctx context.Context, bookingID uint64) ([]model.Passenger, error) {
    const q = `SELECT id, booking_id, first_name, last_name, identity_number, date_of_birth, gender, seat_number, seat_type
               FROM passengers WHERE booking_id = ? ORDER BY seat_number`
    rows, err := r.db.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Passenger, 0)
    for rows.Next() {
        var p model.Passenger
        if err := rows.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.IdentityNumber,
            &p.DateOfBirth, &p.Gender, &p.SeatNumber, &p.SeatType); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// occupiedSeatsQuery projects the seat codes of passengers belonging to
// active (non-cancelled) bookings on a flight.  Duplicates collapse into
// the set; the engine's invariant means none should occur, but the view
// tolerates them.
const occupiedSeatsQuery = `SELECT p.seat_number
    FROM passengers p
    JOIN bookings b ON b.id = p.booking_id
    WHERE b.flight_id = ? AND b.status <> 'CANCELLED'`

// OccupiedSeats computes the advisory occupancy view outside any
// transaction.  Seat-map rendering uses this; the commit decision never does.
func (r *BookingRepo) OccupiedSeats(ctx context.Context, flightID uint64) (map[string]struct{}, error) {
    rows, err := r.db.QueryContext(ctx, occupiedSeatsQuery, flightID)
    if err != nil {
        return nil, err
    }
    return collectSeatSet(rows)
}

// OccupiedSeatsTx recomputes occupancy under the caller's transaction so
// the conflict check shares the flight row lock's isolation.
func (r *BookingRepo) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, flightID uint64) (map[string]struct{}, error) {
    rows, err := tx.QueryContext(ctx, occupiedSeatsQuery, flightID)
    if err != nil {
        return nil, err
    }
    return collectSeatSet(rows)
}

func collectSeatSet(rows *sql.Rows) (map[string]struct{}, error) {
    defer rows.Close()
    set := make(map[string]struct{})
    for rows.Next() {
        var seat string
        if err := rows.Scan(&seat); err != nil {
            return nil, err
        }
        set[seat] = struct{}{}
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return set, nil
}

// CreateTx inserts a booking and its passengers within the provided
// transaction.  The generated IDs are populated on the passed structs.
// A collision on the booking_reference unique index is translated to
// booking.ErrDuplicateReference so the engine can regenerate and retry.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking, passengers []model.Passenger) error {
    const q = `INSERT INTO bookings
        (booking_reference, user_id, contact_email, flight_id, passenger_count, total_price_cents, status, is_paid, booking_date)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var userID any
    if b.UserID != nil {
        userID = *b.UserID
    }
    res, err := tx.ExecContext(ctx, q,
        b.BookingReference, userID, b.ContactEmail, b.FlightID,
        b.PassengerCount, b.TotalPriceCents, b.Status, b.IsPaid, b.BookingDate.UTC(),
    )
    if err != nil {
        if isDuplicateKey(err) {
            return booking.ErrDuplicateReference
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    if len(passengers) == 0 {
        return nil
    }
    query := `INSERT INTO passengers (booking_id, first_name, last_name, identity_number, date_of_birth, gender, seat_number, seat_type) VALUES `
    args := make([]interface{}, 0, len(passengers)*8)
    for i := range passengers {
        passengers[i].BookingID = b.ID
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?)"
        p := passengers[i]
        args = append(args, p.BookingID, p.FirstName, p.LastName, p.IdentityNumber,
            p.DateOfBirth.UTC().Format("2006-01-02"), p.Gender, p.SeatNumber, p.SeatType)
    }
    _, err = tx.ExecContext(ctx, query, args...)
    return err
}

// GetForUpdateTx re-reads a booking with a row lock inside the caller's
// transaction, returning booking.ErrBookingNotFound when absent.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
    b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    return b, nil
}

// MarkPaidTx records payment on a booking within the transaction.
func (r *BookingRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
    const q = `UPDATE bookings SET is_paid = 1, payment_date = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, at.UTC(), id)
    return err
}

// CancelTx flips the booking to CANCELLED with the date and optional
// reason within the transaction.  The caller restores the flight's seat
// counter in the same transaction.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time, reason string) error {
    const q = `UPDATE bookings SET status = ?, cancellation_date = ?, cancellation_reason = ? WHERE id = ?`
    var res any
    if reason != "" {
        res = reason
    }
    _, err := tx.ExecContext(ctx, q, model.BookingStatusCancelled, at.UTC(), res, id)
    return err
}
