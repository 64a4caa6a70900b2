package booking

import (
    "context"
    "errors"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/flight-reservation/internal/model"
    "github.com/iliyamo/flight-reservation/internal/queue"
    "github.com/iliyamo/flight-reservation/internal/seatmap"
)

// CancellationWindow is the minimum time before departure at which a
// booking may still be cancelled.  At exactly the window boundary the
// cancellation succeeds.
const CancellationWindow = 24 * time.Hour

// Identity is the opaque caller identity supplied by the external auth
// layer.  UserID is nil for guests, who authenticate booking access with
// the contact email instead.  Admin callers may act on any booking.
type Identity struct {
    UserID *uint64
    Email  string
    Admin  bool
}

// PassengerInput is one passenger of a booking request together with the
// seat they selected from the seat map.
type PassengerInput struct {
    FirstName      string
    LastName       string
    IdentityNumber string
    DateOfBirth    time.Time
    Gender         string
    Seat           string
}

// CreateBookingRequest carries everything the engine needs to create a
// booking.  ContactEmail is required for guests and optional for
// authenticated callers.
type CreateBookingRequest struct {
    FlightID     uint64
    Identity     Identity
    ContactEmail string
    Passengers   []PassengerInput
}

// Notifier publishes post-commit events to the notification collaborator.
// Failures are logged by the service and never surfaced to callers: a
// committed booking stays committed even when the broker is down.
type Notifier interface {
    BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
    BookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// Service is the reservation engine and the payment/cancellation state
// machine.  All seat-state mutations run inside the store's flight-scoped
// transaction, so two concurrent requests against the same flight
// serialize on the flight row and the precondition checks always see
// committed state.
type Service struct {
    store    Store
    notifier Notifier
    now      func() time.Time
}

// NewService constructs a Service.  notifier may be nil, which disables
// post-commit notifications (useful in tests).
func NewService(store Store, notifier Notifier) *Service {
    if store == nil {
        panic("nil store passed to booking.NewService")
    }
    return &Service{store: store, notifier: notifier, now: time.Now}
}

// CreateBooking validates the request against the flight's current
// booking state and atomically creates the booking, its passengers and
// the seat-counter decrement.  Precondition failures return a specific
// sentinel before any write; a serialization loss is retried once and
// then surfaced as ErrConcurrency.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
    var (
        created    *model.Booking
        flight     model.Flight
        passengers []model.Passenger
    )
    err := s.withRetry(ctx, req.FlightID, func(tx FlightTx) error {
        f := tx.Flight()
        if f.Status != model.FlightStatusActive {
            return ErrFlightNotFound
        }
        n := len(req.Passengers)
        if n == 0 {
            return ErrInvalidSeatSelection
        }
        if int(f.AvailableSeats) < n {
            return ErrInsufficientSeats
        }
        // Every passenger must name a distinct seat inside the grid.
        requested := make(map[string]struct{}, n)
        for _, p := range req.Passengers {
            if !seatmap.Contains(int(f.SeatsPerRow), int(f.TotalRows), p.Seat) {
                return ErrInvalidSeatSelection
            }
            if _, dup := requested[p.Seat]; dup {
                return ErrInvalidSeatSelection
            }
            requested[p.Seat] = struct{}{}
        }
        occupied, err := tx.OccupiedSeats(ctx)
        if err != nil {
            return err
        }
        var conflicts []string
        for _, p := range req.Passengers {
            if _, taken := occupied[p.Seat]; taken {
                conflicts = append(conflicts, p.Seat)
            }
        }
        if len(conflicts) > 0 {
            return &SeatConflictError{Seats: conflicts}
        }
        seen := make(map[string]struct{}, n)
        for _, p := range req.Passengers {
            if _, dup := seen[p.IdentityNumber]; dup {
                return ErrDuplicatePassenger
            }
            seen[p.IdentityNumber] = struct{}{}
        }
        for _, p := range req.Passengers {
            if !ValidIdentityNumber(p.IdentityNumber) {
                return ErrInvalidIdentityNumber
            }
        }

        now := s.now().UTC()
        b := &model.Booking{
            UserID:          req.Identity.UserID,
            ContactEmail:    req.ContactEmail,
            FlightID:        f.ID,
            PassengerCount:  uint32(n),
            TotalPriceCents: f.PriceCents * uint32(n),
            Status:          model.BookingStatusConfirmed,
            BookingDate:     now,
        }
        rows := make([]model.Passenger, 0, n)
        for _, p := range req.Passengers {
            rows = append(rows, model.Passenger{
                FirstName:      p.FirstName,
                LastName:       p.LastName,
                IdentityNumber: p.IdentityNumber,
                DateOfBirth:    p.DateOfBirth,
                Gender:         p.Gender,
                SeatNumber:     p.Seat,
                SeatType:       seatmap.TypeOf(p.Seat, int(f.SeatsPerRow)),
            })
        }
        // The reference is reserved by the insert itself: the unique
        // index rejects collisions, we regenerate and try again inside
        // the same transaction.
        inserted := false
        for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
            ref, err := NewReference()
            if err != nil {
                return err
            }
            b.BookingReference = ref
            err = tx.InsertBooking(ctx, b, rows)
            if errors.Is(err, ErrDuplicateReference) {
                continue
            }
            if err != nil {
                return err
            }
            inserted = true
            break
        }
        if !inserted {
            return ErrDuplicateReference
        }
        if err := tx.AdjustAvailableSeats(ctx, -n); err != nil {
            return err
        }
        created = b
        flight = *f
        passengers = rows
        return nil
    })
    if err != nil {
        return nil, err
    }
    s.publishConfirmed(ctx, created, &flight, passengers)
    return created, nil
}

// Pay transitions a booking from Confirmed+Unpaid to Confirmed+Paid.
// Paying a paid booking returns ErrAlreadyPaid; paying a cancelled one
// returns ErrBookingCancelled.
func (s *Service) Pay(ctx context.Context, bookingID uint64, ident Identity) (*model.Booking, error) {
    b, err := s.store.BookingByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := s.authorize(ident, b); err != nil {
        return nil, err
    }
    var paid *model.Booking
    err = s.withRetry(ctx, b.FlightID, func(tx FlightTx) error {
        cur, err := tx.BookingForUpdate(ctx, b.ID)
        if err != nil {
            return err
        }
        if cur.Status == model.BookingStatusCancelled {
            return ErrBookingCancelled
        }
        if cur.IsPaid {
            return ErrAlreadyPaid
        }
        at := s.now().UTC()
        if err := tx.MarkPaid(ctx, cur.ID, at); err != nil {
            return err
        }
        cur.IsPaid = true
        cur.PaymentDate = &at
        paid = cur
        return nil
    })
    if err != nil {
        return nil, err
    }
    return paid, nil
}

// Cancel transitions a booking to Cancelled and returns its seats to the
// flight's pool in the same transaction.  Cancelling twice reports
// ErrAlreadyCancelled without a second increment.  Cancellation is only
// allowed while departure is at least CancellationWindow away.
func (s *Service) Cancel(ctx context.Context, bookingID uint64, ident Identity, reason string) (*model.Booking, error) {
    b, err := s.store.BookingByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := s.authorize(ident, b); err != nil {
        return nil, err
    }
    var (
        cancelled *model.Booking
        flight    model.Flight
    )
    err = s.withRetry(ctx, b.FlightID, func(tx FlightTx) error {
        f := tx.Flight()
        cur, err := tx.BookingForUpdate(ctx, b.ID)
        if err != nil {
            return err
        }
        if cur.Status == model.BookingStatusCancelled {
            return ErrAlreadyCancelled
        }
        at := s.now().UTC()
        if f.DepartureTime.Sub(at) < CancellationWindow {
            return ErrCancellationWindowClosed
        }
        if err := tx.CancelBooking(ctx, cur.ID, at, reason); err != nil {
            return err
        }
        if err := tx.AdjustAvailableSeats(ctx, int(cur.PassengerCount)); err != nil {
            return err
        }
        cur.Status = model.BookingStatusCancelled
        cur.CancellationDate = &at
        if reason != "" {
            cur.CancellationReason = &reason
        }
        cancelled = cur
        flight = *f
        return nil
    })
    if err != nil {
        return nil, err
    }
    s.publishCancelled(ctx, cancelled, &flight, reason)
    return cancelled, nil
}

// Booking returns a booking with its passengers after an ownership check.
func (s *Service) Booking(ctx context.Context, bookingID uint64, ident Identity) (*model.Booking, []model.Passenger, error) {
    b, err := s.store.BookingByID(ctx, bookingID)
    if err != nil {
        return nil, nil, err
    }
    if err := s.authorize(ident, b); err != nil {
        return nil, nil, err
    }
    ps, err := s.store.PassengersByBooking(ctx, b.ID)
    if err != nil {
        return nil, nil, err
    }
    return b, ps, nil
}

// Lookup resolves a guest booking by (reference, email).  The pair acts
// as the credential: a wrong email behaves like a missing booking.
func (s *Service) Lookup(ctx context.Context, reference, email string) (*model.Booking, []model.Passenger, error) {
    b, err := s.store.BookingByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)), email)
    if err != nil {
        return nil, nil, err
    }
    ps, err := s.store.PassengersByBooking(ctx, b.ID)
    if err != nil {
        return nil, nil, err
    }
    return b, ps, nil
}

// ListByUser returns all bookings owned by the given user, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    return s.store.BookingsByUser(ctx, userID)
}

// authorize checks that the caller owns the booking, matches its guest
// contact email, or is an admin.
func (s *Service) authorize(ident Identity, b *model.Booking) error {
    if ident.Admin {
        return nil
    }
    if ident.UserID != nil && b.UserID != nil && *ident.UserID == *b.UserID {
        return nil
    }
    if ident.Email != "" && b.ContactEmail != "" && strings.EqualFold(ident.Email, b.ContactEmail) {
        return nil
    }
    return ErrUnauthorized
}

// withRetry runs fn inside the flight-scoped transaction, retrying once
// when the transaction loses a deadlock or lock-wait race.  Exhausted
// retries surface as ErrConcurrency.
func (s *Service) withRetry(ctx context.Context, flightID uint64, fn func(tx FlightTx) error) error {
    err := s.store.InFlightTx(ctx, flightID, fn)
    if errors.Is(err, ErrSerialization) {
        err = s.store.InFlightTx(ctx, flightID, fn)
        if errors.Is(err, ErrSerialization) {
            return ErrConcurrency
        }
    }
    return err
}

func (s *Service) publishConfirmed(ctx context.Context, b *model.Booking, f *model.Flight, passengers []model.Passenger) {
    if s.notifier == nil {
        return
    }
    seats := make([]string, 0, len(passengers))
    for _, p := range passengers {
        seats = append(seats, p.SeatNumber)
    }
    ev := queue.BookingConfirmedEvent{
        BookingID:        b.ID,
        BookingReference: b.BookingReference,
        ContactEmail:     b.ContactEmail,
        FlightNumber:     f.FlightNumber,
        DepartureCity:    f.DepartureCity,
        ArrivalCity:      f.ArrivalCity,
        DepartureTime:    f.DepartureTime.UTC().Format(time.RFC3339),
        Seats:            seats,
        PassengerCount:   b.PassengerCount,
        TotalPriceCents:  b.TotalPriceCents,
        ConfirmedAt:      b.BookingDate.UTC().Format(time.RFC3339),
    }
    if err := s.notifier.BookingConfirmed(ctx, ev); err != nil {
        // Notification failure never rolls back a committed booking.
        log.Printf("booking: confirmed notification failed for %s: %v", b.BookingReference, err)
    }
}

func (s *Service) publishCancelled(ctx context.Context, b *model.Booking, f *model.Flight, reason string) {
    if s.notifier == nil {
        return
    }
    ps, err := s.store.PassengersByBooking(ctx, b.ID)
    if err != nil {
        log.Printf("booking: loading passengers for cancel notification failed: %v", err)
        ps = nil
    }
    seats := make([]string, 0, len(ps))
    for _, p := range ps {
        seats = append(seats, p.SeatNumber)
    }
    at := ""
    if b.CancellationDate != nil {
        at = b.CancellationDate.UTC().Format(time.RFC3339)
    }
    ev := queue.BookingCancelledEvent{
        BookingID:        b.ID,
        BookingReference: b.BookingReference,
        ContactEmail:     b.ContactEmail,
        FlightNumber:     f.FlightNumber,
        Seats:            seats,
        Reason:           reason,
        CancelledAt:      at,
    }
    if err := s.notifier.BookingCancelled(ctx, ev); err != nil {
        log.Printf("booking: cancelled notification failed for %s: %v", b.BookingReference, err)
    }
}
