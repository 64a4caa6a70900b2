package booking

import (
    "context"
    "errors"
    "sort"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/flight-reservation/internal/model"
    "github.com/iliyamo/flight-reservation/internal/queue"
)

// Identity numbers below all satisfy the national-ID checksum.
var testIDs = []string{
    "10000000146",
    "12345678950",
    "98765432150",
    "55544333282",
    "10458723628",
}

// fakeStore is an in-memory Store.  InFlightTx holds one mutex for the
// whole transaction, which reproduces the per-flight serialization the
// MySQL row lock provides (stricter, but correct for the assertions
// these tests make).
type fakeStore struct {
    mu          sync.Mutex
    flights     map[uint64]*model.Flight
    bookings    map[uint64]*model.Booking
    passengers  map[uint64][]model.Passenger
    refs        map[string]uint64
    nextID      uint64
    serialFails int // next N transactions fail with ErrSerialization
}

func newFakeStore(flights ...*model.Flight) *fakeStore {
    s := &fakeStore{
        flights:    map[uint64]*model.Flight{},
        bookings:   map[uint64]*model.Booking{},
        passengers: map[uint64][]model.Passenger{},
        refs:       map[string]uint64{},
    }
    for _, f := range flights {
        s.flights[f.ID] = f
    }
    return s
}

func (s *fakeStore) FlightByID(_ context.Context, id uint64) (*model.Flight, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    f, ok := s.flights[id]
    if !ok {
        return nil, ErrFlightNotFound
    }
    cp := *f
    return &cp, nil
}

func (s *fakeStore) BookingByID(_ context.Context, id uint64) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return nil, ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *fakeStore) BookingByReference(_ context.Context, reference, email string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id, ok := s.refs[reference]
    if !ok {
        return nil, ErrBookingNotFound
    }
    b := s.bookings[id]
    if b == nil || !strings.EqualFold(b.ContactEmail, email) {
        return nil, ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *fakeStore) BookingsByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Booking
    for _, b := range s.bookings {
        if b.UserID != nil && *b.UserID == userID {
            out = append(out, *b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

func (s *fakeStore) PassengersByBooking(_ context.Context, bookingID uint64) ([]model.Passenger, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return append([]model.Passenger(nil), s.passengers[bookingID]...), nil
}

func (s *fakeStore) OccupiedSeats(_ context.Context, flightID uint64) (map[string]struct{}, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.occupiedLocked(flightID), nil
}

func (s *fakeStore) occupiedLocked(flightID uint64) map[string]struct{} {
    occ := map[string]struct{}{}
    for id, b := range s.bookings {
        if b.FlightID != flightID || !b.Active() {
            continue
        }
        for _, p := range s.passengers[id] {
            occ[p.SeatNumber] = struct{}{}
        }
    }
    return occ
}

func (s *fakeStore) InFlightTx(_ context.Context, flightID uint64, fn func(tx FlightTx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.serialFails > 0 {
        s.serialFails--
        return ErrSerialization
    }
    f, ok := s.flights[flightID]
    if !ok {
        return ErrFlightNotFound
    }
    snap := s.snapshotLocked()
    if err := fn(&fakeTx{s: s, f: f}); err != nil {
        s.restoreLocked(snap)
        return err
    }
    return nil
}

type storeSnapshot struct {
    flights    map[uint64]model.Flight
    bookings   map[uint64]model.Booking
    passengers map[uint64][]model.Passenger
    refs       map[string]uint64
    nextID     uint64
}

func (s *fakeStore) snapshotLocked() storeSnapshot {
    snap := storeSnapshot{
        flights:    map[uint64]model.Flight{},
        bookings:   map[uint64]model.Booking{},
        passengers: map[uint64][]model.Passenger{},
        refs:       map[string]uint64{},
        nextID:     s.nextID,
    }
    for id, f := range s.flights {
        snap.flights[id] = *f
    }
    for id, b := range s.bookings {
        snap.bookings[id] = *b
    }
    for id, ps := range s.passengers {
        snap.passengers[id] = append([]model.Passenger(nil), ps...)
    }
    for r, id := range s.refs {
        snap.refs[r] = id
    }
    return snap
}

func (s *fakeStore) restoreLocked(snap storeSnapshot) {
    s.flights = map[uint64]*model.Flight{}
    for id := range snap.flights {
        f := snap.flights[id]
        s.flights[id] = &f
    }
    s.bookings = map[uint64]*model.Booking{}
    for id := range snap.bookings {
        b := snap.bookings[id]
        s.bookings[id] = &b
    }
    s.passengers = snap.passengers
    s.refs = snap.refs
    s.nextID = snap.nextID
}

type fakeTx struct {
    s *fakeStore
    f *model.Flight
}

func (t *fakeTx) Flight() *model.Flight { return t.f }

func (t *fakeTx) OccupiedSeats(_ context.Context) (map[string]struct{}, error) {
    return t.s.occupiedLocked(t.f.ID), nil
}

func (t *fakeTx) InsertBooking(_ context.Context, b *model.Booking, passengers []model.Passenger) error {
    if _, taken := t.s.refs[b.BookingReference]; taken {
        return ErrDuplicateReference
    }
    t.s.nextID++
    b.ID = t.s.nextID
    cp := *b
    t.s.bookings[b.ID] = &cp
    t.s.refs[b.BookingReference] = b.ID
    rows := make([]model.Passenger, len(passengers))
    for i, p := range passengers {
        t.s.nextID++
        p.ID = t.s.nextID
        p.BookingID = b.ID
        rows[i] = p
    }
    t.s.passengers[b.ID] = rows
    return nil
}

func (t *fakeTx) BookingForUpdate(_ context.Context, bookingID uint64) (*model.Booking, error) {
    b, ok := t.s.bookings[bookingID]
    if !ok || b.FlightID != t.f.ID {
        return nil, ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (t *fakeTx) MarkPaid(_ context.Context, bookingID uint64, at time.Time) error {
    b, ok := t.s.bookings[bookingID]
    if !ok {
        return ErrBookingNotFound
    }
    b.IsPaid = true
    b.PaymentDate = &at
    return nil
}

func (t *fakeTx) CancelBooking(_ context.Context, bookingID uint64, at time.Time, reason string) error {
    b, ok := t.s.bookings[bookingID]
    if !ok {
        return ErrBookingNotFound
    }
    b.Status = model.BookingStatusCancelled
    b.CancellationDate = &at
    if reason != "" {
        b.CancellationReason = &reason
    }
    return nil
}

func (t *fakeTx) AdjustAvailableSeats(_ context.Context, delta int) error {
    next := int(t.f.AvailableSeats) + delta
    if next < 0 || next > int(t.f.TotalSeats) {
        return errors.New("available seat counter out of range")
    }
    t.f.AvailableSeats = uint32(next)
    return nil
}

// recordingNotifier captures published events; fail makes every publish
// return an error to prove failures never surface to callers.
type recordingNotifier struct {
    mu        sync.Mutex
    confirmed []queue.BookingConfirmedEvent
    cancelled []queue.BookingCancelledEvent
    fail      bool
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.fail {
        return errors.New("broker down")
    }
    n.confirmed = append(n.confirmed, ev)
    return nil
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, ev queue.BookingCancelledEvent) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.fail {
        return errors.New("broker down")
    }
    n.cancelled = append(n.cancelled, ev)
    return nil
}

func testFlight(id uint64, totalSeats, seatsPerRow, totalRows uint32, departure time.Time) *model.Flight {
    return &model.Flight{
        ID:             id,
        FlightNumber:   "TK1923",
        DepartureCity:  "Istanbul",
        ArrivalCity:    "Berlin",
        DepartureTime:  departure,
        ArrivalTime:    departure.Add(3 * time.Hour),
        PriceCents:     15000,
        TotalSeats:     totalSeats,
        AvailableSeats: totalSeats,
        SeatsPerRow:    seatsPerRow,
        TotalRows:      totalRows,
        Status:         model.FlightStatusActive,
    }
}

func passengerAt(i int, seat string) PassengerInput {
    return PassengerInput{
        FirstName:      "Test",
        LastName:       "Passenger",
        IdentityNumber: testIDs[i],
        DateOfBirth:    time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
        Gender:         "F",
        Seat:           seat,
    }
}

func userIdent(id uint64) Identity {
    return Identity{UserID: &id, Email: "user@example.com"}
}

func fixedNow(svc *Service, at time.Time) {
    svc.now = func() time.Time { return at }
}

func TestCreateBookingSuccess(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    notifier := &recordingNotifier{}
    svc := NewService(store, notifier)
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID:     1,
        Identity:     userIdent(7),
        ContactEmail: "user@example.com",
        Passengers:   []PassengerInput{passengerAt(0, "1A"), passengerAt(1, "1B")},
    })
    require.NoError(t, err)
    require.NotNil(t, b)
    assert.Len(t, b.BookingReference, ReferenceLength)
    assert.Equal(t, model.BookingStatusConfirmed, b.Status)
    assert.False(t, b.IsPaid)
    assert.Equal(t, uint32(2), b.PassengerCount)
    assert.Equal(t, uint32(30000), b.TotalPriceCents)

    f, err := store.FlightByID(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, uint32(4), f.AvailableSeats)

    occ, err := store.OccupiedSeats(context.Background(), 1)
    require.NoError(t, err)
    assert.Contains(t, occ, "1A")
    assert.Contains(t, occ, "1B")

    require.Len(t, notifier.confirmed, 1)
    assert.Equal(t, b.BookingReference, notifier.confirmed[0].BookingReference)
    assert.ElementsMatch(t, []string{"1A", "1B"}, notifier.confirmed[0].Seats)
}

func TestCreateBookingNotifierFailureDoesNotFail(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, &recordingNotifier{fail: true})
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID:     1,
        Identity:     userIdent(7),
        ContactEmail: "user@example.com",
        Passengers:   []PassengerInput{passengerAt(0, "1A")},
    })
    require.NoError(t, err)
    assert.NotEmpty(t, b.BookingReference)
}

func TestCreateBookingFlightNotFound(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    cancelled := testFlight(2, 6, 6, 1, now.Add(72*time.Hour))
    cancelled.Status = model.FlightStatusCancelled
    store := newFakeStore(cancelled)
    svc := NewService(store, nil)
    fixedNow(svc, now)

    _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 99, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    assert.ErrorIs(t, err, ErrFlightNotFound)

    // a cancelled flight is treated the same as an absent one
    _, err = svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 2, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestCreateBookingInsufficientSeats(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    f := testFlight(1, 6, 6, 1, now.Add(72*time.Hour))
    f.AvailableSeats = 1
    store := newFakeStore(f)
    svc := NewService(store, nil)
    fixedNow(svc, now)

    _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A"), passengerAt(1, "1B")},
    })
    assert.ErrorIs(t, err, ErrInsufficientSeats)

    got, _ := store.FlightByID(context.Background(), 1)
    assert.Equal(t, uint32(1), got.AvailableSeats)
    assert.Empty(t, store.bookings)
}

func TestCreateBookingInvalidSeatSelection(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    cases := map[string][]PassengerInput{
        "no passengers":    {},
        "outside grid row": {passengerAt(0, "2A")},
        "outside grid col": {passengerAt(0, "1G")},
        "malformed code":   {passengerAt(0, "A1")},
        "duplicate seat":   {passengerAt(0, "1A"), passengerAt(1, "1A")},
    }
    for name, ps := range cases {
        _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c", Passengers: ps,
        })
        assert.ErrorIs(t, err, ErrInvalidSeatSelection, name)
    }
}

func TestCreateBookingRejectsAliasedSeatCodes(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    require.NoError(t, err)

    // "01A" and an accumulator-wrapping row part both name physical seat
    // 1A without matching its canonical code; occupancy compares codes by
    // string, so the engine must reject them instead of double-booking.
    for _, alias := range []string{"01A", "18446744073709551617A"} {
        _, err = svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(2), ContactEmail: "x@y.z",
            Passengers: []PassengerInput{passengerAt(1, alias)},
        })
        assert.ErrorIs(t, err, ErrInvalidSeatSelection, alias)
    }

    f, _ := store.FlightByID(context.Background(), 1)
    assert.Equal(t, uint32(5), f.AvailableSeats)
    occ, _ := store.OccupiedSeats(context.Background(), 1)
    assert.Len(t, occ, 1)
}

func TestCreateBookingSeatConflictNamesSeats(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    require.NoError(t, err)

    _, err = svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(2), ContactEmail: "x@y.z",
        Passengers: []PassengerInput{passengerAt(1, "1A"), passengerAt(2, "1B")},
    })
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrSeatConflict)
    var conflict *SeatConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, []string{"1A"}, conflict.Seats)
}

func TestCreateBookingDuplicatePassenger(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    dup := passengerAt(0, "1B")
    _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A"), dup},
    })
    assert.ErrorIs(t, err, ErrDuplicatePassenger)
}

func TestCreateBookingInvalidIdentityNumber(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    bad := passengerAt(0, "1A")
    bad.IdentityNumber = "11111111110"
    _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{bad},
    })
    assert.ErrorIs(t, err, ErrInvalidIdentityNumber)
}

func TestConcurrentCreateSameSeats(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    seats := []string{"1A", "1B", "1C", "1D"}
    request := func(user uint64) CreateBookingRequest {
        ps := make([]PassengerInput, len(seats))
        for i, s := range seats {
            ps[i] = passengerAt(i, s)
        }
        return CreateBookingRequest{
            FlightID: 1, Identity: userIdent(user), ContactEmail: "a@b.c", Passengers: ps,
        }
    }

    results := make(chan error, 2)
    var wg sync.WaitGroup
    for u := uint64(1); u <= 2; u++ {
        wg.Add(1)
        go func(u uint64) {
            defer wg.Done()
            _, err := svc.CreateBooking(context.Background(), request(u))
            results <- err
        }(u)
    }
    wg.Wait()
    close(results)

    var successes, conflicts int
    for err := range results {
        switch {
        case err == nil:
            successes++
        case errors.Is(err, ErrSeatConflict):
            conflicts++
            var conflict *SeatConflictError
            require.ErrorAs(t, err, &conflict)
            assert.ElementsMatch(t, seats, conflict.Seats)
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    assert.Equal(t, 1, successes)
    assert.Equal(t, 1, conflicts)

    f, _ := store.FlightByID(context.Background(), 1)
    assert.Equal(t, uint32(2), f.AvailableSeats)
}

func TestCounterConservation(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 12, 6, 2, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    b1, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A"), passengerAt(1, "1B")},
    })
    require.NoError(t, err)
    _, err = svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(2), ContactEmail: "x@y.z",
        Passengers: []PassengerInput{passengerAt(2, "2C")},
    })
    require.NoError(t, err)

    check := func() {
        f, err := store.FlightByID(context.Background(), 1)
        require.NoError(t, err)
        active := uint32(0)
        store.mu.Lock()
        for _, b := range store.bookings {
            if b.FlightID == 1 && b.Active() {
                active += b.PassengerCount
            }
        }
        store.mu.Unlock()
        assert.Equal(t, f.TotalSeats, f.AvailableSeats+active)
    }
    check()

    _, err = svc.Cancel(context.Background(), b1.ID, userIdent(1), "plans changed")
    require.NoError(t, err)
    check()
}

func TestPayThenPayAgainThenCancel(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A"), passengerAt(1, "1B")},
    })
    require.NoError(t, err)

    paid, err := svc.Pay(context.Background(), b.ID, userIdent(1))
    require.NoError(t, err)
    assert.True(t, paid.IsPaid)
    require.NotNil(t, paid.PaymentDate)

    _, err = svc.Pay(context.Background(), b.ID, userIdent(1))
    assert.ErrorIs(t, err, ErrAlreadyPaid)

    // paying never blocks a later cancellation
    cancelled, err := svc.Cancel(context.Background(), b.ID, userIdent(1), "")
    require.NoError(t, err)
    assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
    f, _ := store.FlightByID(context.Background(), 1)
    assert.Equal(t, uint32(6), f.AvailableSeats)
}

func TestPayCancelledBooking(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    require.NoError(t, err)
    _, err = svc.Cancel(context.Background(), b.ID, userIdent(1), "")
    require.NoError(t, err)

    _, err = svc.Pay(context.Background(), b.ID, userIdent(1))
    assert.ErrorIs(t, err, ErrBookingCancelled)
}

func TestCancelTwice(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
        Passengers: []PassengerInput{passengerAt(0, "1A"), passengerAt(1, "1B")},
    })
    require.NoError(t, err)

    _, err = svc.Cancel(context.Background(), b.ID, userIdent(1), "")
    require.NoError(t, err)
    _, err = svc.Cancel(context.Background(), b.ID, userIdent(1), "")
    assert.ErrorIs(t, err, ErrAlreadyCancelled)

    // the second cancel must not increment the counter again
    f, _ := store.FlightByID(context.Background(), 1)
    assert.Equal(t, uint32(6), f.AvailableSeats)
}

func TestCancellationWindowBoundary(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

    t.Run("exactly 24h before departure succeeds", func(t *testing.T) {
        store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(24*time.Hour)))
        svc := NewService(store, nil)
        fixedNow(svc, now.Add(-time.Hour))
        b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
            Passengers: []PassengerInput{passengerAt(0, "1A")},
        })
        require.NoError(t, err)
        fixedNow(svc, now)
        _, err = svc.Cancel(context.Background(), b.ID, userIdent(1), "")
        assert.NoError(t, err)
    })

    t.Run("23h59m before departure fails", func(t *testing.T) {
        store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(24*time.Hour)))
        svc := NewService(store, nil)
        fixedNow(svc, now.Add(-time.Hour))
        b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
            Passengers: []PassengerInput{passengerAt(0, "1A")},
        })
        require.NoError(t, err)
        fixedNow(svc, now.Add(time.Minute))
        _, err = svc.Cancel(context.Background(), b.ID, userIdent(1), "")
        assert.ErrorIs(t, err, ErrCancellationWindowClosed)

        f, _ := store.FlightByID(context.Background(), 1)
        assert.Equal(t, uint32(5), f.AvailableSeats)
    })
}

func TestAuthorization(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: userIdent(1), ContactEmail: "owner@example.com",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    require.NoError(t, err)

    other := uint64(99)
    _, err = svc.Pay(context.Background(), b.ID, Identity{UserID: &other, Email: "other@example.com"})
    assert.ErrorIs(t, err, ErrUnauthorized)

    // matching contact email authorizes guests
    _, _, err = svc.Booking(context.Background(), b.ID, Identity{Email: "OWNER@example.com"})
    assert.NoError(t, err)

    // admins may act on any booking
    _, err = svc.Pay(context.Background(), b.ID, Identity{Admin: true})
    assert.NoError(t, err)
}

func TestLookupByReferenceAndEmail(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
        FlightID: 1, Identity: Identity{Email: "guest@example.com"}, ContactEmail: "guest@example.com",
        Passengers: []PassengerInput{passengerAt(0, "1A")},
    })
    require.NoError(t, err)

    got, passengers, err := svc.Lookup(context.Background(), b.BookingReference, "guest@example.com")
    require.NoError(t, err)
    assert.Equal(t, b.ID, got.ID)
    require.Len(t, passengers, 1)
    assert.Equal(t, "1A", passengers[0].SeatNumber)

    // a wrong email behaves exactly like a missing booking
    _, _, err = svc.Lookup(context.Background(), b.BookingReference, "stranger@example.com")
    assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestSerializationRetry(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

    t.Run("one failure is retried transparently", func(t *testing.T) {
        store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
        store.serialFails = 1
        svc := NewService(store, nil)
        fixedNow(svc, now)
        _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
            Passengers: []PassengerInput{passengerAt(0, "1A")},
        })
        assert.NoError(t, err)
    })

    t.Run("exhausted retries surface as concurrency error", func(t *testing.T) {
        store := newFakeStore(testFlight(1, 6, 6, 1, now.Add(72*time.Hour)))
        store.serialFails = 2
        svc := NewService(store, nil)
        fixedNow(svc, now)
        _, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(1), ContactEmail: "a@b.c",
            Passengers: []PassengerInput{passengerAt(0, "1A")},
        })
        assert.ErrorIs(t, err, ErrConcurrency)
    })
}

func TestReferenceUniquenessAcrossBookings(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    store := newFakeStore(testFlight(1, 30, 6, 5, now.Add(72*time.Hour)))
    svc := NewService(store, nil)
    fixedNow(svc, now)

    refs := map[string]bool{}
    for i := 0; i < 5; i++ {
        seat := string(rune('A'+i))
        b, err := svc.CreateBooking(context.Background(), CreateBookingRequest{
            FlightID: 1, Identity: userIdent(uint64(i + 1)), ContactEmail: "a@b.c",
            Passengers: []PassengerInput{passengerAt(i, "1"+seat)},
        })
        require.NoError(t, err)
        assert.False(t, refs[b.BookingReference], "duplicate reference %s", b.BookingReference)
        refs[b.BookingReference] = true
    }
}
