package model

import "time"

// Booking statuses.  PENDING exists in the enum for a future hold/expiry
// feature but no code path currently produces it; bookings are created as
// CONFIRMED and the only transition out of CONFIRMED is CANCELLED.
const (
    BookingStatusPending   = "PENDING"
    BookingStatusConfirmed = "CONFIRMED"
    BookingStatusCancelled = "CANCELLED"
)

// Booking records the purchase of one or more seats on a flight under a
// single six-character reference (PNR).  The total price is frozen at
// creation time; later price changes on the flight never alter it.
// Passengers belonging to the booking are cascade-deleted with it.
//
// Fields:
//  ID                 – primary key identifier.
//  BookingReference   – unique 6-character [A-Z0-9] code.
//  UserID             – owning user; nil for guest bookings.
//  ContactEmail       – contact address; guests look bookings up by
//                       (reference, email).
//  FlightID           – flight being booked.
//  PassengerCount     – number of passengers (equals the passenger rows).
//  TotalPriceCents    – flight price × passenger count, frozen at creation.
//  Status             – CONFIRMED or CANCELLED (PENDING reserved, unused).
//  IsPaid             – payment flag; flipped once by the payment surface.
//  BookingDate        – creation timestamp.
//  PaymentDate        – when payment was recorded (nil while unpaid).
//  CancellationDate   – when the booking was cancelled (nil otherwise).
//  CancellationReason – optional free-text reason supplied on cancel.
type Booking struct {
    ID                 uint64     // bookings.id
    BookingReference   string     // bookings.booking_reference
    UserID             *uint64    // bookings.user_id (nullable)
    ContactEmail       string     // bookings.contact_email
    FlightID           uint64     // bookings.flight_id
    PassengerCount     uint32     // bookings.passenger_count
    TotalPriceCents    uint32     // bookings.total_price_cents
    Status             string     // bookings.status
    IsPaid             bool       // bookings.is_paid
    BookingDate        time.Time  // bookings.booking_date
    PaymentDate        *time.Time // bookings.payment_date (nullable)
    CancellationDate   *time.Time // bookings.cancellation_date (nullable)
    CancellationReason *string    // bookings.cancellation_reason (nullable)
}

// Active reports whether the booking still occupies its seats.  Only
// cancelled bookings release seats; every other status counts as active.
func (b *Booking) Active() bool {
    return b.Status != BookingStatusCancelled
}
