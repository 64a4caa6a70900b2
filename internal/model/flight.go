package model

import "time"

// Flight lifecycle statuses.  A flight only accepts bookings while it is
// ACTIVE.  DELAYED flights remain bookable from the engine's point of view
// only after an admin flips them back to ACTIVE; the engine itself never
// changes a flight's status.
const (
    FlightStatusActive    = "ACTIVE"    // flight is scheduled and bookable
    FlightStatusCancelled = "CANCELLED" // flight was cancelled by an admin
    FlightStatusDelayed   = "DELAYED"   // flight is delayed, not bookable
    FlightStatusCompleted = "COMPLETED" // flight has departed/landed
)

// Flight represents a single scheduled flight and its seat inventory.
// AvailableSeats is the authoritative counter for remaining capacity and
// is mutated exclusively inside the flight-scoped transaction used by the
// booking engine (decrement on create, increment on cancel).  The seat
// grid itself is derived from SeatsPerRow and TotalRows and never stored.
//
// Fields:
//  ID             – primary key identifier.
//  FlightNumber   – public flight designator (e.g. "TK1923"), unique.
//  DepartureCity  – origin city.
//  ArrivalCity    – destination city.
//  DepartureTime  – scheduled departure (UTC).
//  ArrivalTime    – scheduled arrival (UTC).
//  PriceCents     – flat price per seat in cents.
//  TotalSeats     – sellable seat count; never exceeds SeatsPerRow×TotalRows.
//  AvailableSeats – remaining seats (0 ≤ AvailableSeats ≤ TotalSeats).
//  SeatsPerRow    – seats per row (1..6, columns lettered A..).
//  TotalRows      – number of rows in the cabin grid.
//  Status         – lifecycle status (see constants above).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Flight struct {
    ID             uint64    // flights.id
    FlightNumber   string    // flights.flight_number
    DepartureCity  string    // flights.departure_city
    ArrivalCity    string    // flights.arrival_city
    DepartureTime  time.Time // flights.departure_time
    ArrivalTime    time.Time // flights.arrival_time
    PriceCents     uint32    // flights.price_cents
    TotalSeats     uint32    // flights.total_seats
    AvailableSeats uint32    // flights.available_seats
    SeatsPerRow    uint32    // flights.seats_per_row
    TotalRows      uint32    // flights.total_rows
    Status         string    // flights.status
    CreatedAt      time.Time // flights.created_at
    UpdatedAt      time.Time // flights.updated_at
}
