package model

import "time"

// Passenger belongs to exactly one booking and holds exactly one seat on
// the booking's flight.  The seat assignment references the flight's
// derived seat grid by code (e.g. "12A"); there is no separate seat table.
//
// Fields:
//  ID             – primary key identifier.
//  BookingID      – owning booking (rows cascade-delete with it).
//  FirstName      – given name.
//  LastName       – family name.
//  IdentityNumber – 11-digit national identity number (checksum-validated).
//  DateOfBirth    – date of birth.
//  Gender         – free-form gender designator as submitted.
//  SeatNumber     – assigned seat code within the flight grid.
//  SeatType       – WINDOW, AISLE or MIDDLE, derived from the column.
type Passenger struct {
    ID             uint64    // passengers.id
    BookingID      uint64    // passengers.booking_id
    FirstName      string    // passengers.first_name
    LastName       string    // passengers.last_name
    IdentityNumber string    // passengers.identity_number
    DateOfBirth    time.Time // passengers.date_of_birth
    Gender         string    // passengers.gender
    SeatNumber     string    // passengers.seat_number
    SeatType       string    // passengers.seat_type
}
