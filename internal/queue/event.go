// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and the background consumer.
const (
    BookingConfirmedQueue = "booking.confirmed"
    BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published after a booking commits.  It carries
// enough information for downstream consumers to notify the customer or
// feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID        uint64   `json:"booking_id"`
    BookingReference string   `json:"booking_reference"`
    ContactEmail     string   `json:"contact_email"`
    FlightNumber     string   `json:"flight_number"`
    DepartureCity    string   `json:"departure_city"`
    ArrivalCity      string   `json:"arrival_city"`
    DepartureTime    string   `json:"departure_time"`
    Seats            []string `json:"seats"`
    PassengerCount   uint32   `json:"passenger_count"`
    TotalPriceCents  uint32   `json:"total_price_cents"`
    ConfirmedAt      string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation commits.  The
// released seats are listed so consumers can act on freed inventory.
type BookingCancelledEvent struct {
    BookingID        uint64   `json:"booking_id"`
    BookingReference string   `json:"booking_reference"`
    ContactEmail     string   `json:"contact_email"`
    FlightNumber     string   `json:"flight_number"`
    Seats            []string `json:"seats"`
    Reason           string   `json:"reason,omitempty"`
    CancelledAt      string   `json:"cancelled_at"`
}
