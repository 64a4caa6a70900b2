package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/model"
)

// getUserID extracts the user_id claim from echo.Context and converts it
// to uint64.  JWT claims decode numbers as float64, so several shapes
// must be accepted.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// identityFrom builds the caller identity from the claims injected by the
// JWT middleware.  Requests without a token produce a guest identity with
// every field zero; guest surfaces then supply the contact email from the
// request itself.
func identityFrom(c echo.Context) booking.Identity {
    var ident booking.Identity
    if id, err := getUserID(c); err == nil {
        ident.UserID = &id
    }
    if email, ok := c.Get("email").(string); ok {
        ident.Email = email
    }
    if role, ok := c.Get("role").(string); ok && role == "ADMIN" {
        ident.Admin = true
    }
    return ident
}

// writeBookingError translates the booking package's sentinel errors into
// HTTP responses.  Unknown errors map to a generic 500 so internals never
// leak to clients.
func writeBookingError(c echo.Context, err error) error {
    var conflict *booking.SeatConflictError
    if errors.As(err, &conflict) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error": "seats already taken",
            "seats": conflict.Seats,
        })
    }
    switch {
    case errors.Is(err, booking.ErrFlightNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
    case errors.Is(err, booking.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, booking.ErrInsufficientSeats):
        return c.JSON(http.StatusConflict, echo.Map{"error": "not enough available seats"})
    case errors.Is(err, booking.ErrInvalidSeatSelection):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat selection"})
    case errors.Is(err, booking.ErrDuplicatePassenger):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate passenger identity number"})
    case errors.Is(err, booking.ErrInvalidIdentityNumber):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid identity number"})
    case errors.Is(err, booking.ErrAlreadyPaid):
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking already paid"})
    case errors.Is(err, booking.ErrBookingCancelled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
    case errors.Is(err, booking.ErrAlreadyCancelled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
    case errors.Is(err, booking.ErrCancellationWindowClosed):
        return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window closed"})
    case errors.Is(err, booking.ErrUnauthorized):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, booking.ErrConcurrency):
        return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent booking activity, please retry"})
    case errors.Is(err, booking.ErrDuplicateReference):
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to allocate booking reference"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// flightJSON renders a flight for API responses.
func flightJSON(f *model.Flight) echo.Map {
    return echo.Map{
        "id":              f.ID,
        "flight_number":   f.FlightNumber,
        "departure_city":  f.DepartureCity,
        "arrival_city":    f.ArrivalCity,
        "departure_time":  f.DepartureTime.UTC().Format(time.RFC3339),
        "arrival_time":    f.ArrivalTime.UTC().Format(time.RFC3339),
        "price_cents":     f.PriceCents,
        "total_seats":     f.TotalSeats,
        "available_seats": f.AvailableSeats,
        "seats_per_row":   f.SeatsPerRow,
        "total_rows":      f.TotalRows,
        "status":          f.Status,
    }
}

// bookingJSON renders a booking with its passengers.  passengers may be
// nil for list views.
func bookingJSON(b *model.Booking, passengers []model.Passenger) echo.Map {
    m := echo.Map{
        "id":                b.ID,
        "booking_reference": b.BookingReference,
        "flight_id":         b.FlightID,
        "contact_email":     b.ContactEmail,
        "passenger_count":   b.PassengerCount,
        "total_price_cents": b.TotalPriceCents,
        "status":            b.Status,
        "is_paid":           b.IsPaid,
        "booking_date":      b.BookingDate.UTC().Format(time.RFC3339),
    }
    if b.PaymentDate != nil {
        m["payment_date"] = b.PaymentDate.UTC().Format(time.RFC3339)
    }
    if b.CancellationDate != nil {
        m["cancellation_date"] = b.CancellationDate.UTC().Format(time.RFC3339)
    }
    if b.CancellationReason != nil {
        m["cancellation_reason"] = *b.CancellationReason
    }
    if passengers != nil {
        items := make([]echo.Map, 0, len(passengers))
        for i := range passengers {
            items = append(items, passengerJSON(&passengers[i]))
        }
        m["passengers"] = items
    }
    return m
}

func passengerJSON(p *model.Passenger) echo.Map {
    return echo.Map{
        "first_name":    p.FirstName,
        "last_name":     p.LastName,
        "date_of_birth": p.DateOfBirth.UTC().Format("2006-01-02"),
        "gender":        p.Gender,
        "seat_number":   p.SeatNumber,
        "seat_type":     p.SeatType,
    }
}
