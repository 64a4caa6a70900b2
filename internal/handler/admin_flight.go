package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/model"
    "github.com/iliyamo/flight-reservation/internal/repository"
    "github.com/iliyamo/flight-reservation/internal/seatmap"
)

// AdminHandler manages the flight catalogue.  All routes are guarded by
// JWT authentication plus the ADMIN role in the router.
type AdminHandler struct {
    Flights *repository.FlightRepo
}

// NewAdminHandler constructs an AdminHandler.  flights must be non-nil.
func NewAdminHandler(flights *repository.FlightRepo) *AdminHandler {
    if flights == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{Flights: flights}
}

var validFlightStatuses = map[string]bool{
    model.FlightStatusActive:    true,
    model.FlightStatusCancelled: true,
    model.FlightStatusDelayed:   true,
    model.FlightStatusCompleted: true,
}

// CreateFlight handles POST /v1/admin/flights.  It validates the seat
// grid parameters before insert: seats_per_row is capped by the widest
// supported cabin and total_seats must fit inside the derived grid.  New
// flights start ACTIVE with the full seat pool available.
func (h *AdminHandler) CreateFlight(c echo.Context) error {
    var body struct {
        FlightNumber  string `json:"flight_number"`
        DepartureCity string `json:"departure_city"`
        ArrivalCity   string `json:"arrival_city"`
        DepartureTime string `json:"departure_time"`
        ArrivalTime   string `json:"arrival_time"`
        PriceCents    uint32 `json:"price_cents"`
        TotalSeats    uint32 `json:"total_seats"`
        SeatsPerRow   uint32 `json:"seats_per_row"`
        TotalRows     uint32 `json:"total_rows"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if strings.TrimSpace(body.FlightNumber) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "flight_number is required"})
    }
    if strings.TrimSpace(body.DepartureCity) == "" || strings.TrimSpace(body.ArrivalCity) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_city and arrival_city are required"})
    }
    dep, err := time.Parse(time.RFC3339, body.DepartureTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid departure_time, expected RFC3339"})
    }
    arr, err := time.Parse(time.RFC3339, body.ArrivalTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid arrival_time, expected RFC3339"})
    }
    if !arr.After(dep) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be after departure_time"})
    }
    if body.SeatsPerRow < 1 || body.SeatsPerRow > seatmap.MaxSeatsPerRow {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats_per_row must be between 1 and 6"})
    }
    if body.TotalRows < 1 || body.TotalRows > seatmap.MaxRows {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_rows must be between 1 and 9999"})
    }
    if body.TotalSeats < 1 || body.TotalSeats > body.SeatsPerRow*body.TotalRows {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must fit within the seat grid"})
    }
    f := &model.Flight{
        FlightNumber:  body.FlightNumber,
        DepartureCity: strings.TrimSpace(body.DepartureCity),
        ArrivalCity:   strings.TrimSpace(body.ArrivalCity),
        DepartureTime: dep,
        ArrivalTime:   arr,
        PriceCents:    body.PriceCents,
        TotalSeats:    body.TotalSeats,
        SeatsPerRow:   body.SeatsPerRow,
        TotalRows:     body.TotalRows,
    }
    if err := h.Flights.Create(c.Request().Context(), f); err != nil {
        if errors.Is(err, repository.ErrFlightNumberTaken) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "flight number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": flightJSON(f)})
}

// UpdateStatus handles PATCH /v1/admin/flights/:id/status.  Status
// changes do not touch existing bookings; a cancelled flight simply
// stops accepting new ones.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    status := strings.ToUpper(strings.TrimSpace(body.Status))
    if !validFlightStatuses[status] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    if err := h.Flights.UpdateStatus(c.Request().Context(), id, status); err != nil {
        if errors.Is(err, booking.ErrFlightNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    f, err := h.Flights.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": flightJSON(f)})
}
