package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/repository"
    "github.com/iliyamo/flight-reservation/internal/seatmap"
)

// FlightHandler serves the public read side: flight search, flight
// details and the derived seat map.  None of these endpoints require
// authentication; the seat map they expose is advisory and the booking
// engine re-validates everything at commit time.
type FlightHandler struct {
    Flights *repository.FlightRepo
    Store   *repository.Store
}

// NewFlightHandler constructs a FlightHandler.  Both dependencies must be
// non-nil.
func NewFlightHandler(flights *repository.FlightRepo, store *repository.Store) *FlightHandler {
    if flights == nil || store == nil {
        panic("nil dependency passed to NewFlightHandler")
    }
    return &FlightHandler{Flights: flights, Store: store}
}

// Search handles GET /v1/flights.  Supported query parameters: from, to
// (case-insensitive substring match on the cities), date (YYYY-MM-DD),
// time_filter (any|active), page and page_size.
func (h *FlightHandler) Search(c echo.Context) error {
    q := repository.FlightSearchQuery{
        From:       c.QueryParam("from"),
        To:         c.QueryParam("to"),
        Date:       c.QueryParam("date"),
        TimeFilter: c.QueryParam("time_filter"),
    }
    if v := c.QueryParam("page"); v != "" {
        q.Page, _ = strconv.Atoi(v)
    }
    if v := c.QueryParam("page_size"); v != "" {
        q.PageSize, _ = strconv.Atoi(v)
    }
    flights, total, err := h.Flights.Search(c.Request().Context(), q)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items := make([]echo.Map, 0, len(flights))
    for i := range flights {
        items = append(items, flightJSON(&flights[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": items,
        "total": total,
    })
}

// Get handles GET /v1/flights/:id and returns a single flight.
func (h *FlightHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
    }
    f, err := h.Flights.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, booking.ErrFlightNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": flightJSON(f)})
}

// SeatMap handles GET /v1/flights/:id/seatmap.  It generates the seat
// grid from the flight's layout parameters and annotates it with the
// seats held by non-cancelled bookings.  The occupancy shown here can be
// a few seconds stale when the response cache is enabled; seat ownership
// is decided only inside the booking transaction.
func (h *FlightHandler) SeatMap(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
    }
    ctx := c.Request().Context()
    f, err := h.Flights.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, booking.ErrFlightNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    rows, err := seatmap.Layout(int(f.SeatsPerRow), int(f.TotalRows))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid flight layout"})
    }
    occupied, err := h.Store.OccupiedSeats(ctx, f.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    rows = seatmap.Annotate(rows, occupied)
    return c.JSON(http.StatusOK, echo.Map{
        "flight_id":       f.ID,
        "flight_number":   f.FlightNumber,
        "seats_per_row":   f.SeatsPerRow,
        "total_rows":      f.TotalRows,
        "available_seats": f.AvailableSeats,
        "rows":            rows,
    })
}
