package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-reservation/internal/booking"
)

// BookingHandler exposes booking creation, lookup, payment and
// cancellation.  Creation and the reference-based operations accept both
// authenticated customers and guests; the /v1/bookings/:id surface
// requires a token.  All state transitions are delegated to the booking
// service, which owns the transaction and precondition checks.
type BookingHandler struct {
    Svc *booking.Service
}

// NewBookingHandler constructs a BookingHandler.  svc must be non-nil.
func NewBookingHandler(svc *booking.Service) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Svc: svc}
}

type passengerBody struct {
    FirstName      string `json:"first_name"`
    LastName       string `json:"last_name"`
    IdentityNumber string `json:"identity_number"`
    DateOfBirth    string `json:"date_of_birth"`
    Gender         string `json:"gender"`
    Seat           string `json:"seat"`
}

// Create handles POST /v1/flights/:id/bookings.  The body carries the
// contact email and one entry per passenger, each naming the seat they
// selected.  Guests must supply contact_email; for authenticated callers
// it defaults to the token's email claim.
func (h *BookingHandler) Create(c echo.Context) error {
    flightID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || flightID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
    }
    var body struct {
        ContactEmail string          `json:"contact_email"`
        Passengers   []passengerBody `json:"passengers"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ident := identityFrom(c)
    email := strings.TrimSpace(body.ContactEmail)
    if email == "" {
        email = ident.Email
    }
    if email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact_email is required"})
    }
    if len(body.Passengers) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "passengers is required"})
    }
    passengers := make([]booking.PassengerInput, 0, len(body.Passengers))
    for _, p := range body.Passengers {
        if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger name is required"})
        }
        dob, err := time.Parse("2006-01-02", p.DateOfBirth)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_of_birth, expected YYYY-MM-DD"})
        }
        passengers = append(passengers, booking.PassengerInput{
            FirstName:      strings.TrimSpace(p.FirstName),
            LastName:       strings.TrimSpace(p.LastName),
            IdentityNumber: strings.TrimSpace(p.IdentityNumber),
            DateOfBirth:    dob,
            Gender:         strings.TrimSpace(p.Gender),
            Seat:           strings.ToUpper(strings.TrimSpace(p.Seat)),
        })
    }
    b, err := h.Svc.CreateBooking(c.Request().Context(), booking.CreateBookingRequest{
        FlightID:     flightID,
        Identity:     ident,
        ContactEmail: email,
        Passengers:   passengers,
    })
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": bookingJSON(b, nil)})
}

// Lookup handles GET /v1/bookings/lookup?reference=&email=.  The pair
// acts as the guest credential; a wrong email behaves exactly like a
// missing booking so the reference alone leaks nothing.
func (h *BookingHandler) Lookup(c echo.Context) error {
    reference := c.QueryParam("reference")
    email := c.QueryParam("email")
    if reference == "" || email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference and email are required"})
    }
    b, passengers, err := h.Svc.Lookup(c.Request().Context(), reference, email)
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": bookingJSON(b, passengers)})
}

// PayByReference handles POST /v1/bookings/pay for guests.  The booking
// is resolved by (reference, email) and paid under a guest identity
// carrying that email.
func (h *BookingHandler) PayByReference(c echo.Context) error {
    var body struct {
        Reference string `json:"reference"`
        Email     string `json:"email"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Reference == "" || body.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference and email are required"})
    }
    b, _, err := h.Svc.Lookup(c.Request().Context(), body.Reference, body.Email)
    if err != nil {
        return writeBookingError(c, err)
    }
    paid, err := h.Svc.Pay(c.Request().Context(), b.ID, booking.Identity{Email: body.Email})
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": bookingJSON(paid, nil)})
}

// CancelByReference handles POST /v1/bookings/cancel for guests.
func (h *BookingHandler) CancelByReference(c echo.Context) error {
    var body struct {
        Reference string `json:"reference"`
        Email     string `json:"email"`
        Reason    string `json:"reason"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Reference == "" || body.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference and email are required"})
    }
    b, _, err := h.Svc.Lookup(c.Request().Context(), body.Reference, body.Email)
    if err != nil {
        return writeBookingError(c, err)
    }
    cancelled, err := h.Svc.Cancel(c.Request().Context(), b.ID, booking.Identity{Email: body.Email}, body.Reason)
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": bookingJSON(cancelled, nil)})
}

// ListMine handles GET /v1/my-bookings for authenticated customers.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Svc.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items := make([]echo.Map, 0, len(bookings))
    for i := range bookings {
        items = append(items, bookingJSON(&bookings[i], nil))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.  Callers only see bookings they own.
func (h *BookingHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, passengers, err := h.Svc.Booking(c.Request().Context(), id, identityFrom(c))
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": bookingJSON(b, passengers)})
}

// Pay handles POST /v1/bookings/:id/pay for authenticated customers.
func (h *BookingHandler) Pay(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    paid, err := h.Svc.Pay(c.Request().Context(), id, identityFrom(c))
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": bookingJSON(paid, nil)})
}

// Cancel handles DELETE /v1/bookings/:id for authenticated customers.
// An optional cancellation reason is read from the body.
func (h *BookingHandler) Cancel(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var body struct {
        Reason string `json:"reason"`
    }
    // DELETE bodies are optional; ignore bind failures on an empty body.
    _ = c.Bind(&body)
    cancelled, err := h.Svc.Cancel(c.Request().Context(), id, identityFrom(c), body.Reason)
    if err != nil {
        return writeBookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": bookingJSON(cancelled, nil)})
}
