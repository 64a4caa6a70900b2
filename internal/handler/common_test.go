package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/flight-reservation/internal/booking"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestWriteBookingErrorStatusCodes(t *testing.T) {
    cases := []struct {
        err  error
        want int
    }{
        {booking.ErrFlightNotFound, http.StatusNotFound},
        {booking.ErrBookingNotFound, http.StatusNotFound},
        {booking.ErrInsufficientSeats, http.StatusConflict},
        {booking.ErrInvalidSeatSelection, http.StatusBadRequest},
        {booking.ErrDuplicatePassenger, http.StatusBadRequest},
        {booking.ErrInvalidIdentityNumber, http.StatusBadRequest},
        {booking.ErrAlreadyPaid, http.StatusConflict},
        {booking.ErrBookingCancelled, http.StatusConflict},
        {booking.ErrAlreadyCancelled, http.StatusConflict},
        {booking.ErrCancellationWindowClosed, http.StatusConflict},
        {booking.ErrUnauthorized, http.StatusForbidden},
        {booking.ErrConcurrency, http.StatusConflict},
        {assert.AnError, http.StatusInternalServerError},
    }
    for _, tc := range cases {
        c, rec := newTestContext(t)
        require.NoError(t, writeBookingError(c, tc.err))
        assert.Equal(t, tc.want, rec.Code, tc.err.Error())
    }
}

func TestWriteBookingErrorSeatConflictCarriesSeats(t *testing.T) {
    c, rec := newTestContext(t)
    err := &booking.SeatConflictError{Seats: []string{"1A", "1B"}}
    require.NoError(t, writeBookingError(c, err))
    assert.Equal(t, http.StatusConflict, rec.Code)

    var body struct {
        Error string   `json:"error"`
        Seats []string `json:"seats"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, []string{"1A", "1B"}, body.Seats)
}

func TestGetUserIDClaimShapes(t *testing.T) {
    // JWT claims arrive as float64; internal callers may set other types
    for _, v := range []interface{}{uint64(42), int(42), int64(42), float64(42), "42"} {
        c, _ := newTestContext(t)
        c.Set("user_id", v)
        id, err := getUserID(c)
        require.NoError(t, err)
        assert.Equal(t, uint64(42), id)
    }
    c, _ := newTestContext(t)
    _, err := getUserID(c)
    assert.Error(t, err)
}

func TestIdentityFrom(t *testing.T) {
    c, _ := newTestContext(t)
    ident := identityFrom(c)
    assert.Nil(t, ident.UserID)
    assert.Empty(t, ident.Email)
    assert.False(t, ident.Admin)

    c, _ = newTestContext(t)
    c.Set("user_id", float64(7))
    c.Set("email", "user@example.com")
    c.Set("role", "ADMIN")
    ident = identityFrom(c)
    require.NotNil(t, ident.UserID)
    assert.Equal(t, uint64(7), *ident.UserID)
    assert.Equal(t, "user@example.com", ident.Email)
    assert.True(t, ident.Admin)

    c, _ = newTestContext(t)
    c.Set("user_id", float64(7))
    c.Set("role", "CUSTOMER")
    assert.False(t, identityFrom(c).Admin)
}
