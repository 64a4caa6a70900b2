package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-reservation/internal/handler"
    "github.com/iliyamo/flight-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterFlights registers the public read side: flight search, flight
// details and the seat map.  The cache middleware fronts the search and
// seat-map endpoints, which are read-heavy and tolerate a briefly stale
// occupancy view.
func RegisterFlights(e *echo.Echo, f *handler.FlightHandler, cache echo.MiddlewareFunc) {
    e.GET("/v1/flights", f.Search, cache)
    e.GET("/v1/flights/:id", f.Get)
    e.GET("/v1/flights/:id/seatmap", f.SeatMap, cache)
}

// RegisterBookings registers booking creation and management routes.
// Creation and the reference-based pay/cancel/lookup endpoints accept
// guests, so they run behind OptionalJWT: a valid token attaches the
// caller identity, no token means a guest authenticated by contact
// email.  The /v1/bookings/:id surface and /v1/my-bookings require a
// valid token.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
    guest := e.Group("/v1", middleware.OptionalJWT(jwtSecret))
    guest.POST("/flights/:id/bookings", b.Create)
    guest.GET("/bookings/lookup", b.Lookup)
    guest.POST("/bookings/pay", b.PayByReference)
    guest.POST("/bookings/cancel", b.CancelByReference)

    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/my-bookings", b.ListMine)
    auth.GET("/bookings/:id", b.Get)
    auth.POST("/bookings/:id/pay", b.Pay)
    auth.DELETE("/bookings/:id", b.Cancel)
}

// RegisterAdmin registers flight management routes for operators.  The
// ADMIN role claim is required on top of a valid token.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
    g.POST("/flights", a.CreateFlight)
    g.PATCH("/flights/:id/status", a.UpdateStatus)
}
