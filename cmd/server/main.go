package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/flight-reservation/internal/booking"
    "github.com/iliyamo/flight-reservation/internal/config"
    "github.com/iliyamo/flight-reservation/internal/database"
    "github.com/iliyamo/flight-reservation/internal/handler"
    appmw "github.com/iliyamo/flight-reservation/internal/middleware"
    "github.com/iliyamo/flight-reservation/internal/queue"
    "github.com/iliyamo/flight-reservation/internal/repository"
    "github.com/iliyamo/flight-reservation/internal/router"
    qp "github.com/iliyamo/flight-reservation/internal/service"
)

func main() {
    // Load .env if present; real deployments set env vars directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; response cache and rate limiting disabled")
    }

    store := repository.NewStore(db)
    svc := booking.NewService(store, qp.New())

    flightHandler := handler.NewFlightHandler(store.Flights(), store)
    bookingHandler := handler.NewBookingHandler(svc)
    adminHandler := handler.NewAdminHandler(store.Flights())

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    cache := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterFlights(e, flightHandler, cache)
    router.RegisterBookings(e, bookingHandler, cfg.JWTSecret)
    router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

    // Background consumer turning booking events into notification log
    // lines.  It reconnects on broker failures and never blocks the API.
    go func() {
        if err := queue.StartNotificationConsumer(); err != nil {
            log.Printf("notification consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
