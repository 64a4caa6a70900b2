// Package database opens the MySQL handle the repositories share.
package database

import (
    "context"
    "database/sql"
    "net"
    "time"

    "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection before returning.
// ParseTime makes DATETIME columns scan into time.Time, and the session
// location is pinned to UTC to match the timestamps the booking engine
// writes.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    cfg := mysql.NewConfig()
    cfg.User = user
    cfg.Passwd = pass
    cfg.Net = "tcp"
    cfg.Addr = net.JoinHostPort(host, port)
    cfg.DBName = name
    cfg.ParseTime = true
    cfg.Loc = time.UTC
    cfg.Params = map[string]string{"charset": "utf8mb4"}

    db, err := sql.Open("mysql", cfg.FormatDSN())
    if err != nil {
        return nil, err
    }

    // Booking transactions hold the flight row lock for a handful of
    // statements, so contention on one flight queues briefly rather
    // than piling up connections.  The open cap leaves headroom for the
    // read side (search, seat maps) on top of concurrent bookings; a
    // small idle floor avoids reconnect churn between bursts.
    db.SetMaxOpenConns(40)
    db.SetMaxIdleConns(10)
    db.SetConnMaxLifetime(5 * time.Minute)
    db.SetConnMaxIdleTime(2 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
