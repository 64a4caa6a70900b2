package repository

import (
    "context"
    "strings"

    "github.com/iliyamo/flight-reservation/internal/model"
)

// FlightSearchQuery defines filters & pagination for searching flights.
type FlightSearchQuery struct {
    From       string // departure city, case-insensitive substring
    To         string // arrival city, case-insensitive substring
    Date       string // departure date "2006-01-02", exact day
    TimeFilter string // "any" | "active" (default: upcoming departures)
    Page       int
    PageSize   int
}

// Search returns flights matching the query, newest departure first, plus
// the total match count for pagination.  By default only flights that
// have not yet departed are returned.
func (r *FlightRepo) Search(ctx context.Context, q FlightSearchQuery) ([]model.Flight, int64, error) {
    where := []string{}
    args := []any{}

    switch strings.ToLower(q.TimeFilter) {
    case "any":
    case "active":
        where = append(where, "f.status = ?")
        args = append(args, model.FlightStatusActive)
    default:
        where = append(where, "f.departure_time >= NOW()")
    }

    if q.From != "" {
        where = append(where, "LOWER(f.departure_city) LIKE ?")
        args = append(args, "%"+strings.ToLower(q.From)+"%")
    }
    if q.To != "" {
        where = append(where, "LOWER(f.arrival_city) LIKE ?")
        args = append(args, "%"+strings.ToLower(q.To)+"%")
    }
    if q.Date != "" {
        where = append(where, "DATE(f.departure_time) = ?")
        args = append(args, q.Date)
    }

    cond := "1=1"
    if len(where) > 0 {
        cond = strings.Join(where, " AND ")
    }

    var total int64
    countSQL := `SELECT COUNT(*) FROM flights f WHERE ` + cond
    if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    if q.Page < 1 {
        q.Page = 1
    }
    if q.PageSize < 1 || q.PageSize > 100 {
        q.PageSize = 20
    }
    limit := q.PageSize
    offset := (q.Page - 1) * q.PageSize

    dataSQL := `SELECT ` + flightColumns + `
        FROM flights f
        WHERE ` + cond + `
        ORDER BY f.departure_time ASC, f.id ASC
        LIMIT ? OFFSET ?`
    args = append(args, limit, offset)

    rows, err := r.db.QueryContext(ctx, dataSQL, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    out := make([]model.Flight, 0, limit)
    for rows.Next() {
        f, err := scanFlight(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *f)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}
