// Package seatmap derives a flight's seat grid from its two layout
// parameters (seats per row, total rows).  The grid is a pure function of
// those integers: it is never persisted, and identical inputs always
// produce an identical layout.  Occupancy is applied afterwards as an
// annotation over the generated grid.
package seatmap

import (
    "errors"
    "fmt"
)

// Seat type classifications derived from a seat's column position.  The
// outermost two columns are WINDOW, the next-innermost two are AISLE and
// anything left in between is MIDDLE.  For narrow rows (three seats or
// fewer) the window rule wins where the two rules overlap.
const (
    SeatTypeWindow = "WINDOW"
    SeatTypeAisle  = "AISLE"
    SeatTypeMiddle = "MIDDLE"
)

// MaxSeatsPerRow bounds the supported cabin width.  Columns are lettered
// sequentially from 'A', so six seats per row spans A..F.
const MaxSeatsPerRow = 6

// MaxRows bounds the cabin length to what a canonical seat code can
// express (see maxRowDigits).
const MaxRows = 9999

// exitRows lists the fixed row numbers flagged as exit rows.  Rows beyond
// the flight's TotalRows are simply absent from the layout.
var exitRows = map[int]bool{1: true, 10: true, 20: true, 30: true}

// ErrInvalidDimensions is returned by Layout when the grid parameters are
// outside the supported range.
var ErrInvalidDimensions = errors.New("invalid seat grid dimensions")

// Seat is a single position in the derived grid.  Number is the public
// seat code ("12A").  Occupied is false in a freshly generated layout and
// set by Annotate.
type Seat struct {
    Number   string `json:"seat_number"`
    Column   string `json:"column"`
    Type     string `json:"seat_type"`
    Occupied bool   `json:"is_occupied"`
}

// Row groups the seats sharing a row number, in column order A, B, C, …
type Row struct {
    Number  int    `json:"row"`
    ExitRow bool   `json:"is_exit_row"`
    Seats   []Seat `json:"seats"`
}

// Classify returns the seat type for the given zero-based column index in
// a row of seatsPerRow seats.  Window classification takes priority over
// aisle when the rules overlap on narrow rows.
func Classify(col, seatsPerRow int) string {
    switch {
    case col == 0 || col == seatsPerRow-1:
        return SeatTypeWindow
    case col == 1 || col == seatsPerRow-2:
        return SeatTypeAisle
    default:
        return SeatTypeMiddle
    }
}

// Layout produces the ordered seat grid for the given dimensions: rows
// 1..totalRows, each holding seatsPerRow seats lettered from 'A'.  It is
// deterministic.  seatsPerRow must be 1..MaxSeatsPerRow and totalRows
// 1..MaxRows, otherwise ErrInvalidDimensions is returned.
func Layout(seatsPerRow, totalRows int) ([]Row, error) {
    if seatsPerRow < 1 || seatsPerRow > MaxSeatsPerRow || totalRows < 1 || totalRows > MaxRows {
        return nil, ErrInvalidDimensions
    }
    rows := make([]Row, 0, totalRows)
    for r := 1; r <= totalRows; r++ {
        row := Row{
            Number:  r,
            ExitRow: exitRows[r],
            Seats:   make([]Seat, 0, seatsPerRow),
        }
        for c := 0; c < seatsPerRow; c++ {
            letter := string(rune('A' + c))
            row.Seats = append(row.Seats, Seat{
                Number: fmt.Sprintf("%d%s", r, letter),
                Column: letter,
                Type:   Classify(c, seatsPerRow),
            })
        }
        rows = append(rows, row)
    }
    return rows, nil
}

// Annotate sets the Occupied flag on every seat whose code appears in the
// occupied set.  It mutates and returns the given rows.  The occupancy
// view backing the set is advisory only; the booking engine re-checks
// occupancy under its own transaction before committing.
func Annotate(rows []Row, occupied map[string]struct{}) []Row {
    for i := range rows {
        for j := range rows[i].Seats {
            _, taken := occupied[rows[i].Seats[j].Number]
            rows[i].Seats[j].Occupied = taken
        }
    }
    return rows
}

// maxRowDigits bounds the row part of a seat code.  Layout never emits
// more than four digits, and the cap keeps the accumulator below any
// integer wraparound for adversarial inputs.
const maxRowDigits = 4

// ParseSeat splits a seat code such as "12A" into its row number and
// zero-based column index.  Only canonical codes are accepted: the exact
// strings Layout emits.  That means one to four digits with no leading
// zero, followed by a single uppercase column letter.  Occupancy is
// compared by string, so an alias like "01A" for seat "1A" must be
// rejected here or the same physical seat could be booked twice.
func ParseSeat(code string) (row int, col int, ok bool) {
    if len(code) < 2 || len(code) > maxRowDigits+1 {
        return 0, 0, false
    }
    letter := code[len(code)-1]
    if letter < 'A' || letter > 'Z' {
        return 0, 0, false
    }
    digits := code[:len(code)-1]
    if digits[0] == '0' {
        return 0, 0, false
    }
    for _, ch := range digits {
        if ch < '0' || ch > '9' {
            return 0, 0, false
        }
        row = row*10 + int(ch-'0')
    }
    return row, int(letter - 'A'), true
}

// Contains reports whether the seat code names a position inside a grid
// of the given dimensions.
func Contains(seatsPerRow, totalRows int, code string) bool {
    row, col, ok := ParseSeat(code)
    if !ok {
        return false
    }
    return row >= 1 && row <= totalRows && col >= 0 && col < seatsPerRow
}

// TypeOf returns the seat type for a seat code within a row of
// seatsPerRow seats.  The code must be well-formed; callers validate
// membership with Contains first.
func TypeOf(code string, seatsPerRow int) string {
    _, col, ok := ParseSeat(code)
    if !ok {
        return SeatTypeMiddle
    }
    return Classify(col, seatsPerRow)
}
