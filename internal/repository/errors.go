// Package repository defines error helpers shared across repositories.
// Domain-level failure kinds live in internal/booking; this file only
// adds persistence-specific sentinels and the MySQL error translations
// that map driver codes onto those kinds.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrFlightNumberTaken is returned when an insert collides with the
// unique index on flights.flight_number.
var ErrFlightNumberTaken = errors.New("flight number already in use")

// MySQL server error codes relevant to the booking engine's contracts.
const (
    mysqlErrDuplicateEntry  = 1062 // unique constraint violation
    mysqlErrLockWaitTimeout = 1205
    mysqlErrDeadlock        = 1213
)

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}

// isSerializationFailure reports whether err is a deadlock or lock-wait
// timeout, i.e. the transaction lost a race and should be retried by the
// caller under the engine's bounded-retry policy.
func isSerializationFailure(err error) bool {
    var me *mysql.MySQLError
    if !errors.As(err, &me) {
        return false
    }
    return me.Number == mysqlErrDeadlock || me.Number == mysqlErrLockWaitTimeout
}
