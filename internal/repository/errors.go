// Package repository defines the MySQL data access layer and the sentinel
// errors shared across repositories. These sentinel values allow higher
// layers such as services to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist, or when a
// conditional write matched no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create on a unique index violation.
var ErrEmailExists = errors.New("email already exists")

// ErrSlotFull is returned when a slot already holds its maximum number of
// active bookings.
var ErrSlotFull = errors.New("slot full")

// ErrInvalidTransition is returned when a status write would break the
// booking transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
