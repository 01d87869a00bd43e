package database

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation, optionally on one of the named constraints. The constraints are
// the authoritative guard for the race windows in slot assignment, session
// creation and attendance marking; repos translate violations into the
// matching domain Conflict error.
func isUniqueViolation(err error, constraints ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != pqUniqueViolation {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}
