// Package pgxcasbin persists Casbin policies in PostgreSQL through pgx
// and propagates policy changes across instances with listen/notify.
package pgxcasbin

import "errors"

var (
	// ErrInvalidFilter indicates the load filter value is not supported.
	ErrInvalidFilter = errors.New("pgxcasbin: invalid filter type")
	// ErrRuleTooLong indicates a rule exceeds the column count.
	ErrRuleTooLong = errors.New("pgxcasbin: rule exceeds column count")
	// ErrEmptyPolicyType indicates a missing policy type.
	ErrEmptyPolicyType = errors.New("pgxcasbin: policy type is empty")
	// ErrPing indicates the database is unreachable.
	ErrPing = errors.New("pgxcasbin: failed to ping database")
	// ErrNotify indicates a pg_notify failure.
	ErrNotify = errors.New("pgxcasbin: failed to notify channel")
	// ErrListen indicates a listen channel failure.
	ErrListen = errors.New("pgxcasbin: failed to listen on channel")
)
