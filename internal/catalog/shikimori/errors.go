package shikimori

import (
	"errors"
	"fmt"
)

// Sentinel errors for Shikimori API operations.
var (
	ErrUnavailable = errors.New("shikimori: unreachable or timed out")
	ErrRateLimited = errors.New("shikimori: rate limited by server")
	ErrServer      = errors.New("shikimori: server error")
	ErrBadStatus   = errors.New("shikimori: unexpected status")
	ErrDecode      = errors.New("shikimori: malformed response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // Operation: "search", "byID", "browse", "topByYear"
	Query string // Search term, id, or genre if applicable
	Err   error
}

func (e *Error) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("shikimori %s [%s]: %v", e.Op, e.Query, e.Err)
	}
	return fmt.Sprintf("shikimori %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
