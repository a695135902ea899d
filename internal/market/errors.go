package market

import (
	"errors"
	"fmt"
)

// ErrNewsFetch is returned, wrapped, for any trending-news failure
var ErrNewsFetch = errors.New("failed to fetch trending news")

// StatusError reports a provider reply with a non-200 HTTP status.
// Calls are never retried.
type StatusError struct {
	Provider   string
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Provider, e.Endpoint, e.StatusCode)
}

// IsStatusError reports whether err wraps a StatusError
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// AsStatusError extracts the StatusError wrapped by err
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
