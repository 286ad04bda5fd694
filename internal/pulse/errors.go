package pulse

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is matched by every datastore read failure.
var ErrDataUnavailable = errors.New("data unavailable")

// DataUnavailableError wraps a failed datastore query.
type DataUnavailableError struct {
	Op  string
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDataUnavailable, e.Op, e.Err)
}

func (e *DataUnavailableError) Unwrap() []error {
	return []error{ErrDataUnavailable, e.Err}
}

// RemoteErrorKind names a recoverable failure of the analysis webhook.
type RemoteErrorKind string

const (
	RemoteTimeout         RemoteErrorKind = "REMOTE_TIMEOUT"
	RemoteUnstable        RemoteErrorKind = "REMOTE_UNSTABLE"
	RemoteMalformed       RemoteErrorKind = "REMOTE_MALFORMED"
	RemoteEmpty           RemoteErrorKind = "REMOTE_EMPTY"
	RemoteConnectionError RemoteErrorKind = "REMOTE_CONNECTION_ERROR"
)

// RemoteError is returned by the analysis requester. None of its kinds are fatal.
type RemoteError struct {
	Kind   RemoteErrorKind
	Status int
	Detail string
	Err    error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case RemoteUnstable:
		return fmt.Sprintf("analysis engine unstable: status %d", e.Status)
	case RemoteTimeout:
		return "analysis engine timed out"
	case RemoteMalformed:
		return "analysis engine returned a malformed response"
	case RemoteEmpty:
		return "analysis engine returned no ticker data"
	default:
		if e.Detail != "" {
			return "analysis engine connection failed: " + e.Detail
		}
		return "analysis engine connection failed"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Warning is the user facing message for the condition.
func (e *RemoteError) Warning() string {
	switch e.Kind {
	case RemoteUnstable:
		return fmt.Sprintf("Engine error: status %d. Showing cached data.", e.Status)
	case RemoteTimeout:
		return "Engine timed out. Showing cached data."
	case RemoteMalformed:
		return "Engine returned an unreadable response. Showing cached data."
	case RemoteEmpty:
		return "Engine returned no data for this ticker. Showing cached data."
	default:
		return "Sync failed: " + e.Error() + ". Showing cached data."
	}
}

// AsRemoteError extracts a *RemoteError from err.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
