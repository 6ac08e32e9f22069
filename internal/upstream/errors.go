package upstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream calls.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidBody     = errors.New("upstream returned a non-JSON body")
)

// ConnectionError reports a failed upstream call: either a non-success
// status other than a detail 404, or a transport failure (StatusCode 0).
type ConnectionError struct {
	Path       string
	StatusCode int
	Reason     string
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream GET %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("upstream GET %s: %d %s", e.Path, e.StatusCode, e.Reason)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
