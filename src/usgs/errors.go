package usgs

import (
	"errors"
	"fmt"
)

var (
	ErrBadQuery           = errors.New("query rejected by USGS")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("USGS service unavailable")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts API errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrBadQuery) {
		return &UserError{
			Message: "USGS rejected the query",
			Hint:    "Check the search window and bounds. Very long durations over large radii can exceed the 20000 event limit.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrRateLimited) {
		return &UserError{
			Message: "USGS rate limit reached",
			Hint:    "Wait a few minutes before querying again, or lower the polling frequency.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrServiceUnavailable) {
		return &UserError{
			Message: "USGS earthquake service is unavailable",
			Hint:    "The catalog may be under maintenance. Retry later.",
			Err:     err,
		}
	}

	return err
}
