package weather

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	// ErrInvalidLocation is matched by errors for out-of-range coordinates.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidWindow is matched by errors for out-of-range day windows.
	ErrInvalidWindow = errors.New("invalid day window")
	// ErrInvalidDate is returned for a month/day that does not exist in the
	// 365-day climate year.
	ErrInvalidDate = errors.New("invalid calendar date")
	// ErrRetrievalFailed is matched by errors for non-200 responses.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrMalformedResponse is matched by errors for bodies that do not parse.
	ErrMalformedResponse = errors.New("malformed response")
)

// InvalidLocationError reports a latitude or longitude out of range.
type InvalidLocationError struct {
	Lat, Lon float64
	cause    error
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("invalid location (lat=%g, lon=%g): latitude must be in [-90,90] and longitude in [-180,180]", e.Lat, e.Lon)
}

func (e *InvalidLocationError) Is(target error) bool { return target == ErrInvalidLocation }

func (e *InvalidLocationError) Unwrap() error { return e.cause }

// InvalidWindowError reports a center day or half-width out of range.
type InvalidWindowError struct {
	CenterDay, HalfWidth int
	cause                error
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid day window (center=%d, halfWidth=%d): center must be in [1,%d] and half-width in [0,%d]",
		e.CenterDay, e.HalfWidth, DaysPerYear, MaxHalfWidth)
}

func (e *InvalidWindowError) Is(target error) bool { return target == ErrInvalidWindow }

func (e *InvalidWindowError) Unwrap() error { return e.cause }

// RetrievalError is returned when the extraction service answers with
// anything other than 200 OK.
type RetrievalError struct {
	StatusCode int
	Body       string
}

func (e *RetrievalError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("retrieval failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("retrieval failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrievalFailed }

// Retryable reports whether the status is worth another attempt.
func (e *RetrievalError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// MalformedResponseError is returned when the body cannot be parsed into
// the expected tabular shape. Line is 1-based within the full body, or 0
// when the problem is not tied to a line.
type MalformedResponseError struct {
	Line   int
	Reason string
	cause  error
}

func (e *MalformedResponseError) Error() string {
	msg := "malformed response"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	msg += ": " + e.Reason
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *MalformedResponseError) Unwrap() error { return e.cause }

// NewMalformedResponseError builds a MalformedResponseError.
func NewMalformedResponseError(line int, reason string, cause error) *MalformedResponseError {
	return &MalformedResponseError{Line: line, Reason: reason, cause: cause}
}
