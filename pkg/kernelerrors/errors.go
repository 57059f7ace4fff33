// Package kernelerrors provides the kernel's closed error surface. No
// free-form error string ever crosses the event-engine boundary; every
// rejection carries one of the codes below plus the offending field path.
package kernelerrors

import (
	"fmt"
	"net/http"
)

// Code is one of the typed error codes in spec §6.
type Code string

const (
	BadSchema            Code = "BadSchema"
	SequenceGap          Code = "SequenceGap"
	SequenceDuplicate    Code = "SequenceDuplicate"
	ConstantsUnset       Code = "ConstantsUnset"
	BadRoleID            Code = "BadRoleId"
	DanglingDependency   Code = "DanglingDependency"
	CriticalCycle        Code = "CriticalCycle"
	EmptyResponsibilities Code = "EmptyResponsibilities"
	OrphanedInput        Code = "OrphanedInput"
	OutOfRangeFixedPoint Code = "OutOfRangeFixedPoint"
	CompressionLimit     Code = "CompressionLimit"
	UnknownRole          Code = "UnknownRole"
	DeterminismError     Code = "DeterminismError"
	IOError              Code = "IOError"

	// Unauthorized and RateLimited never originate inside the kernel; they
	// are httpapi-level transport rejections that reuse this same closed
	// code set so a client never has to parse two different error shapes.
	Unauthorized Code = "Unauthorized"
	RateLimited  Code = "RateLimited"
)

// httpStatus maps each code to the status an HTTP surface should return.
// Fatal codes (DeterminismError, OutOfRangeFixedPoint) map to 500; rejection
// codes map to 400/409, except UnknownRole, which maps to 404; IOError maps
// to 503.
var httpStatus = map[Code]int{
	BadSchema:             http.StatusBadRequest,
	SequenceGap:           http.StatusConflict,
	SequenceDuplicate:     http.StatusConflict,
	ConstantsUnset:        http.StatusBadRequest,
	BadRoleID:             http.StatusBadRequest,
	DanglingDependency:    http.StatusBadRequest,
	CriticalCycle:         http.StatusConflict,
	EmptyResponsibilities: http.StatusBadRequest,
	OrphanedInput:         http.StatusBadRequest,
	OutOfRangeFixedPoint:  http.StatusInternalServerError,
	CompressionLimit:      http.StatusConflict,
	UnknownRole:           http.StatusNotFound,
	DeterminismError:      http.StatusInternalServerError,
	IOError:               http.StatusServiceUnavailable,
	Unauthorized:          http.StatusUnauthorized,
	RateLimited:           http.StatusTooManyRequests,
}

// KernelError is the single error type returned across the kernel boundary.
type KernelError struct {
	Code    Code
	Field   string
	Message string
	Err     error
}

func (e *KernelError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *KernelError) Unwrap() error { return e.Err }

// HTTPStatus returns the status code an HTTP handler should respond with.
func (e *KernelError) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Fatal reports whether this error leaves the session poisoned (spec §7
// tier 2): DeterminismError and OutOfRangeFixedPoint require re-verification
// of the log before further appends are accepted.
func (e *KernelError) Fatal() bool {
	return e.Code == DeterminismError || e.Code == OutOfRangeFixedPoint
}

// New builds a KernelError with no wrapped cause.
func New(code Code, field, message string) *KernelError {
	return &KernelError{Code: code, Field: field, Message: message}
}

// Wrap builds a KernelError around an existing error.
func Wrap(code Code, field, message string, err error) *KernelError {
	return &KernelError{Code: code, Field: field, Message: message, Err: err}
}

// CodeOf is a convenience for the common "what code is this" check. It
// matches only when err itself is a *KernelError (a plain type assertion);
// a KernelError wrapped inside another error is not found, so callers that
// need that use errors.As directly.
func CodeOf(err error) (Code, bool) {
	ke, ok := err.(*KernelError)
	if !ok {
		return "", false
	}
	return ke.Code, true
}
