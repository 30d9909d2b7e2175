package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrUnknownRoomType ErrorCode = iota + 1000
	ErrRoomUnavailable
	ErrPatientNotFound
	ErrMalformedRecord
	ErrInvalid
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors
func UnknownRoomType(roomType string) *AppError {
	return &AppError{
		Code:    ErrUnknownRoomType,
		Message: fmt.Sprintf("unknown room type %q", roomType),
	}
}

func RoomUnavailable(roomNumber string) *AppError {
	return &AppError{
		Code:    ErrRoomUnavailable,
		Message: fmt.Sprintf("room %q is not available", roomNumber),
	}
}

func PatientNotFound(id string) *AppError {
	return &AppError{
		Code:    ErrPatientNotFound,
		Message: fmt.Sprintf("patient %q not found", id),
	}
}

func MalformedRecord(err error) *AppError {
	return &AppError{
		Code:    ErrMalformedRecord,
		Message: "malformed persisted record",
		Err:     err,
	}
}

func Invalid(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInvalid,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the ErrorCode carried by err, unwrapping as needed,
// or 0 if err carries none.
func CodeOf(err error) ErrorCode {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return 0
}
