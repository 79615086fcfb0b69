// Package domain holds the error taxonomy shared by every layer of the booking service.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports a field value that violates a booking invariant.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports that no record exists for the given identifier.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError for the named entity.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ConflictError reports that a booking would overlap an active booking.
// ClientName and StartTime describe the colliding booking when known.
type ConflictError struct {
	Message    string
	ClientName string
	StartTime  time.Time
}

// NewConflictError creates a ConflictError with a free-form message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// NewBookingConflictError creates a ConflictError naming the colliding booking.
func NewBookingConflictError(clientName string, startTime time.Time) *ConflictError {
	return &ConflictError{
		Message: fmt.Sprintf("Booking conflicts with existing booking for %s at %s",
			clientName, startTime.Format("2006-01-02 15:04:05")),
		ClientName: clientName,
		StartTime:  startTime,
	}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
