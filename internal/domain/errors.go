package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors - use with errors.Is()
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDevice     = errors.New("device error")
	ErrCancelled  = errors.New("cancelled")
)

type (
	// ValidationError indicates invalid input, rejected before any mutation
	ValidationError struct {
		Message string
		Err     error
	}

	// NotFoundError indicates an operation referenced a missing resource
	NotFoundError struct {
		Resource string
		ID       string
	}

	// DeviceError indicates a camera, audio or file picker failure
	DeviceError struct {
		Device string
		Op     string
		Err    error
	}

	// CancelledError indicates the user backed out of a picker or prompt
	CancelledError struct {
		Op string
	}
)

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Device, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Device, e.Op)
}

func (e *CancelledError) Error() string {
	return e.Op + " cancelled"
}

func (e *ValidationError) Unwrap() error { return e.Err }
func (e *DeviceError) Unwrap() error     { return e.Err }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *DeviceError) Is(target error) bool     { return target == ErrDevice }
func (e *CancelledError) Is(target error) bool  { return target == ErrCancelled }

// NewValidationError wraps err (typically ozzo validation.Errors) as a ValidationError
func NewValidationError(message string, err error) error {
	return &ValidationError{Message: message, Err: err}
}

// AvatarNotFound is the NotFoundError returned for unknown avatar IDs
func AvatarNotFound(id string) error {
	return &NotFoundError{Resource: "avatar", ID: id}
}

// IsCancelled reports whether err is a user cancellation rather than a failure
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
