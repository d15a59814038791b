package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrFetch ErrorType = iota
	ErrManifest
	ErrAsset
	ErrSigning
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrFetch:
		return "Fetch"
	case ErrManifest:
		return "Manifest"
	case ErrAsset:
		return "Asset"
	case ErrSigning:
		return "Signing"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// SyncError represents an error during repository synchronization
type SyncError struct {
	Type    ErrorType
	Subject string
	Err     error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Subject, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewError wraps err in a SyncError of the given type
func NewError(t ErrorType, subject string, err error) error {
	return &SyncError{Type: t, Subject: subject, Err: err}
}

// IsType reports whether err carries a SyncError of type t
func IsType(err error, t ErrorType) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Type == t
	}
	return false
}
