package service

import (
	"errors"
	"strings"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrPackageNotFound   = errors.New("package not found")
	ErrForbidden         = errors.New("unauthorized")
	ErrCapacityExceeded  = errors.New("this event has reached its upload limit")
	ErrInvalidTransition = errors.New("photo cannot be moderated in its current state")
	ErrNoPhotosSelected  = errors.New("no photos selected")
	ErrEmptyArchive      = errors.New("no photos could be added to the archive")
)

// ValidationError taşıyan istekler hiçbir şey yazmadan reddedilir
type ValidationError struct {
	Message string
	Fields  map[string]string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}
