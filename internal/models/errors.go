package models

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one failure class in the domain error taxonomy. Every
// error a coordinator returns carries exactly one kind; raw store errors never
// cross the coordinator boundary.
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION_ERROR"
	KindUnsupportedMedia    ErrorKind = "UNSUPPORTED_MEDIA_TYPE"
	KindDuplicateContent    ErrorKind = "DUPLICATE_CONTENT"
	KindDuplicateImage      ErrorKind = "DUPLICATE_IMAGE"
	KindStorageWriteFailed  ErrorKind = "STORAGE_WRITE_FAILED"
	KindStorageDeleteFailed ErrorKind = "STORAGE_DELETE_FAILED"
	KindMetadataWriteFailed ErrorKind = "METADATA_WRITE_FAILED"
	KindMetadataReadFailed  ErrorKind = "METADATA_READ_FAILED"
	KindMetadataDeleteFail  ErrorKind = "METADATA_DELETE_FAILED"
	KindImageNotFound       ErrorKind = "IMAGE_NOT_FOUND"
	KindInvalidRecordState  ErrorKind = "INVALID_RECORD_STATE"
	KindAccessURLFailed     ErrorKind = "ACCESS_URL_GENERATION_FAILED"
	KindInvalidFilter       ErrorKind = "INVALID_FILTER"
)

// DomainError is the typed error value exposed to callers of the coordinators:
// a kind, a human-readable message, and optional structured details.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewError builds a DomainError without an underlying cause.
func NewError(kind ErrorKind, message string, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Message: message, Details: details}
}

// WrapError builds a DomainError around an underlying infrastructure error.
func WrapError(kind ErrorKind, message string, details map[string]any, cause error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Details: details, cause: cause}
}

// KindOf extracts the error kind from err, or "" if err is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
