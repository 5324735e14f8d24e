package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrNoGranules          = fmt.Errorf("no granules matched your input parameters: %w", ErrNotFound)
	ErrIncompleteResults   = fmt.Errorf("search ended before all hits were returned: %w", ErrUnavailable)
	ErrCredentialsNotFound = fmt.Errorf("credentials: %w", ErrNotFound)
	ErrOutputDirMissing    = fmt.Errorf("output directory: %w", ErrNotFound)
	ErrInvalidURL          = fmt.Errorf("url: %w", ErrInvalidInput)
	ErrInvalidBoundingBox  = fmt.Errorf("bounding box: %w", ErrInvalidInput)
	ErrUnsupportedStorage  = fmt.Errorf("storage type: %w", ErrUnsupported)
	ErrStorageUnavailable  = fmt.Errorf("storage: %w", ErrUnavailable)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // The invalid value
	Message string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// APIError represents a non-successful response from the search API.
type APIError struct {
	StatusCode int    // HTTP status code (0 if the response was malformed)
	Body       string // Response body or description
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("search api: %s", e.Body)
	}
	return fmt.Sprintf("search api responded with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns the underlying error type.
func (e *APIError) Unwrap() error {
	return ErrUnavailable
}

// FetchError represents a non-2xx response while downloading a file.
type FetchError struct {
	URL        string // Requested URL
	StatusCode int    // HTTP status code
	Body       string // Response body, verbatim
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Unwrap returns the underlying error type.
func (e *FetchError) Unwrap() error {
	return ErrUnavailable
}

// StorageError represents an error during mirror storage operations.
type StorageError struct {
	Operation string // Operation that failed (upload, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports every storage error as ErrStorageUnavailable.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}
