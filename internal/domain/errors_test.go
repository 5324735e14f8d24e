package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "bounding_box",
		Value:   "200,0,10,10",
		Message: "longitude must be between -180 and 180",
	}

	got := err.Error()
	if !strings.Contains(got, "bounding_box") || !strings.Contains(got, "200,0,10,10") {
		t.Errorf("Error() = %q, want field and value", got)
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
}

func TestValidationErrorWithoutValue(t *testing.T) {
	err := &ValidationError{Field: "short_name", Message: "required"}

	if strings.Contains(err.Error(), "value:") {
		t.Errorf("Error() = %q, should omit nil value", err.Error())
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with status",
			err:  &APIError{StatusCode: 400, Body: "bad temporal"},
			want: "status 400: bad temporal",
		},
		{
			name: "malformed response",
			err:  &APIError{Body: "missing CMR-Hits header"},
			want: "search api: missing CMR-Hits header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrUnavailable) {
				t.Error("APIError should unwrap to ErrUnavailable")
			}
			if errors.Is(tt.err, ErrNoGranules) {
				t.Error("APIError must not match ErrNoGranules")
			}
		})
	}
}

func TestFetchError(t *testing.T) {
	err := &FetchError{
		URL:        "https://archive.example/data/a.nc",
		StatusCode: 404,
		Body:       "Not Found",
	}

	got := err.Error()
	if !strings.Contains(got, "a.nc") || !strings.Contains(got, "404") || !strings.Contains(got, "Not Found") {
		t.Errorf("Error() = %q, want url, status and body", got)
	}

	var target *FetchError
	if !errors.As(error(err), &target) || target.StatusCode != 404 {
		t.Error("errors.As should find FetchError")
	}
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name string
		err  *StorageError
	}{
		{
			name: "with key",
			err: &StorageError{
				Operation: "upload",
				Key:       "granule.nc",
				Err:       errors.New("network error"),
			},
		},
		{
			name: "without key",
			err: &StorageError{
				Operation: "list",
				Err:       errors.New("access denied"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got == "" {
				t.Error("Error() should not return empty string")
			}

			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("Unwrap should return the underlying error")
			}
			if !errors.Is(tt.err, ErrStorageUnavailable) {
				t.Error("StorageError should match ErrStorageUnavailable")
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "download.workers",
		Message: "must be at least 1",
	}

	if err.Error() == "" {
		t.Error("Error() should not return empty string")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ConfigError should unwrap to ErrInvalidInput")
	}

	wrapped := &ConfigError{Field: "download.dir", Message: "missing", Err: ErrOutputDirMissing}
	if !errors.Is(wrapped, ErrOutputDirMissing) || !errors.Is(wrapped, ErrNotFound) {
		t.Error("ConfigError should unwrap to its underlying error")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"ErrNoGranules", ErrNoGranules, ErrNotFound},
		{"ErrIncompleteResults", ErrIncompleteResults, ErrUnavailable},
		{"ErrCredentialsNotFound", ErrCredentialsNotFound, ErrNotFound},
		{"ErrOutputDirMissing", ErrOutputDirMissing, ErrNotFound},
		{"ErrInvalidURL", ErrInvalidURL, ErrInvalidInput},
		{"ErrInvalidBoundingBox", ErrInvalidBoundingBox, ErrInvalidInput},
		{"ErrUnsupportedStorage", ErrUnsupportedStorage, ErrUnsupported},
		{"ErrStorageUnavailable", ErrStorageUnavailable, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("%s should wrap %v", tt.name, tt.wantErr)
			}
		})
	}
}
