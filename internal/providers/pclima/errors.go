package pclima

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken      = errors.New("pclima: api token is required")
	ErrUnsupportedFormat = errors.New("pclima: unsupported format")
	ErrFormatMismatch    = errors.New("pclima: result does not match its format")
)

// APIError is a non-2xx response from the portal.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pclima: request failed (%d) %s: %s", e.StatusCode, e.URL, e.Message)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pclima: invalid %s: %s", e.Field, e.Message)
}

type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("pclima: request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CredentialError reports that no token could be resolved. Path is the rc
// file that was tried.
type CredentialError struct {
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v (set %s or pass a token)", e.Err, envToken)
	}
	return fmt.Sprintf("%v (set %s or add a token line to %s)", e.Err, envToken, e.Path)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}
