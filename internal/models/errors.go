package models

import (
	"errors"
	"fmt"
)

// ErrBrokerUnavailable is returned by producers when the message could not be
// handed to the broker. Channel services treat it as a signal to deliver
// synchronously.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// ValidationError rejects a request before any network or queue action.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// ProviderError wraps a failed call to an external messaging provider. Body
// holds the response body when the provider answered.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: provider returned %d: %v", e.Provider, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: provider returned %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return e.Provider + ": provider call failed"
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Code is the short error code written to the delivery log.
func (e *ProviderError) Code() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP_%d", e.StatusCode)
	}
	return "TRANSPORT_ERROR"
}

// SigningError means the request could not be authenticated, usually because
// of missing or invalid credentials. It is never retried or deferred.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "sign request: " + e.Err.Error() }

func (e *SigningError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsProvider reports whether err is a ProviderError.
func IsProvider(err error) bool {
	var p *ProviderError
	return errors.As(err, &p)
}

// IsSigning reports whether err is a SigningError.
func IsSigning(err error) bool {
	var s *SigningError
	return errors.As(err, &s)
}
