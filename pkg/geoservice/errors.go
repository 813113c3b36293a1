package geoservice

import "fmt"

// APIError is a failure reported by the provider itself, decoded from its
// standard error envelope. ProviderCode and ProviderReason are zero-valued
// when the provider returned a bare non-2xx status with no envelope.
type APIError struct {
	HTTPStatus     int
	ProviderCode   int
	ProviderReason string
	Message        string
}

func (e *APIError) Error() string {
	if e.ProviderReason != "" {
		return fmt.Sprintf("provider error: http %d, code %d, reason %s: %s",
			e.HTTPStatus, e.ProviderCode, e.ProviderReason, e.Message)
	}
	return fmt.Sprintf("provider error: http %d", e.HTTPStatus)
}

// DecodeError marks a response body that was not valid JSON. These are
// treated as transient noise by the caller.
type DecodeError struct {
	HTTPStatus int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed provider response (http %d): %v", e.HTTPStatus, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
