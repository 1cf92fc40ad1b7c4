package govee

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is the error returned when the cloud rejects the configured API key.
	ErrUnauthorized = errors.New("govee: api key rejected")
	// ErrRateLimited is the error returned when the account exceeded its request quota.
	ErrRateLimited = errors.New("govee: rate limited")
	// ErrNoAPIKey is the error returned by NewClient when no API key is configured.
	ErrNoAPIKey = errors.New("govee: api key is required")
)

// APIError is returned for any other non-successful response. Status is the HTTP status code and Code the code from
// the response body, which may differ.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e == nil {
		return "govee: api error"
	}

	return fmt.Sprintf("govee: status %d code %d: %s", e.Status, e.Code, e.Message)
}
