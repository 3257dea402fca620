package clients

import (
	"errors"
	"fmt"
)

// HTTPError represents an HTTP error response with status code and body preview
type HTTPError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Body is a preview of the response body (limited to DefaultErrorPreviewSize)
	Body string

	// URL is the requested URL without its query string
	URL string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request to %s failed with status %d", e.URL, e.StatusCode)
}

// IsHTTPError checks if an error is an HTTPError with the specified status code.
// If statusCode is 0, it matches any HTTPError.
func IsHTTPError(err error, statusCode int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	if statusCode == 0 {
		return true
	}
	return httpErr.StatusCode == statusCode
}
