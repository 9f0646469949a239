package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// ErrNoToken is returned when a call needs credentials and none were configured.
var ErrNoToken = errors.New("GitHub access token not configured. set github-token or GROOMER_GITHUB_TOKEN")

// APIError is a GitHub failure with its HTTP status.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a GitHub 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// wrapError turns go-github failures into an *APIError keyed by status.
// Errors without an HTTP response (context, transport) are wrapped as-is.
func wrapError(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return &APIError{Op: op, StatusCode: http.StatusForbidden, Message: "GitHub API rate limit exceeded", Err: err}
	case status == 0:
		return fmt.Errorf("%s: %w", op, err)
	}

	var message string
	switch status {
	case http.StatusUnauthorized:
		message = "GitHub authentication failed. check your access token"
	case http.StatusForbidden:
		message = "GitHub API rate limit exceeded or insufficient permissions"
	case http.StatusNotFound:
		message = "repository or issue not found"
	case http.StatusUnprocessableEntity:
		message = "GitHub rejected the request"
	default:
		message = fmt.Sprintf("GitHub API error: %s", http.StatusText(status))
	}
	return &APIError{Op: op, StatusCode: status, Message: message, Err: err}
}
