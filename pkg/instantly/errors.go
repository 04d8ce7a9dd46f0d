package instantly

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for upstream failures.
var (
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrThrottled indicates the upstream rate limited the request.
	ErrThrottled = errors.New("request throttled")

	// ErrUpstreamUnavailable indicates the upstream API is failing.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// FetchError wraps a failed page fetch with its campaign context.
//
// A FetchError is campaign-scoped: the job engine records it in that
// campaign's progress and moves on to the next campaign.
type FetchError struct {
	// CampaignID is the campaign whose page fetch failed.
	CampaignID string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("instantly: fetch leads for campaign %s: status %d: %v", e.CampaignID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("instantly: fetch leads for campaign %s: %v", e.CampaignID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsUnauthorized returns true if the error indicates a rejected API key.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsThrottled returns true if the error indicates upstream rate limiting.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsUpstreamUnavailable returns true if the error indicates an upstream outage.
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// wrapError converts an HTTP failure into a FetchError with the matching
// sentinel where the status code identifies a known class.
func (c *Client) wrapError(campaignID string, status int, err error) error {
	wrapped := &FetchError{CampaignID: campaignID, StatusCode: status, Err: err}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		wrapped.Err = fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case status == http.StatusTooManyRequests:
		wrapped.Err = fmt.Errorf("%w: %v", ErrThrottled, err)
	case status >= 500:
		wrapped.Err = fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return wrapped
}
