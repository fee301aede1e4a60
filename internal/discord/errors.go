package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// The closed set of error kinds surfaced to callers. Every failure from the
// session, resolver, or fetcher chain is translated onto one of these before
// it leaves the package.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrConnectionTimeout    = errors.New("timed out waiting for discord connection")
	ErrOperationTimeout     = errors.New("fetch operation timed out")
	ErrServerNotFound       = errors.New("server not found")
	ErrAuthenticationFailed = errors.New("discord authentication failed")
	ErrRemoteService        = errors.New("discord API error")
	ErrUnknown              = errors.New("unexpected error during fetch")
)

// StatusError marks a failed remote API call. The transport adapter wraps
// every API failure in one of these so the rest of the pipeline never
// depends on transport-specific error types. Status is 0 when the failure
// carried no HTTP status (e.g. a network error).
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	if e.Status == 0 {
		return "remote service call failed"
	}

	return fmt.Sprintf("remote service returned status %d", e.Status)
}

// httpStatus extracts the HTTP status from a remote API error, or 0 when
// the error carries none.
func httpStatus(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}

	return 0
}

// isPermissionDenied reports whether err is a per-channel permission
// failure. These are absorbed locally and never abort the overall fetch.
func isPermissionDenied(err error) bool {
	return httpStatus(err) == 403
}

// Translate maps any lower-level failure onto the closed error set. Already
// translated errors pass through unchanged. The returned error never
// contains credential material; unclassified errors are collapsed to a
// generic message so internal details are not disclosed to callers.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrConnectionTimeout),
		errors.Is(err, ErrOperationTimeout),
		errors.Is(err, ErrServerNotFound),
		errors.Is(err, ErrAuthenticationFailed),
		errors.Is(err, ErrRemoteService),
		errors.Is(err, ErrUnknown):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Cancellation from the caller is not a remote failure.
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case 401:
			// Never echo the submitted token back to the caller.
			return fmt.Errorf("%w: remote login rejected (status 401)", ErrAuthenticationFailed)
		case 429:
			return fmt.Errorf("%w: rate limited (status 429)", ErrRemoteService)
		case 0:
			return fmt.Errorf("%w: status unknown", ErrRemoteService)
		default:
			return fmt.Errorf("%w: status %d", ErrRemoteService, statusErr.Status)
		}
	}

	// Gateway-level auth rejections surface as close errors without an HTTP
	// status attached.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "authentication") || strings.Contains(msg, "invalid token") {
		return fmt.Errorf("%w: remote login rejected", ErrAuthenticationFailed)
	}

	return ErrUnknown
}
