// Package apperr defines the error taxonomy shared by the domain packages.
//
// Domain code wraps one of the sentinels with context, e.g.
//
//	return fmt.Errorf("%w: palette %q", apperr.ErrNotFound, slug)
//
// and the HTTP layer maps the sentinel to a status code with errors.Is.
// Anything that does not wrap a sentinel is treated as an internal error.
package apperr

import "errors"

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication indicates a required session token is missing or unknown.
	ErrAuthentication = errors.New("authentication required")

	// ErrAuthorization indicates the caller is authenticated but may not act on the resource.
	ErrAuthorization = errors.New("not authorized")

	// ErrNotFound indicates an unknown resource, or a resource not in the expected state.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a user-facing uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the client exceeded its request window.
	ErrRateLimited = errors.New("rate limit exceeded")
)
