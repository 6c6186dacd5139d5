package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind is a machine-readable error classification.
type Kind string

const (
	// KindValidation covers malformed or out-of-range input: wrong dungeon
	// size, duplicate deck entries, bad leader placement.
	KindValidation Kind = "VALIDATION"

	// KindNotFound means a referenced card, dungeon, world or user does not
	// exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindUnauthorized means the caller presented no or invalid credentials.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindForbidden means the caller lacks master rights or does not own the
	// referenced cards.
	KindForbidden Kind = "FORBIDDEN"

	// KindConflict means a uniqueness constraint was violated, e.g. a
	// username or email already taken.
	KindConflict Kind = "CONFLICT"

	// KindRateLimited means admission was denied by the rate gate.
	KindRateLimited Kind = "RATE_LIMITED"

	// KindInternal covers persistence failures after validation passed, and
	// anything else unexpected.
	KindInternal Kind = "INTERNAL"
)

// HTTPStatus maps error kinds to HTTP status codes. Every kind maps to a
// distinct, stable status so callers can react deterministically.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// KindOf extracts the kind from an error chain. Errors that are not domain
// errors classify as KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
