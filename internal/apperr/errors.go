// Package apperr defines the sentinel errors shared by services and
// repositories. Handlers translate them into HTTP status codes with
// errors.Is, so lower layers never import net/http.
package apperr

import "errors"

// ErrValidation is returned for malformed or out-of-range input, such as
// coordinates outside the service area or an over-long event window.
// Handlers translate it into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized is returned for any authentication failure. It is
// deliberately generic: an expired token, a forged token and a missing
// token all produce the same error so callers cannot probe which it was.
// Handlers translate it into HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when an authenticated caller lacks the role or
// ownership required for an operation. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation collides with existing state,
// such as registering an already-taken username. Handlers translate it
// into HTTP 409.
var ErrConflict = errors.New("conflict")
