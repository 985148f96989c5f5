package application

import "errors"

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrForbidden is returned when the caller is not the entity's owner on
	// the side required for the operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrInvalidState is returned when a transition is not legal from the
	// entity's current status.
	ErrInvalidState = errors.New("application: invalid state")
	// ErrConflict is returned when a uniqueness invariant would be violated.
	ErrConflict = errors.New("application: conflict")

	// ErrUnauthorized is returned when no valid session accompanies a request.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrInvalidCredentials is returned for failed authentication attempts.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the account is administratively disabled.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when the session's validity window has passed.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when the session has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
