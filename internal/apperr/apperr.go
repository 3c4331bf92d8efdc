package apperr

import "errors"

// Sentinel errors used across services. Handlers map these to HTTP status
// codes with errors.Is, so services should wrap them with fmt.Errorf("%w: ...").
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrDependency = errors.New("dependency failure")
)
