package scope

import "errors"

var (
	ErrForbidden    = errors.New("scope: forbidden")
	ErrScopeMissing = errors.New("scope: commune scope missing")
	ErrInvalidInput = errors.New("scope: invalid input")
)
