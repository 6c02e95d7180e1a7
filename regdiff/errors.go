package regdiff

import "errors"

// ErrInvalidInput is returned when request parameters fail validation.
var ErrInvalidInput = errors.New("regdiff: invalid input")

// ErrSectionNotResolved is returned when a section citation cannot be
// mapped to an upstream content index.
var ErrSectionNotResolved = errors.New("regdiff: section could not be resolved to a content index")
