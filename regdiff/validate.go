package regdiff

import (
	"fmt"

	"github.com/hazyhaar/regveille/dateutil"
)

// validateTitle checks a title number against the corpus range.
func validateTitle(title int) error {
	if title < minTitle || title > maxTitle {
		return fmt.Errorf("%w: title must be between %d and %d, got %d",
			ErrInvalidInput, minTitle, maxTitle, title)
	}
	return nil
}

// validateDate checks that a date is present and parses as YYYY-MM-DD.
func validateDate(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	}
	if dateutil.Parse(value).IsZero() {
		return fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", ErrInvalidInput, name, value)
	}
	return nil
}

// validateChangeTypes checks that every requested filter value is known.
// An empty slice means "no filter".
func validateChangeTypes(types []ChangeType) error {
	for _, ct := range types {
		if !knownChangeTypes[ct] {
			return fmt.Errorf("%w: unknown change type %q", ErrInvalidInput, ct)
		}
	}
	return nil
}
