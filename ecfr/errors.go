package ecfr

import (
	"errors"
	"fmt"
)

// ErrTitleNotFound is returned when a title number is absent from the
// titles listing.
var ErrTitleNotFound = errors.New("ecfr: title not found")

// bodyExcerptLimit caps how much of an error response body is carried in
// an APIError. Upstream error pages can be large HTML documents.
const bodyExcerptLimit = 500

// APIError is a non-2xx response from the eCFR API. It carries the status
// line and a truncated body excerpt for diagnosis.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string // excerpt, at most bodyExcerptLimit bytes
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ecfr: %s: %s", e.Status, e.URL)
	}
	return fmt.Sprintf("ecfr: %s: %s: %s", e.Status, e.URL, e.Body)
}

// excerpt truncates b to the excerpt limit.
func excerpt(b []byte) string {
	if len(b) > bodyExcerptLimit {
		b = b[:bodyExcerptLimit]
	}
	return string(b)
}
