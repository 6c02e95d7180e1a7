// Package dateutil provides date parsing and closed-interval predicates for
// the YYYY-MM-DD dates used throughout the eCFR API.
//
// All functions are stateless. Parsing never returns an error: malformed
// input yields the zero time, and the predicates treat an unparseable
// target as "never in range".
package dateutil

import "time"

// Layout is the wire format of every eCFR date.
const Layout = "2006-01-02"

// Sentinel bounds for items that state no start or end date. An item with
// an absent bound is treated as "always in effect" on that side.
var (
	farPast   = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	farFuture = time.Date(2100, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Parse parses a YYYY-MM-DD string. Empty or malformed input yields the
// zero time; callers check with IsZero rather than handling an error.
func Parse(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Format renders an instant in the eCFR wire format (UTC).
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Today returns the current UTC date in wire format.
func Today() string {
	return Format(time.Now())
}

// WithinRange reports whether target falls within [start, end]. An empty
// bound is unbounded on that side. An unparseable target is never in range.
func WithinRange(target, start, end string) bool {
	t := Parse(target)
	if t.IsZero() {
		return false
	}
	if start != "" {
		s := Parse(start)
		if s.IsZero() || t.Before(s) {
			return false
		}
	}
	if end != "" {
		e := Parse(end)
		if e.IsZero() || t.After(e) {
			return false
		}
	}
	return true
}

// RangesOverlap reports whether the closed filter interval
// [filterStart, filterEnd] intersects the item interval [itemStart, itemEnd].
// Absent filter bounds are unbounded; absent item bounds default to a far
// past / far future sentinel, so an item with no stated dates overlaps
// every filter.
func RangesOverlap(filterStart, filterEnd, itemStart, itemEnd string) bool {
	is := Parse(itemStart)
	if is.IsZero() {
		is = farPast
	}
	ie := Parse(itemEnd)
	if ie.IsZero() {
		ie = farFuture
	}

	if filterStart != "" {
		fs := Parse(filterStart)
		if !fs.IsZero() && ie.Before(fs) {
			return false
		}
	}
	if filterEnd != "" {
		fe := Parse(filterEnd)
		if !fe.IsZero() && is.After(fe) {
			return false
		}
	}
	return true
}
