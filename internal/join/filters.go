package join

import (
	"strings"
	"time"
)

// Predicate matches a single field of a record.
type Predicate[T any] func(T) bool

// Filters is a named set of predicates combined with logical AND.
// A nil predicate is skipped, so an unset filter never excludes records.
type Filters[T any] map[string]Predicate[T]

// Apply returns the records matching every non-nil predicate, preserving
// input order. It is a pure function: it never mutates its inputs.
func Apply[T any](records []T, filters Filters[T]) []T {
	if len(filters) == 0 {
		return records
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, filters) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll[T any](rec T, filters Filters[T]) bool {
	for _, pred := range filters {
		if pred == nil {
			continue
		}
		if !pred(rec) {
			return false
		}
	}
	return true
}

// Exact builds a predicate matching value equality. An empty want skips
// the filter.
func Exact[T any](want string, get func(T) string) Predicate[T] {
	if strings.TrimSpace(want) == "" {
		return nil
	}
	return func(rec T) bool {
		return get(rec) == want
	}
}

// Substring builds a case-insensitive substring predicate for free-text
// fields. An empty want skips the filter.
func Substring[T any](want string, get func(T) string) Predicate[T] {
	want = strings.TrimSpace(want)
	if want == "" {
		return nil
	}
	lowered := strings.ToLower(want)
	return func(rec T) bool {
		return strings.Contains(strings.ToLower(get(rec)), lowered)
	}
}

// DateFrom builds an inclusive lower-bound predicate on a timestamp field.
func DateFrom[T any](from time.Time, get func(T) time.Time) Predicate[T] {
	if from.IsZero() {
		return nil
	}
	return func(rec T) bool {
		ts := get(rec)
		return !ts.Before(from)
	}
}

// DateTo builds an inclusive upper-bound predicate on a timestamp field.
func DateTo[T any](to time.Time, get func(T) time.Time) Predicate[T] {
	if to.IsZero() {
		return nil
	}
	return func(rec T) bool {
		ts := get(rec)
		return !ts.After(to)
	}
}
