package cache

import "time"

// IsStale reports whether last is older than maxAge at now.
func IsStale(last time.Time, maxAge time.Duration, now time.Time) bool {
	return now.Sub(last) > maxAge
}

// ChangedWithin reports whether last lies within maxAge of now.
// A zero timestamp never counts as changed.
func ChangedWithin(last time.Time, maxAge time.Duration, now time.Time) bool {
	if last.IsZero() {
		return false
	}
	return now.Sub(last) < maxAge
}

// Entry is a cached value with the time it was refreshed.
type Entry[T any] struct {
	Value         T
	LastRefreshed time.Time
}

// NewEntry stamps value with at.
func NewEntry[T any](value T, at time.Time) Entry[T] {
	return Entry[T]{Value: value, LastRefreshed: at}
}

// Valid reports whether the entry is younger than maxAge.
func (e Entry[T]) Valid(maxAge time.Duration, now time.Time) bool {
	return ChangedWithin(e.LastRefreshed, maxAge, now)
}
