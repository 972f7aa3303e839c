package api

import "iter"

// sequence adapts one decoded collection into a single-pass iterator. The
// cursor is shared across range statements: breaking out keeps the position,
// resuming continues after the last delivered element, and a drained
// sequence yields nothing. Re-iterating from the start requires a fresh
// client call.
func sequence[T any](items []T) iter.Seq[T] {
	i := 0
	return func(yield func(T) bool) {
		for i < len(items) {
			item := items[i]
			i++
			if !yield(item) {
				return
			}
		}
	}
}
