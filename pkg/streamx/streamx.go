// Package streamx provides a minimal lazy pull sequence used to model
// parameter batch streams and connection producers. A Seq yields its
// elements one at a time and only when pulled, so a source can be
// expensive, infinite, or both without the consumer paying for elements
// it never asks for.
package streamx

// Seq is a lazy pull sequence. Each call returns the next element and
// true, or the zero value and false once exhausted. A Seq is single-use:
// pulling consumes it.
type Seq[T any] func() (T, bool)

// Empty - a sequence with no elements.
func Empty[T any]() Seq[T] {
	return func() (T, bool) {
		var zero T
		return zero, false
	}
}

// Of - a sequence over the given elements, in order.
func Of[T any](items ...T) Seq[T] {
	return FromSlice(items)
}

// FromSlice - a sequence over the slice elements, in order.
func FromSlice[T any](items []T) Seq[T] {
	idx := 0

	return func() (T, bool) {
		if idx >= len(items) {
			var zero T
			return zero, false
		}

		item := items[idx]
		idx++

		return item, true
	}
}

// Concat chains sequences one after another, in the given order.
func Concat[T any](seqs ...Seq[T]) Seq[T] {
	cur := 0

	return func() (T, bool) {
		for cur < len(seqs) {
			if item, ok := seqs[cur](); ok {
				return item, true
			}
			cur++
		}

		var zero T
		return zero, false
	}
}

// Regroup buffers consecutive elements into groups of size n, preserving
// order. The final group may be shorter if the source length is not a
// multiple of n. Panics if n < 1.
func Regroup[T any](seq Seq[T], n int) Seq[[]T] {
	if n < 1 {
		panic("streamx: regroup size must be >= 1")
	}

	done := false

	return func() ([]T, bool) {
		if done {
			return nil, false
		}

		group := make([]T, 0, n)
		for len(group) < n {
			item, ok := seq()
			if !ok {
				done = true
				break
			}
			group = append(group, item)
		}

		if len(group) == 0 {
			return nil, false
		}

		return group, true
	}
}

// Map transforms each element of the sequence lazily.
func Map[T, U any](seq Seq[T], fn func(T) U) Seq[U] {
	return func() (U, bool) {
		item, ok := seq()
		if !ok {
			var zero U
			return zero, false
		}

		return fn(item), true
	}
}

// Collect drains the sequence into a slice. Never call it on an infinite
// sequence.
func Collect[T any](seq Seq[T]) []T {
	var items []T
	for item, ok := seq(); ok; item, ok = seq() {
		items = append(items, item)
	}

	return items
}

// First pulls a single element from the sequence, leaving the rest
// unconsumed.
func First[T any](seq Seq[T]) (T, bool) {
	return seq()
}
