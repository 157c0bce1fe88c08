package dbx

// EventKind classifies a result event.
type EventKind int

const (
	// KindValue - one mapped row value.
	KindValue EventKind = iota
	// KindCompleted - successful termination of the execution.
	KindCompleted
	// KindFailed - the execution terminated with an error.
	KindFailed
)

// Event is the terminal notification of one query execution: exactly one
// of a mapped value, a successful completion, or a failure.
type Event[T any] struct {
	kind  EventKind
	value T
	err   error
}

// ValueEvent - Event carrying one mapped row value.
func ValueEvent[T any](value T) Event[T] {
	return Event[T]{kind: KindValue, value: value}
}

// CompletedEvent - terminal Event for successful completion.
func CompletedEvent[T any]() Event[T] {
	return Event[T]{kind: KindCompleted}
}

// FailedEvent - terminal Event carrying the execution error.
func FailedEvent[T any](err error) Event[T] {
	return Event[T]{kind: KindFailed, err: err}
}

// Kind - the event classification.
func (e Event[T]) Kind() EventKind {
	return e.kind
}

// IsValue reports whether the event carries a mapped row value.
func (e Event[T]) IsValue() bool {
	return e.kind == KindValue
}

// IsCompleted reports whether the event is the successful terminal event.
func (e Event[T]) IsCompleted() bool {
	return e.kind == KindCompleted
}

// IsError reports whether the event is the failure terminal event.
func (e Event[T]) IsError() bool {
	return e.kind == KindFailed
}

// Value - the mapped row value. Zero value unless IsValue.
func (e Event[T]) Value() T {
	return e.value
}

// Err - the execution error. Nil unless IsError.
func (e Event[T]) Err() error {
	return e.err
}

// Results is the raw outcome of one query execution: a stream of mapped
// values terminated either by closing Values (success) or by one error on
// Err. Err is closed without a send on success.
type Results[T any] struct {
	Values <-chan T
	Err    <-chan error
}

// Materialize converts the raw outcome of one execution into an ordered
// event stream: every value becomes exactly one value event, in order,
// followed by exactly one terminal event - completed on success, failed on
// error. The transformation neither swallows nor reorders the source.
func Materialize[T any](res *Results[T]) <-chan Event[T] {
	out := make(chan Event[T])

	go func() {
		defer close(out)

		for value := range res.Values {
			out <- ValueEvent(value)
		}

		if err, ok := <-res.Err; ok {
			out <- FailedEvent[T](err)
			return
		}

		out <- CompletedEvent[T]()
	}()

	return out
}
