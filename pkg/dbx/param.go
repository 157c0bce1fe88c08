package dbx

import (
	"github.com/marcodd23/go-stream-db/pkg/errorx"
	"github.com/marcodd23/go-stream-db/pkg/streamx"
)

// Param - one named bound value.
type Param struct {
	Name  string
	Value any
}

// NamedParam - Param constructor.
func NamedParam(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// HasName reports whether the binding carries a parameter name.
func (p Param) HasName() bool {
	return p.Name != ""
}

// Batch is one ordered set of bound values for a single query execution,
// one element per parameter slot of the template. Elements may be raw
// values or Param bindings.
type Batch []any

// BatchSeq - lazy sequence of parameter batches, consumed once, in order.
type BatchSeq = streamx.Seq[Batch]

// accumulator mode tag. A builder commits to exactly one mode; any call
// characteristic of the other mode is a configuration error.
type accumulatorMode int

const (
	modeUnset accumulatorMode = iota
	modeNamed
	modeStream
)

// paramAccumulator merges the mutually exclusive parameter binding styles
// into one canonical lazy sequence of batches: named single-parameter
// accumulation, pre-formed batch streams, and shorthand positional values
// regrouped by template parameter count.
type paramAccumulator struct {
	mode   accumulatorMode
	named  []Param
	stream BatchSeq
}

// addNamed appends a named binding in named-list mode.
func (a *paramAccumulator) addNamed(name string, value any) error {
	if a.mode == modeStream {
		return errorx.NewConfigurationError("cannot add named parameter '%s': parameter batches were already supplied", name)
	}

	a.mode = modeNamed
	a.named = append(a.named, NamedParam(name, value))

	return nil
}

// addBatch appends one pre-formed batch in stream mode.
func (a *paramAccumulator) addBatch(batch Batch) error {
	return a.addStream(streamx.Of(batch))
}

// addStream concatenates a batch sequence in stream mode, in call order.
func (a *paramAccumulator) addStream(seq BatchSeq) error {
	if a.mode == modeNamed {
		return errorx.NewConfigurationError("cannot add parameter batches: named parameters were already supplied")
	}

	a.mode = modeStream
	if a.stream == nil {
		a.stream = seq
	} else {
		a.stream = streamx.Concat(a.stream, seq)
	}

	return nil
}

// addValues validates shorthand positional values against the template and
// regroups them into batches of exactly the template parameter count.
// An empty values slice is a no-op.
func (a *paramAccumulator) addValues(tpl Template, values ...any) error {
	if len(values) == 0 {
		return nil
	}

	if a.mode == modeNamed {
		return errorx.NewConfigurationError("cannot add parameter values: named parameters were already supplied")
	}

	if tpl.NumParams() == 0 {
		return errorx.NewConfigurationError("no parameters present in sql: %s", tpl.SQL())
	}

	if len(values)%tpl.NumParams() != 0 {
		return errorx.NewConfigurationError(
			"number of values (%d) should be a multiple of the number of parameters (%d) in sql: %s",
			len(values), tpl.NumParams(), tpl.SQL())
	}

	if tpl.UsesNames() {
		for _, value := range values {
			param, ok := value.(Param)
			if !ok || !param.HasName() {
				return errorx.NewConfigurationError("sql uses named parameters, every value must be a named binding: %s", tpl.SQL())
			}
		}
	}

	grouped := streamx.Map(
		streamx.Regroup(streamx.FromSlice(values), tpl.NumParams()),
		func(group []any) Batch { return Batch(group) })

	return a.addStream(grouped)
}

// resolve returns the canonical batch sequence: the named list regrouped
// into batches of template parameter count in insertion order, the stream
// unchanged, or an empty sequence when nothing was ever supplied (a single
// batch with zero parameters is then implied by the executor).
func (a *paramAccumulator) resolve(tpl Template) BatchSeq {
	switch a.mode {
	case modeNamed:
		size := tpl.NumParams()
		if size < 1 {
			size = len(a.named)
		}

		return streamx.Map(
			streamx.Regroup(streamx.FromSlice(a.named), size),
			func(group []Param) Batch {
				batch := make(Batch, len(group))
				for i, param := range group {
					batch[i] = param
				}
				return batch
			})
	case modeStream:
		return a.stream
	default:
		return streamx.Empty[Batch]()
	}
}
