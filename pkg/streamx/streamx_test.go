package streamx_test

import (
	"testing"

	"github.com/marcodd23/go-stream-db/pkg/streamx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlicePreservesOrder(t *testing.T) {
	seq := streamx.FromSlice([]int{1, 2, 3})

	assert.Equal(t, []int{1, 2, 3}, streamx.Collect(seq))
}

func TestEmptySequence(t *testing.T) {
	_, ok := streamx.Empty[string]()()
	assert.False(t, ok)
}

func TestConcatChainsInOrder(t *testing.T) {
	seq := streamx.Concat(
		streamx.Of(1, 2),
		streamx.Empty[int](),
		streamx.Of(3),
	)

	assert.Equal(t, []int{1, 2, 3}, streamx.Collect(seq))
}

func TestRegroupBuffersInGroups(t *testing.T) {
	groups := streamx.Collect(streamx.Regroup(streamx.Of(1, 2, 3, 4), 2))

	require.Len(t, groups, 2)
	assert.Equal(t, []int{1, 2}, groups[0])
	assert.Equal(t, []int{3, 4}, groups[1])
}

func TestRegroupShortFinalGroup(t *testing.T) {
	groups := streamx.Collect(streamx.Regroup(streamx.Of(1, 2, 3), 2))

	require.Len(t, groups, 2)
	assert.Equal(t, []int{3}, groups[1])
}

func TestFirstLeavesRestUnconsumed(t *testing.T) {
	seq := streamx.Of("a", "b", "c")

	first, ok := streamx.First(seq)
	require.True(t, ok)
	assert.Equal(t, "a", first)

	// The rest of the sequence is still there.
	assert.Equal(t, []string{"b", "c"}, streamx.Collect(seq))
}

func TestMapIsLazy(t *testing.T) {
	calls := 0
	seq := streamx.Map(streamx.Of(1, 2, 3), func(v int) int {
		calls++
		return v * 10
	})

	first, ok := seq()
	require.True(t, ok)
	assert.Equal(t, 10, first)
	assert.Equal(t, 1, calls)

	assert.Equal(t, []int{20, 30}, streamx.Collect(seq))
	assert.Equal(t, 3, calls)
}
