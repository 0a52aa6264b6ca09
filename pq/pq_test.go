package pq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/pq"
	"github.com/flatcontainers/ccc/status"
)

func intCmp(a, b int) status.Order {
	switch {
	case a < b:
		return status.Lesser
	case a > b:
		return status.Greater
	default:
		return status.Equal
	}
}

func TestMinHeapPushPopOrder(t *testing.T) {
	q := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)

	for _, v := range []int{3, 1, 4, 1, 5, 9, 2, 6} {
		require.NoError(t, q.Push(v))
	}

	var got []int

	for q.Count() > 0 {
		v, err := q.Pop()
		require.NoError(t, err)
		got = append(got, v)
	}

	assert.Equal(t, []int{1, 1, 2, 3, 4, 5, 6, 9}, got)
}

func TestHeapsortOppositeDirection(t *testing.T) {
	q := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)
	for _, v := range []int{3, 1, 4, 1, 5, 9, 2, 6} {
		require.NoError(t, q.Push(v))
	}

	out, err := q.Heapsort()
	require.NoError(t, err)
	assert.Equal(t, []int{9, 6, 5, 4, 3, 2, 1, 1}, out.Slice())
}

func TestMaxHeap(t *testing.T) {
	q := pq.New(intCmp, pq.Max, alloc.Heap[int](), nil)
	for _, v := range []int{3, 1, 4, 1, 5, 9, 2, 6} {
		require.NoError(t, q.Push(v))
	}

	var got []int
	for q.Count() > 0 {
		v, err := q.Pop()
		require.NoError(t, err)
		got = append(got, v)
	}

	assert.Equal(t, []int{9, 6, 5, 4, 3, 2, 1, 1}, got)
}

func TestFixedCapacityNoAllocator(t *testing.T) {
	backing := make([]int, 2)
	q := pq.NewFixed(backing, intCmp, pq.Min)

	require.NoError(t, q.Push(5))
	require.NoError(t, q.Push(3))

	err := q.Push(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNoAllocator)
}

func TestEraseMaintainsHeap(t *testing.T) {
	q := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)
	for _, v := range []int{5, 3, 8, 1, 9, 2} {
		require.NoError(t, q.Push(v))
	}

	require.NoError(t, q.Erase(0))
	require.NoError(t, q.Validate())
	assert.Equal(t, 5, q.Count())
}

func TestUpdateFixup(t *testing.T) {
	q := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)
	for _, v := range []int{5, 3, 8, 1, 9, 2} {
		require.NoError(t, q.Push(v))
	}

	require.NoError(t, q.Update(0, func(v *int) { *v = 100 }))
	require.NoError(t, q.Validate())

	// The old front (1) is now 100, so the next smallest value surfaces.
	front, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, 2, *front)
}

func TestHeapifyEquivalence(t *testing.T) {
	data := []int{7, 2, 9, 4, 1, 8, 3, 6, 5}

	built := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)
	for _, v := range data {
		require.NoError(t, built.Push(v))
	}

	heapified := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)
	require.NoError(t, heapified.HeapifyFrom(data))

	var wantOrder, gotOrder []int

	for built.Count() > 0 {
		v, err := built.Pop()
		require.NoError(t, err)
		wantOrder = append(wantOrder, v)
	}

	for heapified.Count() > 0 {
		v, err := heapified.Pop()
		require.NoError(t, err)
		gotOrder = append(gotOrder, v)
	}

	assert.Equal(t, wantOrder, gotOrder)
}

func TestPopEmpty(t *testing.T) {
	q := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)
	_, err := q.Pop()
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrArgument)
}

func TestValidateAfterManyOps(t *testing.T) {
	q := pq.New(intCmp, pq.Min, alloc.Heap[int](), nil)

	for i := 0; i < 50; i++ {
		require.NoError(t, q.Push((i*37+11)%97))
	}

	for i := 0; i < 20; i++ {
		_, err := q.Pop()
		require.NoError(t, err)
	}

	require.NoError(t, q.Validate())
}
