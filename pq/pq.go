// Package pq implements a flat priority queue: an array-backed binary
// heap supporting push/pop/erase/update/heapify and an
// O(1)-extra-space heapsort, over a [buffer.Buffer] that may or may
// not be allowed to grow.
package pq

import (
	"fmt"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/buffer"
	"github.com/flatcontainers/ccc/status"
)

// Order selects whether the root of the heap is the least or greatest
// element under Cmp.
type Order int

const (
	// Min makes Front/Pop return the least element.
	Min Order = iota
	// Max makes Front/Pop return the greatest element.
	Max
)

// Cmp three-way compares two payloads. It must be a strict weak
// ordering; a misbehaving Cmp is undefined behavior detectable only via
// [Queue.Validate].
type Cmp[T any] func(a, b T) status.Order

// Queue is an array-backed binary heap over T.
//
// The zero value is not usable; construct with [New] or [NewFixed].
type Queue[T any] struct {
	buf   *buffer.Buffer[T]
	cmp   Cmp[T]
	order Order
	tmp   T
}

// New creates an empty Queue that grows through fn as needed. A nil fn
// gives a fixed, zero-capacity queue: every Push, and every
// [Queue.Reserve] of a positive size, fails with [status.ErrNoAllocator].
func New[T any](cmp Cmp[T], order Order, fn alloc.Func[T], ctx any) *Queue[T] {
	return &Queue[T]{buf: buffer.New(fn, ctx), cmp: cmp, order: order}
}

// NewFixed creates a Queue over caller-supplied backing memory with no
// allocator; its capacity is fixed at len(backing).
func NewFixed[T any](backing []T, cmp Cmp[T], order Order) *Queue[T] {
	return &Queue[T]{buf: buffer.NewFixed(backing), cmp: cmp, order: order}
}

// beats reports whether a should sit above b in the heap.
func (q *Queue[T]) beats(a, b T) bool {
	ord := q.cmp(a, b)

	if q.order == Min {
		return ord == status.Lesser
	}

	return ord == status.Greater
}

// Count returns the number of elements currently in the heap.
func (q *Queue[T]) Count() int { return q.buf.Count() }

// Capacity returns the queue's current backing capacity.
func (q *Queue[T]) Capacity() int { return q.buf.Capacity() }

// Reserve ensures the queue can hold at least n elements without
// growing further.
func (q *Queue[T]) Reserve(n int) error { return q.buf.Reserve(n) }

// Front returns a pointer to the element at the top of the heap (the
// least element for a Min queue, greatest for Max), or false if empty.
func (q *Queue[T]) Front() (*T, bool) {
	if q.buf.Count() == 0 {
		return nil, false
	}

	p, _ := q.buf.At(0)

	return p, true
}

// Push inserts v, restoring the heap property by sifting up.
func (q *Queue[T]) Push(v T) error {
	p, err := q.buf.AllocateBack()
	if err != nil {
		return fmt.Errorf("pq: push: %w", err)
	}

	*p = v

	return q.siftUp(q.buf.Count() - 1)
}

// Pop removes and returns the element at the top of the heap.
func (q *Queue[T]) Pop() (T, error) {
	var zero T

	n := q.buf.Count()
	if n == 0 {
		return zero, fmt.Errorf("pq: pop from empty queue: %w", status.ErrArgument)
	}

	out, _ := q.buf.At(0)
	result := *out

	if err := q.buf.Swap(&q.tmp, 0, n-1); err != nil {
		return zero, err
	}

	q.buf.SetCount(n - 1)

	if n-1 > 0 {
		if err := q.siftDown(0, n-1); err != nil {
			return zero, err
		}
	}

	return result, nil
}

// Erase removes the element at heap index i (index 0 holds the element
// [Queue.Front] returns), restoring the heap property.
func (q *Queue[T]) Erase(i int) error {
	n := q.buf.Count()
	if i < 0 || i >= n {
		return fmt.Errorf("pq: erase: index %d out of range [0, %d): %w", i, n, status.ErrArgument)
	}

	last := n - 1

	if err := q.buf.Swap(&q.tmp, i, last); err != nil {
		return err
	}

	q.buf.SetCount(last)

	if i == last {
		return nil
	}

	return q.fixup(i, last)
}

// Update applies modify to the element at index i in place, then
// restores the heap property by sifting up or down as needed.
func (q *Queue[T]) Update(i int, modify func(*T)) error {
	n := q.buf.Count()
	if i < 0 || i >= n {
		return fmt.Errorf("pq: update: index %d out of range [0, %d): %w", i, n, status.ErrArgument)
	}

	if modify == nil {
		return fmt.Errorf("pq: update: modify is nil: %w", status.ErrArgument)
	}

	p, _ := q.buf.At(i)
	modify(p)

	return q.fixup(i, n)
}

// fixup restores the heap property at i after its value changed,
// sifting up if it now beats its parent or down (over [0, n)) if a
// child now beats it, and doing nothing otherwise.
func (q *Queue[T]) fixup(i, n int) error {
	if i > 0 {
		parent, _ := q.buf.At((i - 1) / 2)
		cur, _ := q.buf.At(i)

		if q.beats(*cur, *parent) {
			return q.siftUp(i)
		}
	}

	return q.siftDown(i, n)
}

// siftUp moves the element at i toward the root while it beats its
// parent.
func (q *Queue[T]) siftUp(i int) error {
	for i > 0 {
		parentIdx := (i - 1) / 2

		parent, err := q.buf.At(parentIdx)
		if err != nil {
			return err
		}

		cur, err := q.buf.At(i)
		if err != nil {
			return err
		}

		if !q.beats(*cur, *parent) {
			break
		}

		if err := q.buf.Swap(&q.tmp, i, parentIdx); err != nil {
			return err
		}

		i = parentIdx
	}

	return nil
}

// siftDown moves the element at i toward the leaves, over the range
// [0, n), while a child beats it.
func (q *Queue[T]) siftDown(i, n int) error {
	for {
		left := 2*i + 1
		right := 2*i + 2

		if left >= n {
			return nil
		}

		best := left

		if right < n {
			leftVal, err := q.buf.At(left)
			if err != nil {
				return err
			}

			rightVal, err := q.buf.At(right)
			if err != nil {
				return err
			}

			if q.beats(*rightVal, *leftVal) {
				best = right
			}
		}

		bestVal, err := q.buf.At(best)
		if err != nil {
			return err
		}

		cur, err := q.buf.At(i)
		if err != nil {
			return err
		}

		if !q.beats(*bestVal, *cur) {
			return nil
		}

		if err := q.buf.Swap(&q.tmp, i, best); err != nil {
			return err
		}

		i = best
	}
}

// HeapifyFrom discards the queue's current contents and rebuilds it
// from src in O(len(src)) time.
func (q *Queue[T]) HeapifyFrom(src []T) error {
	q.buf.Clear(nil)

	if err := q.buf.Reserve(len(src)); err != nil {
		return err
	}

	copy(q.buf.Raw()[:len(src)], src)
	q.buf.SetCount(len(src))

	return q.HeapifyInPlace()
}

// HeapifyInPlace restores the heap property over the queue's current
// contents in O(n) time, by sifting down from the last internal node to
// the root.
func (q *Queue[T]) HeapifyInPlace() error {
	n := q.buf.Count()

	for i := n/2 - 1; i >= 0; i-- {
		if err := q.siftDown(i, n); err != nil {
			return err
		}
	}

	return nil
}

// Heapsort sorts the queue's elements in place and returns the
// underlying [buffer.Buffer], ordered opposite to the queue's Order (a
// Min queue yields non-increasing output, a Max queue non-decreasing,
// since repeated Pop drains the heap from its extreme end inward). It
// runs in O(n log n) time and O(1) extra space. The Queue itself must
// not be used again afterward; its backing storage has been handed to
// the caller.
func (q *Queue[T]) Heapsort() (*buffer.Buffer[T], error) {
	end := q.buf.Count()

	for end > 1 {
		if err := q.buf.Swap(&q.tmp, 0, end-1); err != nil {
			return nil, err
		}

		end--

		if err := q.siftDown(0, end); err != nil {
			return nil, err
		}
	}

	out := q.buf
	q.buf = nil

	return out, nil
}

// Clear empties the queue, invoking destroy (if non-nil) on every
// element first, without releasing backing storage.
func (q *Queue[T]) Clear(destroy func(*T)) { q.buf.Clear(destroy) }

// ClearAndFree empties the queue and releases its backing storage
// through the configured allocator.
func (q *Queue[T]) ClearAndFree(destroy func(*T)) { q.buf.ClearAndFree(destroy) }

// Validate checks that every slot in [0, Count()) does not beat its
// parent, i.e. the array forms a valid heap under Order/Cmp.
func (q *Queue[T]) Validate() error {
	if err := q.buf.Validate(); err != nil {
		return err
	}

	n := q.buf.Count()

	for i := 1; i < n; i++ {
		parent, _ := q.buf.At((i - 1) / 2)
		cur, _ := q.buf.At(i)

		if q.beats(*cur, *parent) {
			return fmt.Errorf("pq: heap invariant violated at index %d: %w", i, status.ErrArgument)
		}
	}

	return nil
}
