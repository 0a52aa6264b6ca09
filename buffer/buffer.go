// Package buffer implements the storage substrate shared by the flat
// priority queue, the handle hash map (for its payload slots), and the
// ordered map (as its node arena): a contiguous region of fixed-width
// slots that tracks an active count separately from its capacity, and
// that can grow through a caller-supplied [alloc.Func] or stay fixed
// when none is given.
//
// Buffer never interprets slot contents. Every higher-level container
// in this module owns a *Buffer (over its own element type, or, for the
// ordered map, over its internal node type) as its one storage primitive.
package buffer

import (
	"fmt"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/status"
)

// Buffer is a contiguous, typed region of slots.
//
// The zero value is not usable; construct with [New] or [NewFixed].
type Buffer[T any] struct {
	data  []T
	count int
	alloc alloc.Func[T]
	ctx   any
}

// New creates an empty Buffer that grows through fn as needed. ctx is
// opaque caller state, threaded through to fn unchanged on every call.
// A nil fn is equivalent to calling [NewFixed] with a nil backing
// slice: every growth request fails with [status.ErrNoAllocator].
func New[T any](fn alloc.Func[T], ctx any) *Buffer[T] {
	return &Buffer[T]{alloc: fn, ctx: ctx}
}

// NewFixed creates a Buffer over caller-supplied backing memory (stack,
// static, or heap) with no allocator. Its capacity is fixed at
// len(backing) for the Buffer's lifetime; operations that would need to
// grow past that report [status.ErrNoAllocator].
func NewFixed[T any](backing []T) *Buffer[T] {
	return &Buffer[T]{data: backing}
}

// Count returns the number of active slots.
func (b *Buffer[T]) Count() int { return b.count }

// Capacity returns the total number of slots currently backing the
// Buffer, active or not.
func (b *Buffer[T]) Capacity() int { return len(b.data) }

// SetCount overrides the active count directly. Used by containers
// (flat priority queue pop/erase/heapify) that manage slot contents
// themselves and only need Buffer to track how many of them are live. Panics if n is negative or exceeds capacity —
// that is always a caller bug, never a runtime condition.
func (b *Buffer[T]) SetCount(n int) {
	if n < 0 || n > len(b.data) {
		panic(fmt.Sprintf("buffer: SetCount(%d) out of range [0, %d]", n, len(b.data)))
	}

	b.count = n
}

// At returns a pointer to slot i. i must be in [0, Capacity()); At does
// not restrict to the active range, so inactive slots in
// [Count(), Capacity()) are addressable too.
func (b *Buffer[T]) At(i int) (*T, error) {
	if i < 0 || i >= len(b.data) {
		return nil, fmt.Errorf("buffer: index %d out of range [0, %d): %w", i, len(b.data), status.ErrArgument)
	}

	return &b.data[i], nil
}

// Slice returns the live slots [0, Count()) as a Go slice. The returned
// slice aliases Buffer's storage; callers must not retain it across a
// mutating Buffer operation.
func (b *Buffer[T]) Slice() []T { return b.data[:b.count] }

// Raw returns the full backing slice, including inactive slots.
func (b *Buffer[T]) Raw() []T { return b.data }

// Swap exchanges the values at i and j using tmp as scratch, so Buffer
// never needs to allocate to perform a swap. tmp must not alias any
// element currently in the buffer.
func (b *Buffer[T]) Swap(tmp *T, i, j int) error {
	pi, err := b.At(i)
	if err != nil {
		return err
	}

	pj, err := b.At(j)
	if err != nil {
		return err
	}

	if i == j {
		return nil
	}

	*tmp = *pi
	*pi = *pj
	*pj = *tmp

	return nil
}

// Reserve ensures capacity is at least n, growing through the
// configured allocator if necessary. Reserve never shrinks. On
// [status.ErrNoAllocator]/[status.ErrMemory], the Buffer is left
// unchanged.
func (b *Buffer[T]) Reserve(n int) error {
	if n <= len(b.data) {
		return nil
	}

	grown, err := alloc.Grow(b.alloc, b.data, n, b.ctx)
	if err != nil {
		return err
	}

	b.data = grown

	return nil
}

// AllocateBack grows the active range by one slot (reserving capacity
// first if necessary) and returns a pointer to the new slot, whose
// value is the zero value of T.
func (b *Buffer[T]) AllocateBack() (*T, error) {
	if err := b.Reserve(b.count + 1); err != nil {
		return nil, err
	}

	b.data[b.count] = *new(T)
	b.count++

	return &b.data[b.count-1], nil
}

// CopyInto copies src's active slots into dst, growing dst through its
// own allocator if it does not already have room. dst's prior active
// slots beyond len(src slots) are left in place; its count becomes
// src's count.
func CopyInto[T any](dst, src *Buffer[T]) error {
	if err := dst.Reserve(src.count); err != nil {
		return err
	}

	copy(dst.data, src.data[:src.count])
	dst.count = src.count

	return nil
}

// Clear resets the active count to zero without releasing storage.
// destroy, if non-nil, is invoked on every active slot first; destructors
// for payload-referenced resources are always caller-supplied.
func (b *Buffer[T]) Clear(destroy func(*T)) {
	if destroy != nil {
		for i := 0; i < b.count; i++ {
			destroy(&b.data[i])
		}
	}

	b.count = 0
}

// ClearAndFree clears (invoking destroy on every active slot) and then
// releases the backing storage through the configured allocator,
// leaving the Buffer at zero capacity.
func (b *Buffer[T]) ClearAndFree(destroy func(*T)) {
	b.Clear(destroy)
	alloc.Release(b.alloc, b.data, b.ctx)
	b.data = nil
}

// ClearAndFreeReserved clears and releases storage like
// [Buffer.ClearAndFree], then immediately reserves capacity for
// reserved slots again, so the next insert does not pay a fresh
// allocation.
func (b *Buffer[T]) ClearAndFreeReserved(destroy func(*T), reserved int) error {
	b.ClearAndFree(destroy)

	if reserved <= 0 {
		return nil
	}

	return b.Reserve(reserved)
}

// Validate checks Buffer's own invariants: 0 <= count <= capacity.
func (b *Buffer[T]) Validate() error {
	if b.count < 0 || b.count > len(b.data) {
		return fmt.Errorf("buffer: invariant violated, count=%d capacity=%d: %w", b.count, len(b.data), status.ErrArgument)
	}

	return nil
}
