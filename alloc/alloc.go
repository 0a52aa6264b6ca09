// Package alloc implements the allocator contract shared by every
// container in this module: a single tagged-request callback, threaded
// opaque context, and an explicit "no allocator" sentinel distinct from
// "allocator present but denied the request".
//
// A container constructed with a nil [Func] has a fixed capacity: any
// operation that would need to grow the backing storage fails with
// [status.ErrNoAllocator] instead of calling through a missing
// callback. A container constructed with a non-nil [Func] may grow on
// demand; if the callback itself declines (returns a nil slice and a
// nil error), the operation fails with [status.ErrMemory] and the
// container's prior state is left untouched.
package alloc

import "github.com/flatcontainers/ccc/status"

// Kind tags an allocator [Request].
type Kind int

const (
	// KindAlloc requests a fresh region of Count elements.
	KindAlloc Kind = iota
	// KindRealloc requests that Old be grown (or shrunk) to Count
	// elements, preserving the elements already present.
	KindRealloc
	// KindFree requests that Old be released. Count is always 0.
	KindFree
)

// Request is the tagged request passed to a [Func]. It expresses a
// {allocate N elements / reallocate to N elements / free} contract as
// a typed element count rather than a raw byte size, since every
// concrete container in this module is a generic Go type rather than
// an untyped byte buffer.
type Request[T any] struct {
	Kind Kind
	// Old is the existing region for Realloc/Free; nil for Alloc.
	Old []T
	// Count is the requested element count; 0 for Free.
	Count int
	// Context is opaque caller-supplied state, threaded through
	// unchanged on every call.
	Context any
}

// Func is the allocator callback contract. On KindAlloc/KindRealloc, a
// successful result has length exactly req.Count, with req.Old's
// elements preserved at the front. Returning (nil, nil) means "declined"
// and is surfaced as [status.ErrMemory]; a nil Func altogether means "no
// allocator" and is surfaced as [status.ErrNoAllocator] before the
// callback would even be invoked.
type Func[T any] func(req Request[T]) ([]T, error)

// Grow asks fn to produce a region of at least count elements,
// preserving the contents of old. It is the single entry point every
// container package uses to talk to an allocator, so the
// nil-means-no-allocator / nil-result-means-denied rules live in one
// place.
//
// Grow never panics on a nil fn; it returns [status.ErrNoAllocator].
func Grow[T any](fn Func[T], old []T, count int, ctx any) ([]T, error) {
	if fn == nil {
		return nil, status.ErrNoAllocator
	}

	kind := KindAlloc
	if old != nil {
		kind = KindRealloc
	}

	out, err := fn(Request[T]{Kind: kind, Old: old, Count: count, Context: ctx})
	if err != nil {
		return nil, err
	}

	if out == nil {
		return nil, status.ErrMemory
	}

	return out, nil
}

// Release asks fn to free old. It is a no-op if fn or old is nil; the
// container's own bookkeeping (count, capacity) is the caller's
// responsibility. Destructors for payload-referenced resources are
// always caller-supplied; this only releases the backing region itself.
func Release[T any](fn Func[T], old []T, ctx any) {
	if fn == nil || old == nil {
		return
	}

	_, _ = fn(Request[T]{Kind: KindFree, Old: old, Context: ctx})
}
