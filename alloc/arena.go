package alloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/flatcontainers/ccc/status"
)

// Arena is a fixed-capacity, mmap-backed memory region. Containers are
// usually handed a caller-supplied backing region living on the stack,
// in static storage, or on the heap; Arena adds a fourth, OS-backed
// option: a single anonymous mapping sized at construction time, handed
// to containers as their "no real allocator, fixed capacity" backing
// store while still letting [Grow] report a proper
// [status.ErrNoAllocator]/[status.ErrMemory] split instead of the
// caller having to special-case it.
//
// Arena is single-owner and not safe for concurrent use, matching every
// other container in this module.
type Arena[T any] struct {
	region []T
	mmap   []byte
}

// NewArena reserves capacity elements of T in one anonymous mmap
// region. Returns an error if the mapping fails or capacity is not
// positive.
func NewArena[T any](capacity int) (*Arena[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("arena: capacity must be positive, got %d: %w", capacity, status.ErrArgument)
	}

	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	length := elemSize * capacity

	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", length, err)
	}

	region := unsafe.Slice((*T)(unsafe.Pointer(&data[0])), capacity)

	return &Arena[T]{region: region, mmap: data}, nil
}

// Close unmaps the arena's backing memory. The arena must not be used
// afterward.
func (a *Arena[T]) Close() error {
	if a.mmap == nil {
		return nil
	}

	err := unix.Munmap(a.mmap)
	a.mmap = nil
	a.region = nil

	return err
}

// Func returns the [Func] callback backed by this arena. The arena
// satisfies KindAlloc/KindRealloc requests only up to its fixed capacity,
// always from the same region: a container that grows through it plateaus at the arena's
// capacity and subsequent requests beyond that report [status.ErrMemory].
// KindFree is a no-op; the whole arena is released via [Arena.Close].
func (a *Arena[T]) Func() Func[T] {
	return func(req Request[T]) ([]T, error) {
		if req.Kind == KindFree {
			return nil, nil
		}

		if req.Count > len(a.region) {
			return nil, nil // declined: exceeds fixed arena capacity
		}

		next := a.region[:req.Count]
		copy(next, req.Old)

		return next, nil
	}
}
