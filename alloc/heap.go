package alloc

// Heap returns a [Func] that grows T using ordinary Go heap allocation:
// KindAlloc/KindRealloc make a new slice of the requested capacity and
// copy over any existing elements; KindFree is a no-op (the garbage
// collector reclaims the region once it's unreferenced).
//
// This is the allocator to reach for when a container should behave
// like a normal Go slice-backed type: unbounded growth, no caller-owned
// memory region.
func Heap[T any]() Func[T] {
	return func(req Request[T]) ([]T, error) {
		switch req.Kind {
		case KindFree:
			return nil, nil
		default:
			next := make([]T, req.Count)
			copy(next, req.Old)

			return next, nil
		}
	}
}
