// Package entry implements the Entry/Handle query protocol shared by
// the handle hash map and the ordered map: the result of a lookup,
// carrying enough state to drive an insert, modify, or remove without
// re-searching.
//
// Entry itself holds no container-specific state (no slot index, no
// tree node pointer) — each container builds an Entry from a handful of
// closures over its own internals, exposing and_modify/update as a
// closure parameter rather than an inlined statement block.
package entry

import (
	"github.com/flatcontainers/ccc/status"
)

// Entry is a container-specific lookup result.
type Entry[T any] struct {
	flags status.EntryFlag

	payload  func() *T
	doInsert func(T) (*T, error)
	doRemove func() (T, bool)
}

// New builds an Entry. payload, doInsert, and doRemove may be nil when
// the corresponding follow-up is not available for this lookup's
// status (e.g. doInsert is nil on an Occupied entry that does not
// support insert_or_assign-via-OrInsert because the element already
// exists and no overwrite was requested).
func New[T any](flags status.EntryFlag, payload func() *T, doInsert func(T) (*T, error), doRemove func() (T, bool)) Entry[T] {
	return Entry[T]{flags: flags, payload: payload, doInsert: doInsert, doRemove: doRemove}
}

// Flags returns the raw status bitset.
func (e Entry[T]) Flags() status.EntryFlag { return e.flags }

// Occupied reports whether the lookup found a live element.
func (e Entry[T]) Occupied() bool { return e.flags.Has(status.Occupied) }

// Vacant reports whether the lookup found only an insertion point.
func (e Entry[T]) Vacant() bool { return e.flags.Has(status.Vacant) }

// Err reports the error a follow-up would fail with, or nil if the
// entry is healthy (Occupied or Vacant with no error bits set).
func (e Entry[T]) Err() error {
	switch {
	case e.flags.Has(status.InputError):
		return status.ErrArgument
	case e.flags.Has(status.EntryInsertError):
		return status.ErrInsert
	default:
		return nil
	}
}

// Unwrap returns a pointer to the live payload, and true, iff Occupied.
func (e Entry[T]) Unwrap() (*T, bool) {
	if !e.Occupied() || e.payload == nil {
		return nil, false
	}

	return e.payload(), true
}

// OrInsert inserts v only if the entry is Vacant, returning a pointer to
// the (possibly just-inserted) live element either way.
func (e Entry[T]) OrInsert(v T) (*T, error) {
	if e.Occupied() {
		if e.payload == nil {
			return nil, status.ErrArgument
		}

		return e.payload(), nil
	}

	if err := e.Err(); err != nil {
		return nil, err
	}

	if e.doInsert == nil {
		return nil, status.ErrArgument
	}

	return e.doInsert(v)
}

// InsertEntry inserts v unconditionally, overwriting any existing
// element.
func (e Entry[T]) InsertEntry(v T) (*T, error) {
	if err := e.Err(); err != nil {
		return nil, err
	}

	if e.doInsert == nil {
		return nil, status.ErrArgument
	}

	return e.doInsert(v)
}

// AndModify runs fn on the live payload iff Occupied, then returns the
// same entry so calls can be chained (e.g. with a following OrInsert).
func (e Entry[T]) AndModify(fn func(*T)) Entry[T] {
	if e.Occupied() && e.payload != nil && fn != nil {
		fn(e.payload())
	}

	return e
}

// RemoveEntry removes the live element iff Occupied, returning it.
// ok is false (and the returned value is T's zero value) if the entry
// was Vacant or carries an error.
func (e Entry[T]) RemoveEntry() (value T, ok bool) {
	if !e.Occupied() || e.doRemove == nil {
		return value, false
	}

	return e.doRemove()
}
