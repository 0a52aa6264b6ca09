// Package handlemap implements a handle hash map: a Robin-Hood
// open-addressed table whose metadata may relocate on resize but whose
// payload slots never move once assigned, so a caller can hold a
// [Handle] across inserts/removes of other keys and keep resolving it
// to the same element.
//
// # Two independent arrays instead of one combined buffer
//
// A natural design embeds both the Robin-Hood metadata (hash,
// payload-slot index) and the payload inline in a single record, with a
// resize procedure that walks the set of occupied payload indices to
// reassign them into the newly-grown backing array. That coupling
// forces every metadata resize to also shuffle payload storage, which
// in turn means payload slots move and a held [Handle] can be
// invalidated by an insert or remove that never touched its key.
//
// This package keeps the metadata array (Robin-Hood probing) and the
// payload array (stable slot storage) as two independent arrays
// connected only by the hash record's slot field, with payload slot
// assignment handled by an explicit free list. Decoupling them this way
// removes the need for payload reassignment on resize entirely: a
// metadata resize only ever touches the metadata array (a plain rehash
// into a bigger table, preserving every live slot field unchanged), and
// payload slots are claimed/freed by ordinary free-list push/pop. Handle
// stability across resizes, Robin-Hood distance monotonicity, and
// live_count = size - 2 at the public boundary all hold under this
// design without requiring payload slots to ever move.
package handlemap
