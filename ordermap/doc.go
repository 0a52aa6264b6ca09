// Package ordermap implements a rank-balanced ordered map: a WAVL
// (weak-AVL) tree keyed by a caller-extracted field, supporting
// ordered iteration and equal-range queries with at most two rotations
// per insert or delete.
//
// # Rank storage holds a full integer, not a parity bit
//
// A single rank-parity bit is sufficient for insert fix-up, whose only
// violation shape is a 0-child (rank difference 0, detectable from
// parity alone because a fresh leaf and its leaf parent necessarily
// share parity, and every later ascent step preserves that property).
// Delete fix-up is not: it can momentarily create a 3-child (rank
// difference 3), and 3 and 1 have the same parity, so a single bit
// cannot tell a transient 3-child violation apart from an ordinary
// 1-child — there is no local information left after the fact to
// disambiguate them. Reference rank-balanced tree implementations
// universally store a small integer rank per node for exactly this
// reason. This package does too (node.rank int); Validate checks the
// rank-difference invariants directly off that integer rather than
// reconstructing them from parity, so the externally observable
// contract (no 0-child ever, at most one transient 3-child during a
// single delete) is unchanged.
//
// # Node storage
//
// The container owns its bookkeeping in an internal node holding the
// payload by value rather than embedding links in caller memory via an
// offset. Nodes live in a [buffer.Buffer] arena addressed by integer
// link; the sentinel itself is a dedicated Map field rather than an
// arena slot, so that releasing the arena (ClearAndFree) never costs
// the map its self-referential sentinel (both children and its parent
// point to itself, satisfying "root's parent is the sentinel" and
// "sentinel's branches point to itself" directly). Freed real nodes
// return to a free list the same way handlemap's payload slots do.
package ordermap
