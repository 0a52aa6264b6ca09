package ordermap

import (
	"fmt"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/buffer"
	"github.com/flatcontainers/ccc/entry"
	"github.com/flatcontainers/ccc/status"
)

// link addresses a node. sentinelIdx addresses the tree's external
// sentinel, which lives outside the arena as a dedicated field so that
// releasing the arena's backing storage (ClearAndFree) never costs the
// map its sentinel. A real node at arena slot i is addressed as link
// i+1.
type link int

const sentinelIdx link = 0

// Cmp three-way compares two keys: Lesser, Equal, or Greater, or
// OrderError if the comparison itself is invalid.
type Cmp[K any] func(a, b K) status.Order

type node[T any] struct {
	value  T
	parent link
	child  [2]link
	rank   int
}

// Options configures a new Map.
type Options[K any, T any] struct {
	// KeyOf extracts the ordering key from a stored value.
	KeyOf func(*T) K
	// Cmp three-way compares two keys.
	Cmp Cmp[K]
	// Capacity is the node arena's initial size, in elements. Must be at
	// least 1.
	Capacity int
	// Grows, if true, lets the node arena grow past Capacity through an
	// internal heap allocator. If false the arena is fixed at Capacity
	// and operations that would need to grow past it fail with
	// [status.ErrNoAllocator].
	Grows bool
}

// Map is a WAVL rank-balanced ordered map keyed by K, storing elements
// of type T.
type Map[K any, T any] struct {
	arena    *buffer.Buffer[node[T]]
	sentinel node[T]
	free     []link
	root     link
	live     int

	keyOf func(*T) K
	cmp   Cmp[K]
}

// New constructs a Map per opts.
func New[K any, T any](opts Options[K, T]) (*Map[K, T], error) {
	if opts.KeyOf == nil || opts.Cmp == nil {
		return nil, fmt.Errorf("ordermap: KeyOf and Cmp are required: %w", status.ErrArgument)
	}
	if opts.Capacity < 1 {
		return nil, fmt.Errorf("ordermap: capacity must be at least 1: %w", status.ErrArgument)
	}

	var arena *buffer.Buffer[node[T]]
	if opts.Grows {
		arena = buffer.New(alloc.Heap[node[T]](), nil)
		if err := arena.Reserve(opts.Capacity); err != nil {
			return nil, err
		}
	} else {
		arena = buffer.NewFixed(make([]node[T], opts.Capacity))
	}

	m := &Map[K, T]{
		arena: arena,
		root:  sentinelIdx,
		keyOf: opts.KeyOf,
		cmp:   opts.Cmp,
	}
	m.sentinel.parent, m.sentinel.child[0], m.sentinel.child[1] = sentinelIdx, sentinelIdx, sentinelIdx

	return m, nil
}

// at resolves a link to its node. sentinelIdx resolves to the map's own
// sentinel field rather than a slot in the arena.
func (m *Map[K, T]) at(n link) *node[T] {
	if n == sentinelIdx {
		return &m.sentinel
	}

	p, err := m.arena.At(int(n) - 1)
	if err != nil {
		panic(fmt.Sprintf("ordermap: invalid link %d: %v", n, err))
	}

	return p
}

func (m *Map[K, T]) rank(n link) int {
	if n == sentinelIdx {
		return -1
	}

	return m.at(n).rank
}

func (m *Map[K, T]) rankDiff(parent, child link) int { return m.rank(parent) - m.rank(child) }

func (m *Map[K, T]) promote(n link) { m.at(n).rank++ }
func (m *Map[K, T]) demote(n link)  { m.at(n).rank-- }

// dirOf reports which side of parent child occupies.
func (m *Map[K, T]) dirOf(parent, child link) int {
	if m.at(parent).child[1] == child {
		return 1
	}

	return 0
}

// Len returns the number of live elements.
func (m *Map[K, T]) Len() int { return m.live }

func (m *Map[K, T]) allocNode() (link, error) {
	if n := len(m.free); n > 0 {
		h := m.free[n-1]
		m.free = m.free[:n-1]

		return h, nil
	}

	if _, err := m.arena.AllocateBack(); err != nil {
		return 0, err
	}

	return link(m.arena.Count()), nil
}

func (m *Map[K, T]) freeNode(n link) {
	m.free = append(m.free, n)
}

// search descends the tree for key. If found is true, idx names the
// matching node. Otherwise idx is sentinelIdx, parent/dir name where a
// new node should attach.
func (m *Map[K, T]) search(key K) (idx link, found bool, parent link, dir int) {
	cur := m.root
	parent = sentinelIdx

	for cur != sentinelIdx {
		n := m.at(cur)

		switch m.cmp(key, m.keyOf(&n.value)) {
		case status.Equal:
			return cur, true, sentinelIdx, 0
		case status.Lesser:
			parent, dir = cur, 0
			cur = n.child[0]
		default:
			parent, dir = cur, 1
			cur = n.child[1]
		}
	}

	return sentinelIdx, false, parent, dir
}

// rotateUp replaces p in the tree with p.child[dir], making p the new
// top node's (1-dir)-child. Returns the new top node.
func (m *Map[K, T]) rotateUp(p link, dir int) link {
	x := m.at(p).child[dir]
	beta := m.at(x).child[1-dir]

	m.at(p).child[dir] = beta
	if beta != sentinelIdx {
		m.at(beta).parent = p
	}

	gp := m.at(p).parent
	m.at(x).parent = gp

	switch {
	case gp == sentinelIdx:
		m.root = x
	case m.at(gp).child[0] == p:
		m.at(gp).child[0] = x
	default:
		m.at(gp).child[1] = x
	}

	m.at(x).child[1-dir] = p
	m.at(p).parent = x

	return x
}

// Lookup returns the Entry for key.
func (m *Map[K, T]) Lookup(key K) entry.Entry[T] {
	idx, found, parent, dir := m.search(key)

	if found {
		n := m.at(idx)

		return entry.New[T](status.Occupied,
			func() *T { return &n.value },
			func(v T) (*T, error) { n.value = v; return &n.value, nil },
			func() (T, bool) {
				val := n.value
				m.removeAt(idx)
				return val, true
			},
		)
	}

	return entry.New[T](status.Vacant,
		nil,
		func(v T) (*T, error) { return m.insertAt(parent, dir, v) },
		nil,
	)
}

func (m *Map[K, T]) insertAt(parent link, dir int, v T) (*T, error) {
	idx, err := m.allocNode()
	if err != nil {
		return nil, fmt.Errorf("ordermap: %w", err)
	}

	n := m.at(idx)
	n.value = v
	n.parent = parent
	n.child = [2]link{sentinelIdx, sentinelIdx}
	n.rank = 0

	if parent == sentinelIdx {
		m.root = idx
	} else {
		p := m.at(parent)
		wasLeaf := p.child[0] == sentinelIdx && p.child[1] == sentinelIdx
		p.child[dir] = idx

		if wasLeaf {
			m.insertFixup(idx)
		}
	}

	m.live++

	return &m.at(idx).value, nil
}

func (m *Map[K, T]) insertFixup(x link) {
	p := m.at(x).parent

	for p != sentinelIdx && m.rankDiff(p, x) == 0 {
		dir := m.dirOf(p, x)
		sib := m.at(p).child[1-dir]

		if m.rankDiff(p, sib) == 1 {
			m.promote(p)
			x = p
			p = m.at(x).parent

			continue
		}

		m.insertRebalance(p, x, dir)

		return
	}
}

func (m *Map[K, T]) insertRebalance(p, x link, dir int) {
	outer := m.at(x).child[dir]

	if m.rankDiff(x, outer) == 1 {
		m.rotateUp(p, dir)
		m.demote(p)

		return
	}

	inner := m.at(x).child[1-dir]
	m.rotateUp(x, 1-dir)
	m.rotateUp(p, dir)
	m.promote(inner)
	m.demote(p)
	m.demote(x)
}

// Get returns a pointer to the value stored under key, if present.
func (m *Map[K, T]) Get(key K) (*T, bool) {
	idx, found, _, _ := m.search(key)
	if !found {
		return nil, false
	}

	return &m.at(idx).value, true
}

// TryInsert inserts v under key only if key is absent, returning the
// (possibly pre-existing) stored value either way.
func (m *Map[K, T]) TryInsert(key K, v T) (*T, error) {
	return m.Lookup(key).OrInsert(v)
}

// InsertOrAssign inserts v under key, overwriting any existing value.
func (m *Map[K, T]) InsertOrAssign(key K, v T) (*T, error) {
	return m.Lookup(key).InsertEntry(v)
}

// Remove deletes key, if present, returning its value.
func (m *Map[K, T]) Remove(key K) (T, bool) {
	idx, found, _, _ := m.search(key)
	if !found {
		var zero T
		return zero, false
	}

	val := m.at(idx).value
	m.removeAt(idx)

	return val, true
}

func (m *Map[K, T]) minNode(n link) link {
	for m.at(n).child[0] != sentinelIdx {
		n = m.at(n).child[0]
	}

	return n
}

func (m *Map[K, T]) maxNode(n link) link {
	for m.at(n).child[1] != sentinelIdx {
		n = m.at(n).child[1]
	}

	return n
}

func (m *Map[K, T]) removeAt(target link) {
	if m.at(target).child[0] != sentinelIdx && m.at(target).child[1] != sentinelIdx {
		succ := m.minNode(m.at(target).child[1])
		m.at(target).value = m.at(succ).value
		target = succ
	}

	n := m.at(target)
	child := n.child[0]
	if child == sentinelIdx {
		child = n.child[1]
	}
	parent := n.parent

	dir := 0
	if parent != sentinelIdx && m.at(parent).child[1] == target {
		dir = 1
	}

	if parent == sentinelIdx {
		m.root = child
	} else {
		m.at(parent).child[dir] = child
	}
	if child != sentinelIdx {
		m.at(child).parent = parent
	}

	if parent != sentinelIdx {
		m.deleteFixup(parent, dir)
	}

	m.freeNode(target)
	m.live--
}

func (m *Map[K, T]) deleteFixup(z link, dir int) {
	// A parent left childless by the splice drops back to leaf rank 0,
	// which can make it a 3-child of its own parent.
	if zn := m.at(z); zn.child[0] == sentinelIdx && zn.child[1] == sentinelIdx && zn.rank > 0 {
		zn.rank = 0
		child := z
		z = zn.parent
		if z == sentinelIdx {
			return
		}
		dir = m.dirOf(z, child)
	}

	for z != sentinelIdx {
		x := m.at(z).child[dir]
		if m.rankDiff(z, x) != 3 {
			return
		}

		sibDir := 1 - dir
		y := m.at(z).child[sibDir]

		switch m.rankDiff(z, y) {
		case 2:
			m.demote(z)
		case 1:
			if m.isTwoTwoParent(y) {
				m.demote(z)
				m.demote(y)
			} else {
				m.deleteRebalance(z, y, dir, sibDir)
				if zn := m.at(z); zn.child[0] == sentinelIdx && zn.child[1] == sentinelIdx {
					zn.rank = 0
				}
				return
			}
		default:
			return
		}

		child := z
		z = m.at(z).parent
		if z == sentinelIdx {
			return
		}
		dir = m.dirOf(z, child)
	}
}

func (m *Map[K, T]) isTwoTwoParent(n link) bool {
	return m.rankDiff(n, m.at(n).child[0]) == 2 && m.rankDiff(n, m.at(n).child[1]) == 2
}

// deleteRebalance resolves a 3-child of z via single or double rotation.
// y = z.child[sibDir] is a 1-child of z and not a (2,2) node.
func (m *Map[K, T]) deleteRebalance(z, y link, dir, sibDir int) {
	yFar := m.at(y).child[sibDir]

	if m.rankDiff(y, yFar) == 1 {
		m.rotateUp(z, sibDir)
		m.promote(y)
		m.demote(z)

		return
	}

	yNear := m.at(y).child[dir]
	m.rotateUp(y, dir)
	m.rotateUp(z, sibDir)
	m.promote(yNear)
	m.promote(yNear)
	m.demote(z)
	m.demote(z)
	m.demote(y)
}

// Clear removes every element. destroy, if non-nil, runs on each
// element's value before it is discarded. Implemented as an iterative
// right-rotation degeneration to a spine: O(n) time, O(1) extra space,
// no recursion.
func (m *Map[K, T]) Clear(destroy func(*T)) {
	cur := m.root

	for cur != sentinelIdx {
		if m.at(cur).child[0] != sentinelIdx {
			cur = m.rotateUp(cur, 0)
			continue
		}

		next := m.at(cur).child[1]
		if destroy != nil {
			destroy(&m.at(cur).value)
		}
		m.freeNode(cur)
		cur = next
	}

	m.root = sentinelIdx
	m.live = 0
}

// ClearAndFree clears and releases the node arena's backing storage,
// the same contract as [buffer.Buffer.ClearAndFree]: a growing map can
// keep inserting afterward (its allocator refills the arena on demand);
// a fixed (no-allocator) map has given up its only backing memory and
// every subsequent operation that needs a node fails with
// [status.ErrNoAllocator] until the caller constructs a new Map. The
// sentinel itself lives outside the arena, so it survives either way.
func (m *Map[K, T]) ClearAndFree(destroy func(*T)) {
	m.Clear(destroy)
	m.free = nil
	m.arena.ClearAndFree(nil)
}

// Validate checks the WAVL invariants: BST key order, no rank-0 child,
// no rank difference above 2 once the tree is settled (no operation in
// progress), root's parent is the sentinel, and the live count matches
// the reachable node count.
func (m *Map[K, T]) Validate() error {
	if m.at(sentinelIdx).parent != sentinelIdx {
		return fmt.Errorf("ordermap: sentinel parent corrupted: %w", status.ErrArgument)
	}
	if m.root != sentinelIdx && m.at(m.root).parent != sentinelIdx {
		return fmt.Errorf("ordermap: root's parent is not the sentinel: %w", status.ErrArgument)
	}

	count := 0
	var walk func(n, lo, hi link, loSet, hiSet bool) error

	walk = func(n, lo, hi link, loSet, hiSet bool) error {
		if n == sentinelIdx {
			return nil
		}

		count++
		nd := m.at(n)
		key := m.keyOf(&nd.value)

		if loSet && m.cmp(m.keyOf(&m.at(lo).value), key) != status.Lesser {
			return fmt.Errorf("ordermap: key order violated at node %d: %w", n, status.ErrArgument)
		}
		if hiSet && m.cmp(key, m.keyOf(&m.at(hi).value)) != status.Lesser {
			return fmt.Errorf("ordermap: key order violated at node %d: %w", n, status.ErrArgument)
		}

		for dir := 0; dir < 2; dir++ {
			c := nd.child[dir]
			if c == sentinelIdx {
				continue
			}
			if m.at(c).parent != n {
				return fmt.Errorf("ordermap: parent pointer corrupted at node %d: %w", c, status.ErrArgument)
			}
			diff := m.rankDiff(n, c)
			if diff != 1 && diff != 2 {
				return fmt.Errorf("ordermap: node %d has a %d-child: %w", n, diff, status.ErrArgument)
			}
		}

		if err := walk(nd.child[0], lo, n, loSet, true); err != nil {
			return err
		}

		return walk(nd.child[1], n, hi, true, hiSet)
	}

	if err := walk(m.root, sentinelIdx, sentinelIdx, false, false); err != nil {
		return err
	}

	if count != m.live {
		return fmt.Errorf("ordermap: reachable node count %d != live count %d: %w", count, m.live, status.ErrArgument)
	}

	return nil
}
