package ordermap

import "github.com/flatcontainers/ccc/status"

// successor returns the in-order successor of n, or sentinelIdx if n
// holds the maximum key.
func (m *Map[K, T]) successor(n link) link {
	if right := m.at(n).child[1]; right != sentinelIdx {
		return m.minNode(right)
	}

	p := m.at(n).parent
	for p != sentinelIdx && m.at(p).child[1] == n {
		n = p
		p = m.at(p).parent
	}

	return p
}

// predecessor returns the in-order predecessor of n, or sentinelIdx if
// n holds the minimum key.
func (m *Map[K, T]) predecessor(n link) link {
	if left := m.at(n).child[0]; left != sentinelIdx {
		return m.maxNode(left)
	}

	p := m.at(n).parent
	for p != sentinelIdx && m.at(p).child[0] == n {
		n = p
		p = m.at(p).parent
	}

	return p
}

// lowerBound returns the smallest node whose key is not less than key,
// or sentinelIdx if every key in the map is less than key.
func (m *Map[K, T]) lowerBound(key K) link {
	cur := m.root
	result := sentinelIdx

	for cur != sentinelIdx {
		n := m.at(cur)
		if m.cmp(m.keyOf(&n.value), key) == status.Lesser {
			cur = n.child[1]
		} else {
			result = cur
			cur = n.child[0]
		}
	}

	return result
}

// floor returns the largest node whose key is not greater than key, or
// sentinelIdx if every key in the map is greater than key.
func (m *Map[K, T]) floor(key K) link {
	cur := m.root
	result := sentinelIdx

	for cur != sentinelIdx {
		n := m.at(cur)
		if m.cmp(m.keyOf(&n.value), key) == status.Greater {
			cur = n.child[0]
		} else {
			result = cur
			cur = n.child[1]
		}
	}

	return result
}

// Ascend visits every (key, value) pair in ascending key order, calling
// fn for each, stopping early if fn returns false.
func (m *Map[K, T]) Ascend(fn func(K, *T) bool) {
	if m.root == sentinelIdx {
		return
	}

	for n := m.minNode(m.root); n != sentinelIdx; n = m.successor(n) {
		nd := m.at(n)
		if !fn(m.keyOf(&nd.value), &nd.value) {
			return
		}
	}
}

// Descend visits every (key, value) pair in descending key order.
func (m *Map[K, T]) Descend(fn func(K, *T) bool) {
	if m.root == sentinelIdx {
		return
	}

	for n := m.maxNode(m.root); n != sentinelIdx; n = m.predecessor(n) {
		nd := m.at(n)
		if !fn(m.keyOf(&nd.value), &nd.value) {
			return
		}
	}
}

// EqualRange visits every (key, value) pair with lo <= key < hi in
// ascending order, i.e. the half-open interval [lo, hi).
func (m *Map[K, T]) EqualRange(lo, hi K, fn func(K, *T) bool) {
	for n := m.lowerBound(lo); n != sentinelIdx; n = m.successor(n) {
		nd := m.at(n)
		key := m.keyOf(&nd.value)

		if m.cmp(key, hi) != status.Lesser {
			return
		}
		if !fn(key, &nd.value) {
			return
		}
	}
}

// EqualRRange visits every (key, value) pair with lo < key <= hi in
// descending order — the mirror of [Map.EqualRange], inclusive on the
// traversal's starting endpoint instead of its ending one.
func (m *Map[K, T]) EqualRRange(hi, lo K, fn func(K, *T) bool) {
	for n := m.floor(hi); n != sentinelIdx; n = m.predecessor(n) {
		nd := m.at(n)
		key := m.keyOf(&nd.value)

		if m.cmp(key, lo) != status.Greater {
			return
		}
		if !fn(key, &nd.value) {
			return
		}
	}
}

// Min returns the smallest key's value, if the map is non-empty.
func (m *Map[K, T]) Min() (*T, bool) {
	if m.root == sentinelIdx {
		return nil, false
	}

	return &m.at(m.minNode(m.root)).value, true
}

// Max returns the largest key's value, if the map is non-empty.
func (m *Map[K, T]) Max() (*T, bool) {
	if m.root == sentinelIdx {
		return nil, false
	}

	return &m.at(m.maxNode(m.root)).value, true
}
