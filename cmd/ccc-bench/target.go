package main

import (
	"fmt"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/handlemap"
	"github.com/flatcontainers/ccc/ordermap"
	"github.com/flatcontainers/ccc/pq"
	"github.com/flatcontainers/ccc/status"
)

func cmpInt64(a, b int64) status.Order {
	switch {
	case a < b:
		return status.Lesser
	case a > b:
		return status.Greater
	default:
		return status.Equal
	}
}

// errUnsupported wraps status.ErrArgument for ops a container doesn't
// support (e.g. "insert_or_assign" against a pq).
func errUnsupported(container, op string) error {
	return fmt.Errorf("ccc-bench: %s does not support %s: %w", container, op, status.ErrArgument)
}

// pqTarget adapts [pq.Queue] to [workload.Target]. Key-addressed
// operations are not meaningful for a heap and return ErrArgument.
type pqTarget struct {
	q *pq.Queue[int64]
}

func newPQTarget(capacity int, grows bool) *pqTarget {
	var q *pq.Queue[int64]
	if grows {
		q = pq.New(cmpInt64, pq.Min, alloc.Heap[int64](), nil)
		_ = q.Reserve(capacity)
	} else {
		q = pq.NewFixed(make([]int64, capacity), cmpInt64, pq.Min)
	}

	return &pqTarget{q: q}
}

func (t *pqTarget) Push(v int64) error  { return t.q.Push(v) }
func (t *pqTarget) Pop() (int64, error) { return t.q.Pop() }

func (t *pqTarget) Front() (int64, bool) {
	p, ok := t.q.Front()
	if !ok {
		return 0, false
	}

	return *p, true
}

func (t *pqTarget) Get(int64) (int64, bool)          { return 0, false }
func (t *pqTarget) InsertOrAssign(int64, int64) error { return errUnsupported("pq", "insert_or_assign") }
func (t *pqTarget) TryInsert(int64, int64) error      { return errUnsupported("pq", "try_insert") }
func (t *pqTarget) Remove(int64) (int64, bool)        { return 0, false }
func (t *pqTarget) Clear()                            { t.q.Clear(nil) }

// handlemapRecord is the element type handlemap.Map stores: the key plus
// its payload, since KeyOf extracts the key from a stored record rather
// than the map taking a separate key and value type.
type handlemapRecord struct {
	Key   int64
	Value int64
}

// handlemapTarget adapts [handlemap.Map] to [workload.Target]. Push/Pop/
// Front are not meaningful for a hash map.
type handlemapTarget struct {
	m *handlemap.Map[int64, handlemapRecord]
}

func newHandlemapTarget(capacity int, grows bool) (*handlemapTarget, error) {
	var fn alloc.Func[handlemapRecord]
	if grows {
		fn = alloc.Heap[handlemapRecord]()
	}

	m, err := handlemap.New(handlemap.Options[int64, handlemapRecord]{
		KeyOf:    func(r *handlemapRecord) int64 { return r.Key },
		Hash:     func(k int64) uint64 { return uint64(k) },
		Eq:       func(a, b int64) bool { return a == b },
		Capacity: capacity,
		Alloc:    fn,
	})
	if err != nil {
		return nil, err
	}

	return &handlemapTarget{m: m}, nil
}

func (t *handlemapTarget) Push(int64) error    { return errUnsupported("handlemap", "push") }
func (t *handlemapTarget) Pop() (int64, error) { return 0, errUnsupported("handlemap", "pop") }
func (t *handlemapTarget) Front() (int64, bool) { return 0, false }

func (t *handlemapTarget) Get(key int64) (int64, bool) {
	p, ok := t.m.Get(key)
	if !ok {
		return 0, false
	}

	return p.Value, true
}

func (t *handlemapTarget) InsertOrAssign(key, value int64) error {
	_, err := t.m.InsertOrAssign(key, handlemapRecord{Key: key, Value: value})
	return err
}

func (t *handlemapTarget) TryInsert(key, value int64) error {
	_, err := t.m.TryInsert(key, handlemapRecord{Key: key, Value: value})
	return err
}

func (t *handlemapTarget) Remove(key int64) (int64, bool) {
	v, ok := t.m.Remove(key)
	return v.Value, ok
}

func (t *handlemapTarget) Clear() { t.m.Clear(nil) }

// ordermapRecord is the element type ordermap.Map stores: the ordering
// key plus its payload, since ordermap holds caller records by value
// rather than mapping a separate key to an arbitrary value type.
type ordermapRecord struct {
	Key   int64
	Value int64
}

// ordermapTarget adapts [ordermap.Map] to [workload.Target].
type ordermapTarget struct {
	m *ordermap.Map[int64, ordermapRecord]
}

func newOrdermapTarget(capacity int, grows bool) (*ordermapTarget, error) {
	m, err := ordermap.New(ordermap.Options[int64, ordermapRecord]{
		KeyOf:    func(v *ordermapRecord) int64 { return v.Key },
		Cmp:      cmpInt64,
		Capacity: capacity,
		Grows:    grows,
	})
	if err != nil {
		return nil, err
	}

	return &ordermapTarget{m: m}, nil
}

func (t *ordermapTarget) Push(int64) error    { return errUnsupported("ordermap", "push") }
func (t *ordermapTarget) Pop() (int64, error) { return 0, errUnsupported("ordermap", "pop") }
func (t *ordermapTarget) Front() (int64, bool) {
	p, ok := t.m.Min()
	if !ok {
		return 0, false
	}

	return p.Value, true
}

func (t *ordermapTarget) Get(key int64) (int64, bool) {
	p, ok := t.m.Get(key)
	if !ok {
		return 0, false
	}

	return p.Value, true
}

func (t *ordermapTarget) InsertOrAssign(key, value int64) error {
	_, err := t.m.InsertOrAssign(key, ordermapRecord{Key: key, Value: value})
	return err
}

func (t *ordermapTarget) TryInsert(key, value int64) error {
	_, err := t.m.TryInsert(key, ordermapRecord{Key: key, Value: value})
	return err
}

func (t *ordermapTarget) Remove(key int64) (int64, bool) {
	v, ok := t.m.Remove(key)
	return v.Value, ok
}

func (t *ordermapTarget) Clear() { t.m.Clear(nil) }
