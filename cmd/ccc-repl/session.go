package main

import (
	"fmt"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/handlemap"
	"github.com/flatcontainers/ccc/ordermap"
	"github.com/flatcontainers/ccc/pq"
	"github.com/flatcontainers/ccc/status"
)

// session is the command surface the REPL drives, implemented once per
// container. Operations meaningless for a given container return an
// error naming the container where they have an error result (e.g. range
// scans on a handlemap) and report a miss otherwise (e.g. Get on a pq).
type session interface {
	Push(v int64) error
	Pop() (v int64, ok bool, err error)
	Front() (v int64, ok bool)

	Put(k, v int64) error
	TryInsert(k, v int64) (stored int64, err error)
	Get(k int64) (v int64, ok bool)
	Entry(k int64) string
	Remove(k int64) (v int64, ok bool)

	Range(lo, hi int64) ([]record, error)
	RRange(hi, lo int64) ([]record, error)
	Ascend() ([]record, error)
	Descend() ([]record, error)

	Len() int
	Validate() error
	Clear()
}

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

func newSession(container string, capacity int, grows bool) (session, error) {
	switch container {
	case "pq":
		return newPQSession(capacity, grows), nil
	case "handlemap":
		return newHandlemapSession(capacity, grows)
	case "ordermap":
		return newOrdermapSession(capacity, grows)
	default:
		return nil, fmt.Errorf("unknown container %q (want pq, handlemap, or ordermap)", container)
	}
}

func errUnsupported(container, op string) error {
	return fmt.Errorf("%s does not support %s: %w", container, op, status.ErrArgument)
}

// --- pq session ---

type pqSession struct {
	q *pq.Queue[int64]
}

func newPQSession(capacity int, grows bool) *pqSession {
	var q *pq.Queue[int64]
	if grows {
		q = pq.New(cmpInt64, pq.Min, alloc.Heap[int64](), nil)
		_ = q.Reserve(capacity)
	} else {
		q = pq.NewFixed(make([]int64, capacity), cmpInt64, pq.Min)
	}

	return &pqSession{q: q}
}

func (s *pqSession) Push(v int64) error { return s.q.Push(v) }

func (s *pqSession) Pop() (int64, bool, error) {
	if s.q.Count() == 0 {
		return 0, false, nil
	}

	v, err := s.q.Pop()
	return v, err == nil, err
}

func (s *pqSession) Front() (int64, bool) {
	p, ok := s.q.Front()
	if !ok {
		return 0, false
	}

	return *p, true
}

func (s *pqSession) Put(int64, int64) error               { return errUnsupported("pq", "put") }
func (s *pqSession) TryInsert(int64, int64) (int64, error) { return 0, errUnsupported("pq", "try") }
func (s *pqSession) Get(int64) (int64, bool)              { return 0, false }
func (s *pqSession) Entry(int64) string                   { return "pq has no keyed Entry lookup" }
func (s *pqSession) Remove(int64) (int64, bool)           { return 0, false }
func (s *pqSession) Range(int64, int64) ([]record, error) { return nil, errUnsupported("pq", "range") }
func (s *pqSession) RRange(int64, int64) ([]record, error) {
	return nil, errUnsupported("pq", "rrange")
}
func (s *pqSession) Ascend() ([]record, error)  { return nil, errUnsupported("pq", "ascend") }
func (s *pqSession) Descend() ([]record, error) { return nil, errUnsupported("pq", "descend") }
func (s *pqSession) Len() int                   { return s.q.Count() }
func (s *pqSession) Validate() error            { return s.q.Validate() }
func (s *pqSession) Clear()                     { s.q.Clear(nil) }

// --- handlemap session ---

type handlemapSession struct {
	m *handlemap.Map[int64, record]
}

func newHandlemapSession(capacity int, grows bool) (*handlemapSession, error) {
	var fn alloc.Func[record]
	if grows {
		fn = alloc.Heap[record]()
	}

	m, err := handlemap.New(handlemap.Options[int64, record]{
		KeyOf:    func(r *record) int64 { return r.Key },
		Hash:     func(k int64) uint64 { return uint64(k) },
		Eq:       func(a, b int64) bool { return a == b },
		Capacity: capacity,
		Alloc:    fn,
	})
	if err != nil {
		return nil, err
	}

	return &handlemapSession{m: m}, nil
}

func (s *handlemapSession) Push(int64) error { return errUnsupported("handlemap", "push") }
func (s *handlemapSession) Pop() (int64, bool, error) {
	return 0, false, errUnsupported("handlemap", "pop")
}
func (s *handlemapSession) Front() (int64, bool) { return 0, false }

func (s *handlemapSession) Put(k, v int64) error {
	_, err := s.m.InsertOrAssign(k, record{Key: k, Value: v})
	return err
}

func (s *handlemapSession) TryInsert(k, v int64) (int64, error) {
	p, err := s.m.TryInsert(k, record{Key: k, Value: v})
	if err != nil {
		return 0, err
	}

	return p.Value, nil
}

func (s *handlemapSession) Get(k int64) (int64, bool) {
	p, ok := s.m.Get(k)
	if !ok {
		return 0, false
	}

	return p.Value, true
}

func (s *handlemapSession) Entry(k int64) string {
	e := s.m.Lookup(k)
	if e.Occupied() {
		v, _ := e.Unwrap()
		return fmt.Sprintf("Occupied(%d)", v.Value)
	}

	return "Vacant"
}

func (s *handlemapSession) Remove(k int64) (int64, bool) {
	v, ok := s.m.Remove(k)
	return v.Value, ok
}

func (s *handlemapSession) Range(int64, int64) ([]record, error) {
	return nil, errUnsupported("handlemap", "range")
}

func (s *handlemapSession) RRange(int64, int64) ([]record, error) {
	return nil, errUnsupported("handlemap", "rrange")
}

func (s *handlemapSession) Ascend() ([]record, error) {
	var rows []record
	s.m.Range(func(_ int64, v *record) bool {
		rows = append(rows, *v)
		return true
	})

	return rows, nil
}

func (s *handlemapSession) Descend() ([]record, error) {
	return nil, errUnsupported("handlemap", "descend")
}

func (s *handlemapSession) Len() int        { return s.m.Len() }
func (s *handlemapSession) Validate() error { return s.m.Validate() }
func (s *handlemapSession) Clear()          { s.m.Clear(nil) }

// --- ordermap session ---

type ordermapSession struct {
	m *ordermap.Map[int64, record]
}

func newOrdermapSession(capacity int, grows bool) (*ordermapSession, error) {
	m, err := ordermap.New(ordermap.Options[int64, record]{
		KeyOf:    func(r *record) int64 { return r.Key },
		Cmp:      cmpInt64,
		Capacity: capacity,
		Grows:    grows,
	})
	if err != nil {
		return nil, err
	}

	return &ordermapSession{m: m}, nil
}

func (s *ordermapSession) Push(int64) error { return errUnsupported("ordermap", "push") }
func (s *ordermapSession) Pop() (int64, bool, error) {
	return 0, false, errUnsupported("ordermap", "pop")
}

func (s *ordermapSession) Front() (int64, bool) {
	p, ok := s.m.Min()
	if !ok {
		return 0, false
	}

	return p.Value, true
}

func (s *ordermapSession) Put(k, v int64) error {
	_, err := s.m.InsertOrAssign(k, record{Key: k, Value: v})
	return err
}

func (s *ordermapSession) TryInsert(k, v int64) (int64, error) {
	p, err := s.m.TryInsert(k, record{Key: k, Value: v})
	if err != nil {
		return 0, err
	}

	return p.Value, nil
}

func (s *ordermapSession) Get(k int64) (int64, bool) {
	p, ok := s.m.Get(k)
	if !ok {
		return 0, false
	}

	return p.Value, true
}

func (s *ordermapSession) Entry(k int64) string {
	e := s.m.Lookup(k)
	if e.Occupied() {
		v, _ := e.Unwrap()
		return fmt.Sprintf("Occupied(%d)", v.Value)
	}

	return "Vacant"
}

func (s *ordermapSession) Remove(k int64) (int64, bool) {
	v, ok := s.m.Remove(k)
	return v.Value, ok
}

func (s *ordermapSession) Range(lo, hi int64) ([]record, error) {
	var rows []record
	s.m.EqualRange(lo, hi, func(_ int64, v *record) bool {
		rows = append(rows, *v)
		return true
	})

	return rows, nil
}

func (s *ordermapSession) RRange(hi, lo int64) ([]record, error) {
	var rows []record
	s.m.EqualRRange(hi, lo, func(_ int64, v *record) bool {
		rows = append(rows, *v)
		return true
	})

	return rows, nil
}

func (s *ordermapSession) Ascend() ([]record, error) {
	var rows []record
	s.m.Ascend(func(_ int64, v *record) bool {
		rows = append(rows, *v)
		return true
	})

	return rows, nil
}

func (s *ordermapSession) Descend() ([]record, error) {
	var rows []record
	s.m.Descend(func(_ int64, v *record) bool {
		rows = append(rows, *v)
		return true
	})

	return rows, nil
}

func (s *ordermapSession) Len() int        { return s.m.Len() }
func (s *ordermapSession) Validate() error { return s.m.Validate() }
func (s *ordermapSession) Clear()          { s.m.Clear(nil) }
