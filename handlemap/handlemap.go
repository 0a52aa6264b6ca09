package handlemap

import (
	"fmt"
	"math/bits"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/buffer"
	"github.com/flatcontainers/ccc/entry"
	"github.com/flatcontainers/ccc/status"
)

// reservedSlots is the number of metadata slots set aside as Robin-Hood
// swap scratch; they never compute as a home index and never hold a
// live record.
const reservedSlots = 2

// loadFactorCap is the maximum occupancy of the usable metadata slots
// (capacity - reservedSlots) before a resize is triggered.
const loadFactorCap = 0.8

// Handle identifies a live payload slot. Once returned by an insert, a
// Handle keeps resolving to the same element until that element is
// removed, even across intervening inserts/removes of other keys and
// across a metadata resize.
type Handle int

// Hash produces a 64-bit digest for a key. A digest of 0 is reserved to
// mean "empty slot" internally and is remapped transparently.
type Hash[K any] func(key K) uint64

// Eq reports whether two keys are equal. Hash containers compare keys
// with a two-valued {Equal, Not-Equal} relation rather than the
// three-way Order the ordered map uses, since a hash table has no
// notion of key ordering to exploit.
type Eq[K any] func(a, b K) bool

type record struct {
	hash uint64 // 0 means empty; a genuine zero hash is remapped to 1
	slot Handle
}

func isEmpty(r record) bool { return r.hash == 0 }

// Options configures [New].
type Options[K any, T any] struct {
	// KeyOf extracts the key embedded in a payload, so the map can store
	// whole records without requiring a separate key/value pair at every
	// call site.
	KeyOf func(*T) K
	Hash  Hash[K]
	Eq    Eq[K]

	// Capacity is the initial metadata table size, including the two
	// reserved scratch slots. Must be >= 3.
	Capacity int

	// Alloc, when non-nil, lets both the metadata table (on load
	// factor) and the payload storage (on insert) grow as needed. A nil
	// Alloc fixes the map at Capacity for its lifetime; once the usable
	// slots are 80% full, further inserts of new keys fail with
	// [status.ErrInsert].
	Alloc alloc.Func[T]
	Ctx   any
}

// Map is a Robin-Hood open-addressed hash table providing handle
// stability: a live element's payload slot is assigned once, at first
// insertion, and never moves until the element is removed. Metadata
// records may relocate between slots via Robin-Hood swapping and
// resizing; that relocation is invisible to callers, who only ever see
// stable [Handle] values.
type Map[K any, T any] struct {
	meta []record

	payload  *buffer.Buffer[T]
	free     []Handle
	slotLive []bool // slotLive[h] iff Handle h currently addresses a live element
	slotIdx  []int  // slotIdx[h] is the metadata index currently holding h's record, when slotLive[h]

	keyOf func(*T) K
	hash  Hash[K]
	eq    Eq[K]

	live  int
	grows bool
}

// New constructs a Map per opts.
func New[K any, T any](opts Options[K, T]) (*Map[K, T], error) {
	if opts.KeyOf == nil || opts.Hash == nil || opts.Eq == nil {
		return nil, fmt.Errorf("handlemap: KeyOf, Hash, and Eq are required: %w", status.ErrArgument)
	}

	if opts.Capacity < reservedSlots+1 {
		return nil, fmt.Errorf("handlemap: capacity must be at least %d: %w", reservedSlots+1, status.ErrArgument)
	}

	var payload *buffer.Buffer[T]
	if opts.Alloc != nil {
		payload = buffer.New(opts.Alloc, opts.Ctx)
	} else {
		payload = buffer.NewFixed(make([]T, usableCapacity(opts.Capacity)))
	}

	return &Map[K, T]{
		meta:    make([]record, opts.Capacity),
		payload: payload,
		keyOf:   opts.KeyOf,
		hash:    opts.Hash,
		eq:      opts.Eq,
		grows:   opts.Alloc != nil,
	}, nil
}

func usableCapacity(capacity int) int { return capacity - reservedSlots }

func normalizeHash(h uint64) uint64 {
	if h == 0 {
		return 1
	}

	return h
}

// homeIndex maps a hash into [reservedSlots, capacity) by a widening
// multiply-and-shift (Lemire's "fastrange"), avoiding a modulo on every
// probe.
func homeIndex(hash uint64, capacity int) int {
	usable := uint64(usableCapacity(capacity))
	hi, _ := bits.Mul64(hash, usable)

	return int(hi) + reservedSlots
}

func nextIndex(i, capacity int) int {
	usable := usableCapacity(capacity)
	rel := (i - reservedSlots + 1) % usable

	return rel + reservedSlots
}

// distance is a record's Robin-Hood probe distance from its home slot.
func distance(i int, hash uint64, capacity int) int {
	usable := usableCapacity(capacity)
	home := homeIndex(hash, capacity)

	d := (i - reservedSlots) - (home - reservedSlots)
	if d < 0 {
		d += usable
	}

	return d
}

// Len returns the number of live elements.
func (m *Map[K, T]) Len() int { return m.live }

// Capacity returns the metadata table's total size, including the two
// reserved scratch slots.
func (m *Map[K, T]) Capacity() int { return len(m.meta) }

// RawSize returns the raw size count: live elements plus the two
// reserved scratch slots, so Len() == RawSize() - 2. It is a diagnostic
// figure; prefer Len for the live element count.
func (m *Map[K, T]) RawSize() int { return m.live + reservedSlots }

// probe searches for key, returning the metadata index holding it.
func (m *Map[K, T]) probe(key K, hash uint64) (idx int, found bool) {
	capacity := len(m.meta)
	i := homeIndex(hash, capacity)
	dist := 0

	for {
		rec := m.meta[i]

		if isEmpty(rec) {
			return -1, false
		}

		if rec.hash == hash {
			p, _ := m.payload.At(int(rec.slot))
			if m.eq(m.keyOf(p), key) {
				return i, true
			}
		}

		if distance(i, rec.hash, capacity) < dist {
			return -1, false
		}

		i = nextIndex(i, capacity)
		dist++
	}
}

// insertRecord places (hash, slot) into the metadata table by
// Robin-Hood insertion, bumping any resident whose own probe distance
// is smaller. It assumes the key is not already present. Used both for
// fresh inserts and to reinsert surviving records during a resize,
// which is why it takes an already-chosen slot rather than claiming one
// itself.
func (m *Map[K, T]) insertRecord(hash uint64, slot Handle) {
	capacity := len(m.meta)
	cur := record{hash: hash, slot: slot}
	i := homeIndex(cur.hash, capacity)

	for {
		rec := m.meta[i]

		if isEmpty(rec) {
			m.meta[i] = cur
			m.slotIdx[cur.slot] = i

			return
		}

		if distance(i, rec.hash, capacity) < distance(i, cur.hash, capacity) {
			m.meta[i] = cur
			m.slotIdx[cur.slot] = i
			cur = rec
		}

		i = nextIndex(i, capacity)
	}
}

func (m *Map[K, T]) claimSlot() (Handle, error) {
	if n := len(m.free); n > 0 {
		h := m.free[n-1]
		m.free = m.free[:n-1]
		m.slotLive[h] = true

		return h, nil
	}

	if _, err := m.payload.AllocateBack(); err != nil {
		return 0, fmt.Errorf("handlemap: %w", err)
	}

	h := Handle(m.payload.Count() - 1)
	m.slotLive = append(m.slotLive, true)
	m.slotIdx = append(m.slotIdx, -1)

	return h, nil
}

func (m *Map[K, T]) maybeResize() error {
	usable := usableCapacity(len(m.meta))
	if float64(m.live+1) <= loadFactorCap*float64(usable) {
		return nil
	}

	if !m.grows {
		return fmt.Errorf("handlemap: table at load-factor cap with no allocator: %w", status.ErrInsert)
	}

	return m.resizeTo(nextCapacity(m.live + 1))
}

// resizeTo rehashes every live record into a freshly-sized metadata
// table, preserving each record's slot field unchanged so that every
// live [Handle] keeps resolving to the same payload; see the package
// doc for why this needs no payload reassignment.
func (m *Map[K, T]) resizeTo(newCapacity int) error {
	old := m.meta
	m.meta = make([]record, newCapacity)

	for _, rec := range old {
		if !isEmpty(rec) {
			m.insertRecord(rec.hash, rec.slot)
		}
	}

	return nil
}

// Lookup searches for key and returns an [entry.Entry] describing the
// result: Occupied with the live value if found, Vacant with an insert
// closure otherwise.
func (m *Map[K, T]) Lookup(key K) entry.Entry[T] {
	hash := normalizeHash(m.hash(key))
	idx, found := m.probe(key, hash)

	if !found {
		return entry.New[T](
			status.Vacant,
			nil,
			func(v T) (*T, error) { return m.insertNew(hash, v) },
			nil,
		)
	}

	slot := m.meta[idx].slot
	payload := func() *T {
		p, _ := m.payload.At(int(slot))
		return p
	}

	return entry.New[T](
		status.Occupied,
		payload,
		func(v T) (*T, error) {
			p := payload()
			*p = v

			return p, nil
		},
		func() (T, bool) {
			v := *payload()
			m.removeAt(idx)

			return v, true
		},
	)
}

func (m *Map[K, T]) insertNew(hash uint64, v T) (*T, error) {
	if err := m.maybeResize(); err != nil {
		return nil, err
	}

	slot, err := m.claimSlot()
	if err != nil {
		return nil, err
	}

	p, _ := m.payload.At(int(slot))
	*p = v

	m.insertRecord(hash, slot)
	m.live++

	return p, nil
}

// Get returns a pointer to the live value for key, or false if absent.
func (m *Map[K, T]) Get(key K) (*T, bool) {
	hash := normalizeHash(m.hash(key))

	idx, found := m.probe(key, hash)
	if !found {
		return nil, false
	}

	p, _ := m.payload.At(int(m.meta[idx].slot))

	return p, true
}

// TryInsert inserts (key, v) only if key is absent, returning a pointer
// to the live element either way.
func (m *Map[K, T]) TryInsert(key K, v T) (*T, error) {
	return m.Lookup(key).OrInsert(v)
}

// InsertOrAssign inserts (key, v) unconditionally, overwriting any
// existing value for key.
func (m *Map[K, T]) InsertOrAssign(key K, v T) (*T, error) {
	return m.Lookup(key).InsertEntry(v)
}

// Remove deletes key, returning its value and true if it was present.
func (m *Map[K, T]) Remove(key K) (T, bool) {
	var zero T

	hash := normalizeHash(m.hash(key))

	idx, found := m.probe(key, hash)
	if !found {
		return zero, false
	}

	p, _ := m.payload.At(int(m.meta[idx].slot))
	v := *p

	m.removeAt(idx)

	return v, true
}

// removeAt runs backward-shift deletion starting at idx: each
// following record is shifted back one slot while it is displaced from
// its own home, until an empty slot or a record already at distance 0
// is reached.
func (m *Map[K, T]) removeAt(idx int) {
	capacity := len(m.meta)

	slot := m.meta[idx].slot
	m.free = append(m.free, slot)
	m.slotLive[slot] = false

	cur := idx
	for {
		next := nextIndex(cur, capacity)
		rec := m.meta[next]

		if isEmpty(rec) || distance(next, rec.hash, capacity) == 0 {
			m.meta[cur] = record{}
			break
		}

		m.meta[cur] = rec
		m.slotIdx[rec.slot] = cur
		cur = next
	}

	m.live--
}

// Range calls fn for every live (key, value) pair in metadata-slot
// order, stopping early if fn returns false.
func (m *Map[K, T]) Range(fn func(key K, value *T) bool) {
	for _, rec := range m.meta {
		if isEmpty(rec) {
			continue
		}

		p, _ := m.payload.At(int(rec.slot))
		if !fn(m.keyOf(p), p) {
			return
		}
	}
}

// Insert adds or overwrites (key, v) and returns a [Handle] that keeps
// resolving to this element — via [Map.Resolve] — across any number of
// unrelated inserts, removes, and metadata resizes, until the element
// itself is removed.
func (m *Map[K, T]) Insert(key K, v T) (Handle, error) {
	hash := normalizeHash(m.hash(key))

	if idx, found := m.probe(key, hash); found {
		h := m.meta[idx].slot
		p, _ := m.payload.At(int(h))
		*p = v

		return h, nil
	}

	if err := m.maybeResize(); err != nil {
		return 0, err
	}

	slot, err := m.claimSlot()
	if err != nil {
		return 0, err
	}

	p, _ := m.payload.At(int(slot))
	*p = v

	m.insertRecord(hash, slot)
	m.live++

	return slot, nil
}

// Resolve returns the value addressed by h, or false if h no longer
// addresses a live element.
func (m *Map[K, T]) Resolve(h Handle) (*T, bool) {
	if int(h) < 0 || int(h) >= len(m.slotLive) || !m.slotLive[h] {
		return nil, false
	}

	p, _ := m.payload.At(int(h))

	return p, true
}

// RemoveHandle deletes the element addressed by h, returning its value
// and true if h was live.
func (m *Map[K, T]) RemoveHandle(h Handle) (T, bool) {
	var zero T

	if int(h) < 0 || int(h) >= len(m.slotLive) || !m.slotLive[h] {
		return zero, false
	}

	p, _ := m.payload.At(int(h))
	v := *p

	m.removeAt(m.slotIdx[h])

	return v, true
}

// Clear empties the map, invoking destroy (if non-nil) on every live
// value first, without releasing backing storage.
func (m *Map[K, T]) Clear(destroy func(*T)) {
	if destroy != nil {
		for _, rec := range m.meta {
			if !isEmpty(rec) {
				p, _ := m.payload.At(int(rec.slot))
				destroy(p)
			}
		}
	}

	for i := range m.meta {
		m.meta[i] = record{}
	}

	m.free = m.free[:0]
	m.slotLive = m.slotLive[:0]
	m.slotIdx = m.slotIdx[:0]
	m.live = 0
	m.payload.Clear(nil)
}

// ClearAndFree empties the map and releases payload storage through the
// configured allocator.
func (m *Map[K, T]) ClearAndFree(destroy func(*T)) {
	if destroy != nil {
		for _, rec := range m.meta {
			if !isEmpty(rec) {
				p, _ := m.payload.At(int(rec.slot))
				destroy(p)
			}
		}
	}

	for i := range m.meta {
		m.meta[i] = record{}
	}

	m.free = nil
	m.slotLive = nil
	m.slotIdx = nil
	m.live = 0
	m.payload.ClearAndFree(nil)
}

// Validate checks that the metadata table upholds its Robin-Hood and
// handle-stability invariants: no record occupies a reserved slot, no
// two live records reference the same payload slot, every record's
// distance from home falls within the usable range, every record is
// actually reachable by probing forward from its own home slot, and the
// live count matches the number of occupied metadata slots.
func (m *Map[K, T]) Validate() error {
	capacity := len(m.meta)
	seenSlots := make(map[Handle]bool, m.live)

	occupied := 0

	for i, rec := range m.meta {
		if isEmpty(rec) {
			continue
		}

		occupied++

		if i < reservedSlots {
			return fmt.Errorf("handlemap: record occupies reserved slot %d: %w", i, status.ErrArgument)
		}

		if seenSlots[rec.slot] {
			return fmt.Errorf("handlemap: payload slot %d referenced by more than one record: %w", rec.slot, status.ErrArgument)
		}

		seenSlots[rec.slot] = true

		if d := distance(i, rec.hash, capacity); d < 0 || d >= usableCapacity(capacity) {
			return fmt.Errorf("handlemap: record at slot %d has out-of-range distance %d: %w", i, d, status.ErrArgument)
		}

		if err := m.reachable(i, rec, capacity); err != nil {
			return err
		}
	}

	if occupied != m.live {
		return fmt.Errorf("handlemap: live count %d does not match occupied metadata slots %d: %w", m.live, occupied, status.ErrArgument)
	}

	return nil
}

// reachable confirms that probing forward from rec's home slot reaches
// i without tripping probe's early-termination check: hitting a
// resident along the way whose distance is smaller than the search has
// accumulated so far is exactly the condition that makes a real lookup
// give up early. Seeing that here means some earlier Robin-Hood swap
// was skipped or misapplied, stranding rec somewhere probe will never
// reach.
func (m *Map[K, T]) reachable(i int, rec record, capacity int) error {
	pos := homeIndex(rec.hash, capacity)
	dist := 0

	for {
		if pos == i {
			return nil
		}

		other := m.meta[pos]
		if isEmpty(other) {
			return fmt.Errorf("handlemap: record at slot %d is unreachable from its home: %w", i, status.ErrArgument)
		}

		if distance(pos, other.hash, capacity) < dist {
			return fmt.Errorf("handlemap: record at slot %d violates Robin-Hood ordering at slot %d: %w", i, pos, status.ErrArgument)
		}

		pos = nextIndex(pos, capacity)
		dist++
	}
}
