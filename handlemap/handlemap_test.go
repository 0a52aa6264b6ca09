package handlemap_test

import (
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcontainers/ccc/alloc"
	"github.com/flatcontainers/ccc/handlemap"
	"github.com/flatcontainers/ccc/status"
)

type entryT struct {
	Key   string
	Value int
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return h.Sum64()
}

func newMap(t *testing.T, capacity int, grow bool) *handlemap.Map[string, entryT] {
	t.Helper()

	var fn alloc.Func[entryT]
	if grow {
		fn = alloc.Heap[entryT]()
	}

	m, err := handlemap.New(handlemap.Options[string, entryT]{
		KeyOf:    func(e *entryT) string { return e.Key },
		Hash:     hashString,
		Eq:       func(a, b string) bool { return a == b },
		Capacity: capacity,
		Alloc:    fn,
	})
	require.NoError(t, err)

	return m
}

func TestInsertGetRemove(t *testing.T) {
	m := newMap(t, 11, true)

	_, err := m.InsertOrAssign("alice", entryT{"alice", 30})
	require.NoError(t, err)
	_, err = m.InsertOrAssign("bob", entryT{"bob", 40})
	require.NoError(t, err)

	p, ok := m.Get("alice")
	require.True(t, ok)
	assert.Equal(t, 30, p.Value)

	v, ok := m.Remove("alice")
	require.True(t, ok)
	assert.Equal(t, 30, v.Value)

	_, ok = m.Get("alice")
	assert.False(t, ok)

	_, ok = m.Remove("nobody")
	assert.False(t, ok)
}

func TestTryInsertKeepsExisting(t *testing.T) {
	m := newMap(t, 11, true)

	_, err := m.TryInsert("k", entryT{"k", 1})
	require.NoError(t, err)

	p, err := m.TryInsert("k", entryT{"k", 999})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Value)
}

func TestHandleStabilityAcrossUnrelatedOps(t *testing.T) {
	m := newMap(t, 97, true)

	h, err := m.Insert("target", entryT{"target", 1})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		key := string(rune('a' + i%26))
		_, err := m.Insert(key, entryT{key, i})
		require.NoError(t, err)
	}

	p, ok := m.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, entryT{"target", 1}, *p)

	p.Value = 2
	p2, ok := m.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, 2, p2.Value)
}

func TestHandleStabilityAcrossForcedResize(t *testing.T) {
	m := newMap(t, 11, true)

	h, err := m.Insert("stable", entryT{"stable", 42})
	require.NoError(t, err)

	before := m.Capacity()

	for i := 0; i < 200; i++ {
		key := string(rune('A'+i%26)) + string(rune('a'+(i/26)%26))
		_, err := m.Insert(key, entryT{key, i})
		require.NoError(t, err)
	}

	assert.Greater(t, m.Capacity(), before)

	p, ok := m.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, entryT{"stable", 42}, *p)

	require.NoError(t, m.Validate())
}

func TestRemoveHandleInvalidatesResolve(t *testing.T) {
	m := newMap(t, 11, true)

	h, err := m.Insert("gone", entryT{"gone", 1})
	require.NoError(t, err)

	v, ok := m.RemoveHandle(h)
	require.True(t, ok)
	assert.Equal(t, 1, v.Value)

	_, ok = m.Resolve(h)
	assert.False(t, ok)

	_, ok = m.Get("gone")
	assert.False(t, ok)
}

func TestFixedCapacityNoAllocatorRejectsPastLoadFactor(t *testing.T) {
	m := newMap(t, 11, false)

	inserted := 0
	for i := 0; i < 20; i++ {
		key := string(rune('a' + i))
		_, err := m.InsertOrAssign(key, entryT{key, i})
		if err != nil {
			require.ErrorIs(t, err, status.ErrInsert)
			break
		}
		inserted++
	}

	assert.Greater(t, inserted, 0)
	assert.Less(t, inserted, 20)
	require.NoError(t, m.Validate())
}

func TestRangeVisitsEveryLiveElement(t *testing.T) {
	m := newMap(t, 23, true)

	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		_, err := m.InsertOrAssign(k, entryT{k, v})
		require.NoError(t, err)
	}

	got := map[string]int{}
	m.Range(func(k string, v *entryT) bool {
		got[k] = v.Value
		return true
	})

	assert.Equal(t, want, got)
}

func TestValidateAfterManyInsertsAndRemoves(t *testing.T) {
	m := newMap(t, 11, true)

	keys := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		key := string(rune('a'+i%26)) + string(rune('A'+(i/26)%26)) + string(rune('0'+i/676))
		keys = append(keys, key)
		_, err := m.InsertOrAssign(key, entryT{key, i})
		require.NoError(t, err)
	}

	require.NoError(t, m.Validate())

	for i := 0; i < 500; i++ {
		m.Remove(keys[i])
	}

	require.NoError(t, m.Validate())
	assert.Equal(t, len(keys)-500, m.Len())
}

func TestClearAndFree(t *testing.T) {
	m := newMap(t, 11, true)

	_, err := m.InsertOrAssign("a", entryT{"a", 1})
	require.NoError(t, err)

	destroyed := 0
	m.ClearAndFree(func(*entryT) { destroyed++ })

	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 0, m.Len())

	_, ok := m.Get("a")
	assert.False(t, ok)
}
