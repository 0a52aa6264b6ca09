package ordermap_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcontainers/ccc/ordermap"
	"github.com/flatcontainers/ccc/status"
)

type recordT struct {
	Key   int
	Value string
}

func cmpInt(a, b int) status.Order {
	switch {
	case a < b:
		return status.Lesser
	case a > b:
		return status.Greater
	default:
		return status.Equal
	}
}

func newMap(t *testing.T, capacity int, grow bool) *ordermap.Map[int, recordT] {
	t.Helper()

	m, err := ordermap.New(ordermap.Options[int, recordT]{
		KeyOf:    func(r *recordT) int { return r.Key },
		Cmp:      cmpInt,
		Capacity: capacity,
		Grows:    grow,
	})
	require.NoError(t, err)

	return m
}

func TestInsertGetRemove(t *testing.T) {
	m := newMap(t, 4, true)

	_, err := m.InsertOrAssign(5, recordT{5, "five"})
	require.NoError(t, err)
	_, err = m.InsertOrAssign(2, recordT{2, "two"})
	require.NoError(t, err)

	p, ok := m.Get(5)
	require.True(t, ok)
	assert.Equal(t, "five", p.Value)

	v, ok := m.Remove(5)
	require.True(t, ok)
	assert.Equal(t, "five", v.Value)

	_, ok = m.Get(5)
	assert.False(t, ok)

	_, ok = m.Remove(999)
	assert.False(t, ok)

	require.NoError(t, m.Validate())
}

func TestTryInsertKeepsExisting(t *testing.T) {
	m := newMap(t, 4, true)

	_, err := m.TryInsert(1, recordT{1, "a"})
	require.NoError(t, err)

	p, err := m.TryInsert(1, recordT{1, "b"})
	require.NoError(t, err)
	assert.Equal(t, "a", p.Value)
}

func TestAscendDescendOrder(t *testing.T) {
	m := newMap(t, 4, true)

	keys := []int{5, 3, 8, 1, 4, 7, 9, 2, 6}
	for _, k := range keys {
		_, err := m.InsertOrAssign(k, recordT{k, ""})
		require.NoError(t, err)
	}

	var ascending []int
	m.Ascend(func(k int, _ *recordT) bool {
		ascending = append(ascending, k)
		return true
	})
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, ascending)

	var descending []int
	m.Descend(func(k int, _ *recordT) bool {
		descending = append(descending, k)
		return true
	})
	assert.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2, 1}, descending)
}

func TestEqualRangeAndEqualRRange(t *testing.T) {
	m := newMap(t, 4, true)

	order := rand.New(rand.NewSource(1)).Perm(31)
	for _, i := range order {
		k := i + 10
		_, err := m.InsertOrAssign(k, recordT{k, ""})
		require.NoError(t, err)
	}

	var got []int
	m.EqualRange(15, 25, func(k int, _ *recordT) bool {
		got = append(got, k)
		return true
	})
	assert.Equal(t, []int{15, 16, 17, 18, 19, 20, 21, 22, 23, 24}, got)

	got = nil
	m.EqualRRange(25, 15, func(k int, _ *recordT) bool {
		got = append(got, k)
		return true
	})
	assert.Equal(t, []int{25, 24, 23, 22, 21, 20, 19, 18, 17, 16}, got)
}

func TestMinMax(t *testing.T) {
	m := newMap(t, 4, true)

	_, ok := m.Min()
	assert.False(t, ok)

	for _, k := range []int{5, 1, 9, 3} {
		_, err := m.InsertOrAssign(k, recordT{k, ""})
		require.NoError(t, err)
	}

	minV, ok := m.Min()
	require.True(t, ok)
	assert.Equal(t, 1, minV.Key)

	maxV, ok := m.Max()
	require.True(t, ok)
	assert.Equal(t, 9, maxV.Key)
}

func TestValidateAfterManyInsertsAndRandomRemoves(t *testing.T) {
	m := newMap(t, 16, true)

	r := rand.New(rand.NewSource(42))
	keys := r.Perm(1000)

	for _, k := range keys {
		_, err := m.InsertOrAssign(k, recordT{k, ""})
		require.NoError(t, err)
	}

	require.NoError(t, m.Validate())
	assert.Equal(t, 1000, m.Len())

	removeOrder := append([]int(nil), keys...)
	r.Shuffle(len(removeOrder), func(i, j int) {
		removeOrder[i], removeOrder[j] = removeOrder[j], removeOrder[i]
	})

	for _, k := range removeOrder[:500] {
		_, ok := m.Remove(k)
		require.True(t, ok)
	}

	require.NoError(t, m.Validate())
	assert.Equal(t, 500, m.Len())

	var ascending []int
	m.Ascend(func(k int, _ *recordT) bool {
		ascending = append(ascending, k)
		return true
	})
	for i := 1; i < len(ascending); i++ {
		assert.Less(t, ascending[i-1], ascending[i])
	}
}

func TestFixedCapacityNoAllocatorFailsPastCapacity(t *testing.T) {
	m := newMap(t, 4, false)

	inserted := 0
	for i := 0; i < 10; i++ {
		_, err := m.InsertOrAssign(i, recordT{i, ""})
		if err != nil {
			require.ErrorIs(t, err, status.ErrNoAllocator)
			break
		}
		inserted++
	}

	assert.Greater(t, inserted, 0)
	assert.Less(t, inserted, 10)
	require.NoError(t, m.Validate())
}

func TestClearAndFree(t *testing.T) {
	m := newMap(t, 4, true)

	for _, k := range []int{1, 2, 3} {
		_, err := m.InsertOrAssign(k, recordT{k, ""})
		require.NoError(t, err)
	}

	destroyed := 0
	m.ClearAndFree(func(*recordT) { destroyed++ })

	assert.Equal(t, 3, destroyed)
	assert.Equal(t, 0, m.Len())

	_, ok := m.Get(1)
	assert.False(t, ok)

	_, err := m.InsertOrAssign(1, recordT{1, "again"})
	require.NoError(t, err)
	require.NoError(t, m.Validate())
}
