package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPQSession(t *testing.T) {
	s := newPQSession(8, true)

	require.NoError(t, s.Push(5))
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(3))

	v, ok := s.Front()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	v, ok, err := s.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	assert.Equal(t, 2, s.Len())
	assert.NoError(t, s.Validate())

	_, ok = s.Get(1)
	assert.False(t, ok)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestPQSessionRejectsKeyedOps(t *testing.T) {
	s := newPQSession(4, true)

	assert.Error(t, s.Put(1, 1))
	_, err := s.TryInsert(1, 1)
	assert.Error(t, err)
	assert.Equal(t, "pq has no keyed Entry lookup", s.Entry(1))
}

func TestHandlemapSession(t *testing.T) {
	s, err := newHandlemapSession(8, true)
	require.NoError(t, err)

	require.NoError(t, s.Put(1, 100))
	assert.Equal(t, "Occupied(100)", s.Entry(1))
	assert.Equal(t, "Vacant", s.Entry(2))

	stored, err := s.TryInsert(1, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored)

	v, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, int64(100), v)

	v, ok = s.Remove(1)
	require.True(t, ok)
	assert.Equal(t, int64(100), v)

	_, ok = s.Get(1)
	assert.False(t, ok)

	assert.NoError(t, s.Validate())
}

func TestHandlemapSessionRejectsRangeOps(t *testing.T) {
	s, err := newHandlemapSession(8, true)
	require.NoError(t, err)

	_, err = s.Range(0, 10)
	assert.Error(t, err)
	_, err = s.Descend()
	assert.Error(t, err)
}

func TestOrdermapSession(t *testing.T) {
	s, err := newOrdermapSession(8, true)
	require.NoError(t, err)

	require.NoError(t, s.Put(5, 50))
	require.NoError(t, s.Put(1, 10))
	require.NoError(t, s.Put(3, 30))

	v, ok := s.Front()
	require.True(t, ok)
	assert.Equal(t, int64(10), v)

	rows, err := s.Ascend()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0].Key)
	assert.Equal(t, int64(5), rows[2].Key)

	rows, err = s.Descend()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(5), rows[0].Key)

	rows, err = s.Range(1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Key)
	assert.Equal(t, int64(3), rows[1].Key)

	rows, err = s.RRange(5, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[0].Key)
	assert.Equal(t, int64(3), rows[1].Key)

	assert.NoError(t, s.Validate())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestNewSessionUnknownContainer(t *testing.T) {
	_, err := newSession("bogus", 4, true)
	assert.Error(t, err)
}
