package workload_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcontainers/ccc/internal/workload"
)

func TestParseOp(t *testing.T) {
	cases := []struct {
		line string
		want workload.Op
	}{
		{"push 3", workload.Op{Kind: workload.Push, Value: 3}},
		{"pop", workload.Op{Kind: workload.Pop}},
		{"front", workload.Op{Kind: workload.Front}},
		{"get 7", workload.Op{Kind: workload.Get, Key: 7}},
		{"remove 7", workload.Op{Kind: workload.Remove, Key: 7}},
		{"insert_or_assign 5 50", workload.Op{Kind: workload.InsertOrAssign, Key: 5, Value: 50}},
		{"try_insert 5 50", workload.Op{Kind: workload.TryInsert, Key: 5, Value: 50}},
		{"clear", workload.Op{Kind: workload.Clear}},
	}

	for _, c := range cases {
		got, err := workload.ParseOp(c.line)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.want.Kind, got.Kind, c.line)
		assert.Equal(t, c.want.Key, got.Key, c.line)
		assert.Equal(t, c.want.Value, got.Value, c.line)
	}
}

func TestParseOpErrors(t *testing.T) {
	_, err := workload.ParseOp("push")
	assert.ErrorIs(t, err, workload.ErrArity)

	_, err = workload.ParseOp("frobnicate 1")
	assert.ErrorIs(t, err, workload.ErrUnknownOp)

	_, err = workload.ParseOp("push notanumber")
	assert.Error(t, err)
}

func TestParseJSONC(t *testing.T) {
	doc := []byte(`{
		// a small mixed workload
		"name": "smoke",
		"ops": [
			"push 3",
			"push 1",
			"pop",
			"insert_or_assign 5 50",
			"get 5",
		],
	}`)

	script, err := workload.ParseJSONC(doc)
	require.NoError(t, err)

	assert.Equal(t, "smoke", script.Name)
	require.Len(t, script.Ops, 5)
	assert.Equal(t, workload.Push, script.Ops[0].Kind)
	assert.Equal(t, int64(3), script.Ops[0].Value)
	assert.Equal(t, workload.InsertOrAssign, script.Ops[3].Kind)
}

func TestParseYAMLRoundTrip(t *testing.T) {
	script := workload.Script{
		Name: "roundtrip",
		Ops: []workload.Op{
			{Kind: workload.Push, Value: 42},
			{Kind: workload.Pop},
		},
	}

	out, err := script.ToYAML()
	require.NoError(t, err)

	back, err := workload.ParseYAML(out)
	require.NoError(t, err)

	if diff := cmp.Diff(script, back); diff != "" {
		t.Fatalf("round-tripped script differs (-want +got):\n%s", diff)
	}
}

// fakeTarget is a minimal in-memory Target for exercising Replay without
// pulling in a real container.
type fakeTarget struct {
	stack []int64
	m     map[int64]int64
}

func newFakeTarget() *fakeTarget { return &fakeTarget{m: make(map[int64]int64)} }

func (f *fakeTarget) Push(v int64) error { f.stack = append(f.stack, v); return nil }

func (f *fakeTarget) Pop() (int64, error) {
	if len(f.stack) == 0 {
		return 0, nil
	}

	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]

	return v, nil
}

func (f *fakeTarget) Front() (int64, bool) {
	if len(f.stack) == 0 {
		return 0, false
	}

	return f.stack[len(f.stack)-1], true
}

func (f *fakeTarget) Get(k int64) (int64, bool) { v, ok := f.m[k]; return v, ok }

func (f *fakeTarget) InsertOrAssign(k, v int64) error { f.m[k] = v; return nil }

func (f *fakeTarget) TryInsert(k, v int64) error {
	if _, ok := f.m[k]; !ok {
		f.m[k] = v
	}

	return nil
}

func (f *fakeTarget) Remove(k int64) (int64, bool) {
	v, ok := f.m[k]
	delete(f.m, k)

	return v, ok
}

func (f *fakeTarget) Clear() { f.stack = nil; f.m = make(map[int64]int64) }

func TestReplay(t *testing.T) {
	script := workload.Script{
		Name: "mixed",
		Ops: []workload.Op{
			{Kind: workload.Push, Value: 3},
			{Kind: workload.Push, Value: 1},
			{Kind: workload.Pop},
			{Kind: workload.InsertOrAssign, Key: 5, Value: 50},
			{Kind: workload.Get, Key: 5},
			{Kind: workload.Remove, Key: 5},
		},
	}

	target := newFakeTarget()

	result, err := workload.Replay(script, target)
	require.NoError(t, err)

	assert.Equal(t, "mixed", result.Name)
	assert.Equal(t, 6, result.Total)
	assert.Len(t, result.PerOp, 5)
	assert.Equal(t, []int64{3}, target.stack)
}

func TestReplayStopsOnError(t *testing.T) {
	script := workload.Script{Ops: []workload.Op{{Kind: workload.Kind("bogus")}}}

	_, err := workload.Replay(script, newFakeTarget())
	assert.ErrorIs(t, err, workload.ErrUnknownOp)
}
