package status_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcontainers/ccc/status"
)

func TestCodeString(t *testing.T) {
	cases := map[status.Code]string{
		status.Ok:          "Ok",
		status.Argument:    "Argument",
		status.Memory:      "Memory",
		status.NoAllocator: "NoAllocator",
		status.InsertError: "InsertError",
		status.Code(99):    "Unknown",
	}
	for code, want := range cases {
		assert.Equal(t, want, code.String())
	}
}

func TestFrom(t *testing.T) {
	require.Equal(t, status.Ok, status.From(nil))
	require.Equal(t, status.Memory, status.From(fmt.Errorf("grow: %w", status.ErrMemory)))
	require.Equal(t, status.NoAllocator, status.From(status.ErrNoAllocator))
	require.Equal(t, status.InsertError, status.From(status.ErrInsert))
	require.Equal(t, status.Argument, status.From(status.ErrArgument))
	require.Equal(t, status.Argument, status.From(fmt.Errorf("boom")))
}

func TestEntryFlagHas(t *testing.T) {
	f := status.Occupied | status.EntryInsertError
	assert.True(t, f.Has(status.Occupied))
	assert.True(t, f.Has(status.EntryInsertError))
	assert.False(t, f.Has(status.Vacant))
	assert.False(t, f.Has(status.NoUnwrap))
}
