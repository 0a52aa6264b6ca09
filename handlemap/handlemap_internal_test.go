package handlemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidateCatchesBrokenRobinHoodSwap hand-builds a metadata table in
// the state a skipped or misapplied Robin-Hood swap would leave behind:
// a record stranded past a resident with a smaller probe distance, the
// exact condition that makes probe give up on a lookup early. A
// distance-range check alone can't see this, since the stranded
// record's own distance is still in range; only walking its probe path
// from home catches it.
func TestValidateCatchesBrokenRobinHoodSwap(t *testing.T) {
	m, err := New(Options[string, int]{
		KeyOf:    func(v *int) string { return "" },
		Hash:     func(string) uint64 { return 1 },
		Eq:       func(a, b string) bool { return a == b },
		Capacity: 5,
	})
	require.NoError(t, err)

	// usableCapacity(5) == 3, so home indices land on slots 2, 3, 4.
	const homeA = uint64(1_000_000_000_000_000_000) // homeIndex(_, 5) == 2
	const homeB = uint64(8_000_000_000_000_000_000) // homeIndex(_, 5) == 3

	m.meta[2] = record{hash: homeA, slot: 0} // sits at its own home
	m.meta[3] = record{hash: homeB, slot: 1} // sits at its own home, undisturbed
	m.meta[4] = record{hash: homeA, slot: 2} // should have displaced slot 3, didn't
	m.live = 3

	require.Error(t, m.Validate())
}
